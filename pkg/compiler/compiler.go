// Package compiler wires every back-end pass (explicate, flatten, select,
// regalloc, asmgen) into the single linear pipeline spec §2 describes:
// AST → Explicate → Flatten → Select → [Liveness → Interfere → Color →
// Assign → Spill?] → Peephole → AsmText.
//
// The teacher has no equivalent "driver" package of its own (each
// cmd/<tool>/main.go wires its own three-stage pipeline directly); this
// package follows that same thin-wiring shape one level up so cmd/compile
// stays a CLI shell, grounded on cmd/hack_assembler/main.go and
// cmd/vm_translator/main.go's parse→lower→generate call sequence.
package compiler

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"tinypy.dev/x86backend/pkg/abi"
	"tinypy.dev/x86backend/pkg/asmgen"
	"tinypy.dev/x86backend/pkg/ast"
	"tinypy.dev/x86backend/pkg/explicate"
	"tinypy.dev/x86backend/pkg/flatten"
	"tinypy.dev/x86backend/pkg/regalloc"
	selectpass "tinypy.dev/x86backend/pkg/select"
	"tinypy.dev/x86backend/pkg/tempname"
)

// CompileContext is a *CompileContext threaded through every pass instead
// of process-global state (spec §9's design note): it carries the target
// ABI and the --debug/--bench reporting flags for one compilation.
type CompileContext struct {
	ABI   *abi.ABI
	Debug bool
	Bench bool
}

// New returns a CompileContext targeting platform.
func New(platform abi.Platform, debug, bench bool) (*CompileContext, error) {
	a, err := abi.New(platform)
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	return &CompileContext{ABI: a, Debug: debug, Bench: bench}, nil
}

// Compile runs m through the full pipeline and returns the emitted
// assembly text. names is the temp-name arena the caller's front end (if
// any) already drew desugaring temporaries from — passing it through here
// keeps every pass, front end included, allocating from the single shared
// counter a real compilation needs (per spec §9's design note against
// process-global state: the counter is threaded, not duplicated).
func (c *CompileContext) Compile(m *ast.Module, names *tempname.Context) (string, error) {
	start := time.Now()

	c.dumpAST("Original AST", m)

	explicated, err := explicate.New(names).Explicate(m)
	if err != nil {
		return "", fmt.Errorf("compiler: explicate: %w", err)
	}
	c.dumpAST("Explicated AST", explicated)

	flat, err := flatten.New(names).Flatten(explicated)
	if err != nil {
		return "", fmt.Errorf("compiler: flatten: %w", err)
	}
	c.dumpAST("Flattened AST", flat)

	selector := selectpass.New(names)
	instrs, err := selector.Select(flat)
	if err != nil {
		return "", fmt.Errorf("compiler: select: %w", err)
	}

	allocated := regalloc.Allocate(instrs, names)

	asmText := asmgen.NewCodeGenerator(c.ABI, allocated.BytesUsed).Generate(allocated.Instrs)

	c.reportBench(start, asmText)
	return asmText, nil
}

func (c *CompileContext) dumpAST(label string, m *ast.Module) {
	if !c.Debug {
		return
	}
	color.Cyan("[DEBUG] %s:", label)
	fmt.Print(m.Dump())
}

func (c *CompileContext) reportBench(start time.Time, asmText string) {
	if !c.Bench {
		return
	}
	elapsed := time.Since(start)
	color.Yellow("[BENCH] compiled in %s, %d bytes of assembly emitted", elapsed, len(asmText))
}
