// Package asmgen implements the peephole/cleanup pass and assembly-text
// emission (spec component C9): it resolves every pad_args' ABI padding,
// drops redundant moves and zero-effect padding, and renders the full
// prologue/body/epilogue assembly text for one compiled program.
//
// Grounded on original_source/compile.py's _update_padding/_rm_nops/
// _compile_prologue/_get_x86/_compile_epilogue, with the translation
// driven by a CodeGenerator struct in the shape of pkg/hack/codegen.go's
// table-driven generator.
package asmgen

import (
	"fmt"
	"strings"

	"tinypy.dev/x86backend/pkg/abi"
	"tinypy.dev/x86backend/pkg/instr"
)

// CodeGenerator renders a fully register-allocated instruction list as one
// assembly-text function body, given the platform ABI and the frame size
// the allocator settled on.
type CodeGenerator struct {
	abi       *abi.ABI
	bytesUsed int
}

// NewCodeGenerator returns a CodeGenerator targeting platform, emitting a
// frame of bytesUsed spill-slot bytes.
func NewCodeGenerator(a *abi.ABI, bytesUsed int) *CodeGenerator {
	return &CodeGenerator{abi: a, bytesUsed: bytesUsed}
}

// Generate resolves padding, runs the peephole pass, and renders instrs
// (the program body, with `main` as its entry point per spec §6) as
// complete AT&T-syntax assembly text.
func (cg *CodeGenerator) Generate(instrs []instr.Instruction) string {
	resolvePadding(instrs, cg.abi, cg.bytesUsed)
	instrs = Peephole(instrs)

	var b strings.Builder
	b.WriteString(cg.prologue())
	for _, i := range instrs {
		b.WriteString(instr.Emit(i))
		b.WriteByte('\n')
	}
	b.WriteString(cg.epilogue())
	return b.String()
}

// prologue renders the function entry sequence: the global symbol
// declaration (prefixed per ABI), the standard frame-pointer save, and the
// stack allocation for spilled locals.
func (cg *CodeGenerator) prologue() string {
	main := cg.abi.Label("main")
	return fmt.Sprintf(".globl %s\n%s:\npushl %%ebp\nmovl %%esp, %%ebp\nsubl $%d, %%esp\n", main, main, cg.bytesUsed)
}

// epilogue zeroes the process return code and restores the caller's frame.
func (cg *CodeGenerator) epilogue() string {
	return "movl $0, %eax\nleave\nret"
}

// resolvePadding walks instrs (recursing into IfStmt branches) computing
// the ABI-required alignment padding for each pad_args, using the formula
// from spec §4.8: align the call site given `currOffset` bytes already on
// the stack, where the fixed +8 for the saved %ebp and the return address
// is added here before calling into abi.ABI.PaddingBeforeCall.
func resolvePadding(instrs []instr.Instruction, a *abi.ABI, bytesUsed int) {
	for _, ins := range instrs {
		switch v := ins.(type) {
		case *instr.PadArgs:
			v.SetPadding(a.PaddingBeforeCall(bytesUsed+8, v.BytesForParams))
		case *instr.IfStmt:
			resolvePadding(v.Then, a, bytesUsed)
			resolvePadding(v.Else, a, bytesUsed)
		}
	}
}
