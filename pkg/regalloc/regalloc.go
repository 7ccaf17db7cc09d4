// Package regalloc implements the register allocator driver and
// spill-until-fixed-point loop (spec component C8): it wires liveness,
// interference-graph construction, and saturation-degree coloring into one
// iteration, rewrites operand locations, then scans for any instruction
// that still resolves two operands to memory and reruns the whole pipeline
// until none remain.
//
// Grounded on original_source/compile.py's _allocate_regs/_introduce_spill
// driver loop.
package regalloc

import (
	"fmt"

	"tinypy.dev/x86backend/pkg/instr"
	"tinypy.dev/x86backend/pkg/interfere"
	"tinypy.dev/x86backend/pkg/liveness"
	"tinypy.dev/x86backend/pkg/tempname"
)

// Result carries everything the peephole/emission stage (pkg/asmgen) needs
// after allocation has converged.
type Result struct {
	// Instrs is the final instruction list, including any unspillable_movl
	// instructions inserted by the spill loop.
	Instrs []instr.Instruction
	// BytesUsed is the number of stack bytes reserved for spilled
	// locals, i.e. the frame size the prologue must `subl` for.
	BytesUsed int
}

// Allocate runs the driver loop described in spec §4.6/§4.7 to a fixed
// point, threading names for fresh spill temporaries.
func Allocate(instrs []instr.Instruction, names *tempname.Context) Result {
	bytesUsed := 0
	newColor := func() instr.Location {
		bytesUsed += 4
		return instr.Location(fmt.Sprintf("-%d(%%ebp)", bytesUsed))
	}

	for {
		colors := initialPalette()

		liveness.Analyze(instrs)
		graph := interfere.Build(instrs)
		// Color can never fail here: newColor always makes progress, per
		// spec §7's Uncolorable contract.
		_ = graph.Color(&colors, newColor)

		locations := graph.Colors()
		for _, ins := range instrs {
			ins.AssignLocations(locations)
		}

		rewritten, spilled := spillPass(instrs, names)
		instrs = rewritten
		if !spilled {
			return Result{Instrs: instrs, BytesUsed: bytesUsed}
		}
	}
}

// initialPalette is the register palette coloring starts from each
// iteration; reserved registers (%esp, %ebp) are never assignable to a
// symbolic name, and both caller- and callee-saved registers are fair game
// per original_source/instructions.py's `regs = caller_save_regs |
// callee_save_regs`.
func initialPalette() []instr.Location {
	var colors []instr.Location
	for _, r := range instr.CallerSaved {
		colors = append(colors, instr.Location(r))
	}
	for _, r := range instr.CalleeSaved {
		colors = append(colors, instr.Location(r))
	}
	return colors
}

// spillPass scans instrs for memory-to-memory operand pairs (spec §4.7,
// invariant 6), recursing into IfStmt branches, and rewrites each offender
// in place by inserting a register-bound scratch move ahead of it.
// Grounded on original_source/compile.py's _introduce_spill, adapted from
// its in-place-list-shifting implementation to a fresh-slice build since
// Go slices don't support Python's insert-and-reindex pattern cleanly.
func spillPass(instrs []instr.Instruction, names *tempname.Context) ([]instr.Instruction, bool) {
	spilled := false
	out := make([]instr.Instruction, 0, len(instrs))

	for _, ins := range instrs {
		if ifs, ok := ins.(*instr.IfStmt); ok {
			then, s1 := spillPass(ifs.Then, names)
			els, s2 := spillPass(ifs.Else, names)
			ifs.Then, ifs.Else = then, els
			spilled = spilled || s1 || s2
			out = append(out, ifs)
			continue
		}

		if instr.MemToMem(ins) {
			v := names.Allocate()
			src := instr.FirstOperandLocation(ins)
			out = append(out, instr.NewUnspillableMovl(src, instr.Name{Ident: v}))
			instr.RewriteFirstOperand(ins, instr.Name{Ident: v})
			spilled = true
		}
		out = append(out, ins)
	}

	return out, spilled
}
