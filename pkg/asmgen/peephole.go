package asmgen

import "tinypy.dev/x86backend/pkg/instr"

// Peephole removes the no-op instructions spec §4.8 names: a movl whose
// two resolved operands coincide, a pad_args/unpad_args pair whose padding
// resolved to zero, and an addl $0, dst. It recurses into IfStmt branches
// and is idempotent (spec §8 invariant 8: none of these patterns can ever
// be reintroduced by removing another instance of themselves).
//
// Grounded on original_source/compile.py's _rm_nops.
func Peephole(instrs []instr.Instruction) []instr.Instruction {
	out := make([]instr.Instruction, 0, len(instrs))
	for _, ins := range instrs {
		if ifs, ok := ins.(*instr.IfStmt); ok {
			ifs.Then = Peephole(ifs.Then)
			ifs.Else = Peephole(ifs.Else)
			out = append(out, ifs)
			continue
		}
		if isDeadMove(ins) || isZeroPadding(ins) || isZeroAdd(ins) {
			continue
		}
		out = append(out, ins)
	}
	return out
}

func isDeadMove(ins instr.Instruction) bool {
	m, ok := ins.(*instr.Movl)
	if !ok {
		return false
	}
	locs := instr.Locations(m)
	return len(locs) == 2 && locs[0] == locs[1]
}

func isZeroPadding(ins instr.Instruction) bool {
	switch v := ins.(type) {
	case *instr.PadArgs:
		return v.Padding != nil && *v.Padding == 0
	case *instr.UnpadArgs:
		return v.Pad.Padding != nil && *v.Pad.Padding == 0
	default:
		return false
	}
}

func isZeroAdd(ins instr.Instruction) bool {
	a, ok := ins.(*instr.Addl)
	if !ok {
		return false
	}
	c, ok := a.Src.(instr.Const)
	return ok && c.Value == 0
}
