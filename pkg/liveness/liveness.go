// Package liveness implements the backward liveness analysis (spec
// component C6) that annotates every instruction with the set of names
// live immediately after it, the input pkg/interfere's graph builder
// consumes.
//
// Grounded on original_source/compile.py's `_get_x86IR_liveness`, extended
// to recurse into if_instr branches the way the rest of the pipeline
// already must (selection, spill-scan, emission all do the same).
package liveness

import "tinypy.dev/x86backend/pkg/instr"

// Set is a liveness set: the names live at some program point.
type Set map[string]bool

func newSet() Set { return make(Set) }

func (s Set) clone() Set {
	out := make(Set, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func (s Set) union(other Set) Set {
	out := s.clone()
	for k := range other {
		out[k] = true
	}
	return out
}

func toMap(s Set) map[string]bool { return map[string]bool(s) }

// Analyze walks instrs backward, recording each instruction's live_after
// set in place (via Instruction.SetLiveAfter). The set live immediately
// after the entire list is taken to be empty; an if_instr's branches are
// analyzed (by analyzeBlock) starting from the enclosing block's current
// live set.
func Analyze(instrs []instr.Instruction) {
	analyzeBlock(instrs, newSet())
}

// analyzeBlock processes instrs in reverse, given the set live immediately
// after the whole block, and returns the set live immediately before it
// (what the caller folds into its own backward walk).
func analyzeBlock(instrs []instr.Instruction, liveAfter Set) Set {
	l := liveAfter.clone()
	for i := len(instrs) - 1; i >= 0; i-- {
		ins := instrs[i]
		ins.SetLiveAfter(toMap(l.clone()))

		if ifStmt, ok := ins.(*instr.IfStmt); ok {
			lThen := analyzeBlock(ifStmt.Then, l)
			lElse := analyzeBlock(ifStmt.Else, l)
			l = lThen.union(lElse)
		}

		for _, w := range ins.Writes() {
			delete(l, w)
		}
		for _, r := range ins.Reads() {
			l[r] = true
		}
	}
	return l
}
