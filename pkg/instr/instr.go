// Package instr defines the x86 intermediate representation produced by
// pkg/select: a uniform instruction object carrying symbolic operands,
// mutated in place by liveness (pkg/liveness) and register allocation
// (pkg/interfere, pkg/regalloc) until every operand resolves to a concrete
// location.
//
// Grounded on original_source/instructions.py's x86instruction class
// hierarchy; the interface-plus-concrete-struct shape follows the teacher's
// pkg/asm/asm.go (Statement interface, AInstruction/CInstruction structs).
package instr

import "fmt"

// Operand is an instruction argument before locations are assigned: a
// constant, a symbolic name awaiting a register/stack slot, or a literal
// machine location (a physical register or an already-resolved address).
type Operand interface {
	operand()
	// String renders the operand in the form it takes before color
	// assignment (used by Instruction debug dumps).
	String() string
}

// Const is a literal signed 32-bit immediate operand.
type Const struct{ Value int32 }

func (Const) operand()          {}
func (c Const) String() string  { return fmt.Sprintf("$%d", c.Value) }

// Name is a symbolic operand: either a source identifier or a compiler
// temporary, resolved to a concrete Location by the allocator.
type Name struct{ Ident string }

func (Name) operand()         {}
func (n Name) String() string { return n.Ident }

// Location is an operand already expressed as a concrete x86 location
// string (a bare register like "%eax" or a stack slot like "-4(%ebp)").
// pad_args/unpad_args and pre-colored physical-register references use this
// directly; every other operand starts life as a Name and is rewritten to a
// Location once assign_locations has been called.
type Location string

func (Location) operand()         {}
func (l Location) String() string { return string(l) }

// IsMemory reports whether l denotes a stack slot rather than a register,
// mirroring original_source/instructions.py's `is_mem_to_mem` suffix check
// ("p)" for "-N(%ebp)", or a bare "p" for legacy single-letter spill slots).
func (l Location) IsMemory() bool {
	s := string(l)
	return len(s) > 0 && (hasSuffix(s, "p)") || hasSuffix(s, "p"))
}

func hasSuffix(s, suf string) bool {
	return len(s) >= len(suf) && s[len(s)-len(suf):] == suf
}

// Instruction is the sum of every supported x86 IR opcode. Every variant
// exposes its symbolic operand names for liveness/interference (Reads,
// Writes) and its rendered assembly text once locations are assigned
// (Emit). LiveAfter and AssignLocations are mutated in place by later
// passes — IR instructions are the one place in the pipeline that isn't
// immutable after creation, per the documented instruction lifecycle.
type Instruction interface {
	// Reads returns the symbolic names (registers or allocator names) read
	// by this instruction; Const operands are never included.
	Reads() []string
	// Writes returns the symbolic names written by this instruction.
	Writes() []string
	// LiveAfter returns the set of names live immediately after this
	// instruction, as computed by pkg/liveness.
	LiveAfter() map[string]bool
	// SetLiveAfter records the liveness set computed for this instruction.
	SetLiveAfter(set map[string]bool)
	// AssignLocations resolves every symbolic Name operand to its home in
	// locations (register or stack slot) using the coloring result.
	AssignLocations(locations map[string]Location)
}

// namesOf extracts the symbolic names (Name idents or bare Location
// registers) referenced by ops, skipping Const operands — mirrors
// x86instruction.vars_names().
func namesOf(ops ...Operand) []string {
	var out []string
	for _, op := range ops {
		switch v := op.(type) {
		case Name:
			out = append(out, v.Ident)
		case Location:
			out = append(out, string(v))
		}
	}
	return out
}

// base holds the fields common to every concrete instruction: the
// mutable liveness set and the resolved operand locations.
type base struct {
	liveAfter map[string]bool
	locations []Location
}

func (b *base) LiveAfter() map[string]bool       { return b.liveAfter }
func (b *base) SetLiveAfter(set map[string]bool) { b.liveAfter = set }

// resolve turns one Operand into a Location given a coloring result,
// mirroring x86instruction.assign_locations's three-way dispatch.
func resolve(op Operand, locations map[string]Location) Location {
	switch v := op.(type) {
	case Const:
		return Location(fmt.Sprintf("$%d", v.Value))
	case Name:
		if loc, ok := locations[v.Ident]; ok {
			return loc
		}
		// A symbolic name with no assigned color is a defect in the
		// allocator, not a user-reachable condition; render it verbatim
		// so the bug is visible in emitted assembly rather than silently
		// producing a valid-looking but wrong instruction.
		return Location(v.Ident)
	case Location:
		return v
	default:
		return Location(op.String())
	}
}
