package instr

import (
	"fmt"
	"strings"
)

// CallerSaved and CalleeSaved enumerate the physical registers the
// allocator may assign, grounded on original_source/instructions.py's
// caller_save_regs/callee_save_regs sets.
var (
	CallerSaved = []string{"%eax", "%ecx", "%edx"}
	CalleeSaved = []string{"%ebx", "%edi", "%esi"}
	Reserved    = []string{"%esp", "%ebp"}
)

// Movl is `movl src, dst`.
type Movl struct {
	base
	Src, Dst Operand
}

func NewMovl(src, dst Operand) *Movl { return &Movl{Src: src, Dst: dst} }

func (m *Movl) Reads() []string  { return namesOf(m.Src) }
func (m *Movl) Writes() []string { return namesOf(m.Dst) }
func (m *Movl) AssignLocations(loc map[string]Location) {
	m.locations = []Location{resolve(m.Src, loc), resolve(m.Dst, loc)}
}
func (m *Movl) Emit() string { return fmt.Sprintf("movl %s, %s", m.locations[0], m.locations[1]) }

// UnspillableMovl is a Movl whose destination the allocator must resolve to
// a register, never a stack slot; used exclusively to break up a
// memory-to-memory instruction during the spill fixpoint.
type UnspillableMovl struct{ Movl }

func NewUnspillableMovl(src, dst Operand) *UnspillableMovl {
	return &UnspillableMovl{Movl{Src: src, Dst: dst}}
}

// Addl is `addl src, dst` (dst := dst + src).
type Addl struct {
	base
	Src, Dst Operand
}

func NewAddl(src, dst Operand) *Addl { return &Addl{Src: src, Dst: dst} }

func (a *Addl) Reads() []string  { return namesOf(a.Src, a.Dst) }
func (a *Addl) Writes() []string { return namesOf(a.Dst) }
func (a *Addl) AssignLocations(loc map[string]Location) {
	a.locations = []Location{resolve(a.Src, loc), resolve(a.Dst, loc)}
}
func (a *Addl) Emit() string { return fmt.Sprintf("addl %s, %s", a.locations[0], a.locations[1]) }

// Negl is `negl var` (var := -var).
type Negl struct {
	base
	Var Operand
}

func NewNegl(v Operand) *Negl { return &Negl{Var: v} }

func (n *Negl) Reads() []string  { return namesOf(n.Var) }
func (n *Negl) Writes() []string { return namesOf(n.Var) }
func (n *Negl) AssignLocations(loc map[string]Location) {
	n.locations = []Location{resolve(n.Var, loc)}
}
func (n *Negl) Emit() string { return fmt.Sprintf("negl %s", n.locations[0]) }

// Call invokes a runtime/builtin label, clobbering %eax per the cdecl
// convention this ABI follows.
type Call struct {
	base
	Label string
}

func NewCall(label string) *Call { return &Call{Label: label} }

func (c *Call) Reads() []string                     { return nil }
func (c *Call) Writes() []string                    { return []string{"%eax"} }
func (c *Call) AssignLocations(map[string]Location) {}
func (c *Call) Emit() string                        { return "call " + c.Label }

// Pushl is `pushl var`.
type Pushl struct {
	base
	Var Operand
}

func NewPushl(v Operand) *Pushl { return &Pushl{Var: v} }

func (p *Pushl) Reads() []string  { return namesOf(p.Var) }
func (p *Pushl) Writes() []string { return nil }
func (p *Pushl) AssignLocations(loc map[string]Location) {
	p.locations = []Location{resolve(p.Var, loc)}
}
func (p *Pushl) Emit() string { return fmt.Sprintf("pushl %s", p.locations[0]) }

// PadArgs conforms a call site to the target ABI's stack alignment by
// subtracting Padding bytes from %esp before the pushed arguments.
// Padding is computed by pkg/abi once the call's argument byte-count is
// known and must be set via SetPadding before Emit is called.
type PadArgs struct {
	base
	BytesForParams int
	Padding        *int
}

func NewPadArgs(bytesForParams int) *PadArgs {
	return &PadArgs{BytesForParams: bytesForParams}
}

func (p *PadArgs) SetPadding(bytes int) { p.Padding = &bytes }

func (p *PadArgs) Reads() []string  { return []string{"%esp"} }
func (p *PadArgs) Writes() []string { return nil }
func (p *PadArgs) AssignLocations(map[string]Location) {}
func (p *PadArgs) Emit() string {
	if p.Padding == nil {
		panic("instr: PadArgs.Emit called before SetPadding")
	}
	return fmt.Sprintf("subl $%d, %%esp", *p.Padding)
}

// UnpadArgs undoes the effect of its paired PadArgs after the call returns.
type UnpadArgs struct {
	base
	Pad *PadArgs
}

func NewUnpadArgs(pad *PadArgs) *UnpadArgs { return &UnpadArgs{Pad: pad} }

func (u *UnpadArgs) Reads() []string  { return []string{"%esp"} }
func (u *UnpadArgs) Writes() []string { return nil }
func (u *UnpadArgs) AssignLocations(map[string]Location) {}
func (u *UnpadArgs) Emit() string {
	if u.Pad.Padding == nil {
		panic("instr: UnpadArgs.Emit called before its PadArgs was resolved")
	}
	return fmt.Sprintf("addl $%d, %%esp", *u.Pad.Padding)
}

// Cmpl is `cmpl left, right`, setting condition flags; it writes nothing a
// register allocator needs to track.
type Cmpl struct {
	base
	Left, Right Operand
}

func NewCmpl(left, right Operand) *Cmpl { return &Cmpl{Left: left, Right: right} }

func (c *Cmpl) Reads() []string  { return namesOf(c.Left, c.Right) }
func (c *Cmpl) Writes() []string { return nil }
func (c *Cmpl) AssignLocations(loc map[string]Location) {
	c.locations = []Location{resolve(c.Left, loc), resolve(c.Right, loc)}
}
func (c *Cmpl) Emit() string { return fmt.Sprintf("cmpl %s, %s", c.locations[0], c.locations[1]) }

// Sall is `sall $shift, var` (shift-left logical; shift must be a Const).
type Sall struct {
	base
	Shift Operand
	Var   Operand
}

func NewSall(shift, v Operand) *Sall { return &Sall{Shift: shift, Var: v} }

func (s *Sall) Reads() []string  { return namesOf(s.Shift, s.Var) }
func (s *Sall) Writes() []string { return namesOf(s.Var) }
func (s *Sall) AssignLocations(loc map[string]Location) {
	s.locations = []Location{resolve(s.Shift, loc), resolve(s.Var, loc)}
}
func (s *Sall) Emit() string { return fmt.Sprintf("sall %s, %s", s.locations[0], s.locations[1]) }

// Sarl is `sarl $shift, var` (shift-right arithmetic).
type Sarl struct {
	base
	Shift Operand
	Var   Operand
}

func NewSarl(shift, v Operand) *Sarl { return &Sarl{Shift: shift, Var: v} }

func (s *Sarl) Reads() []string  { return namesOf(s.Shift, s.Var) }
func (s *Sarl) Writes() []string { return namesOf(s.Var) }
func (s *Sarl) AssignLocations(loc map[string]Location) {
	s.locations = []Location{resolve(s.Shift, loc), resolve(s.Var, loc)}
}
func (s *Sarl) Emit() string { return fmt.Sprintf("sarl %s, %s", s.locations[0], s.locations[1]) }

// Andl is `andl src, dst`.
type Andl struct {
	base
	Src, Dst Operand
}

func NewAndl(src, dst Operand) *Andl { return &Andl{Src: src, Dst: dst} }

func (a *Andl) Reads() []string  { return namesOf(a.Src, a.Dst) }
func (a *Andl) Writes() []string { return namesOf(a.Dst) }
func (a *Andl) AssignLocations(loc map[string]Location) {
	a.locations = []Location{resolve(a.Src, loc), resolve(a.Dst, loc)}
}
func (a *Andl) Emit() string { return fmt.Sprintf("andl %s, %s", a.locations[0], a.locations[1]) }

// Orl is `orl src, dst`.
type Orl struct {
	base
	Src, Dst Operand
}

func NewOrl(src, dst Operand) *Orl { return &Orl{Src: src, Dst: dst} }

func (o *Orl) Reads() []string  { return namesOf(o.Src, o.Dst) }
func (o *Orl) Writes() []string { return namesOf(o.Dst) }
func (o *Orl) AssignLocations(loc map[string]Location) {
	o.locations = []Location{resolve(o.Src, loc), resolve(o.Dst, loc)}
}
func (o *Orl) Emit() string { return fmt.Sprintf("orl %s, %s", o.locations[0], o.locations[1]) }

// SeteCl is `sete %cl` (sets %cl to 1 iff ZF, i.e. the preceding cmpl found
// equality).
type SeteCl struct{ base }

func NewSeteCl() *SeteCl { return &SeteCl{} }

func (s *SeteCl) Reads() []string                     { return nil }
func (s *SeteCl) Writes() []string                    { return []string{"%ecx"} }
func (s *SeteCl) AssignLocations(map[string]Location) {}
func (s *SeteCl) Emit() string                        { return "sete %cl" }

// SetneCl is `setne %cl`.
type SetneCl struct{ base }

func NewSetneCl() *SetneCl { return &SetneCl{} }

func (s *SetneCl) Reads() []string                     { return nil }
func (s *SetneCl) Writes() []string                    { return []string{"%ecx"} }
func (s *SetneCl) AssignLocations(map[string]Location) {}
func (s *SetneCl) Emit() string                        { return "setne %cl" }

// MovzblCl is `movzbl %cl, var`: zero-extends the byte set by a preceding
// sete_cl/setne_cl into a full 32-bit value.
type MovzblCl struct {
	base
	Var Operand
}

func NewMovzblCl(v Operand) *MovzblCl { return &MovzblCl{Var: v} }

func (m *MovzblCl) Reads() []string  { return nil }
func (m *MovzblCl) Writes() []string { return namesOf(m.Var) }
func (m *MovzblCl) AssignLocations(loc map[string]Location) {
	m.locations = []Location{resolve(m.Var, loc)}
}
func (m *MovzblCl) Emit() string { return fmt.Sprintf("movzbl %%cl, %s", m.locations[0]) }

// IfStmt is the sole surviving control-flow instruction: it tests a single
// atom and holds two nested instruction lists. Labels are allocated once,
// at Select time, so repeated Emit calls (e.g. a debug dry run before the
// real emission pass) are stable.
type IfStmt struct {
	base
	Test       Operand
	Then, Else []Instruction
	LabelID    int
}

func NewIfStmt(test Operand, then, els []Instruction, labelID int) *IfStmt {
	return &IfStmt{Test: test, Then: then, Else: els, LabelID: labelID}
}

func (f *IfStmt) Reads() []string  { return namesOf(f.Test) }
func (f *IfStmt) Writes() []string { return []string{"%eax", "%ecx"} }

func (f *IfStmt) AssignLocations(loc map[string]Location) {
	f.locations = []Location{resolve(f.Test, loc)}
	for _, i := range f.Then {
		i.AssignLocations(loc)
	}
	for _, i := range f.Else {
		i.AssignLocations(loc)
	}
}

// Emit renders the baseline je/jmp branch described by the emission
// contract; the experimental constant-time "zigzagger" cmov path from the
// original implementation is intentionally not reproduced (see DESIGN.md).
func (f *IfStmt) Emit() string {
	elseLabel := fmt.Sprintf(".Lelse_%d", f.LabelID)
	endLabel := fmt.Sprintf(".Lend_%d", f.LabelID)

	var b strings.Builder
	fmt.Fprintf(&b, "cmpl $0, %s\n", f.locations[0])
	fmt.Fprintf(&b, "je %s\n", elseLabel)
	for _, i := range f.Then {
		b.WriteString(Emit(i))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "jmp %s\n", endLabel)
	fmt.Fprintf(&b, "%s:\n", elseLabel)
	for _, i := range f.Else {
		b.WriteString(Emit(i))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%s:", endLabel)
	return b.String()
}

// Emitter is implemented by every concrete instruction; it is kept separate
// from Instruction so code that only needs Reads/Writes/liveness can depend
// on the narrower interface.
type Emitter interface {
	Emit() string
}

// Emit renders i's assembly text. Panics if i was built without an Emit
// method, which would be a defect in pkg/select, not a reachable runtime
// condition.
func Emit(i Instruction) string {
	e, ok := i.(Emitter)
	if !ok {
		panic(fmt.Sprintf("instr: %T does not implement Emit", i))
	}
	return e.Emit()
}

// Locations exposes the resolved operand locations assigned by
// AssignLocations, in the uniform [op0, op1, ...] order every concrete
// instruction populates. Used by pkg/regalloc's mem-to-mem spill scan.
func Locations(i Instruction) []Location {
	switch v := i.(type) {
	case *Movl:
		return v.locations
	case *UnspillableMovl:
		return v.locations
	case *Addl:
		return v.locations
	case *Negl:
		return v.locations
	case *Pushl:
		return v.locations
	case *Cmpl:
		return v.locations
	case *Sall:
		return v.locations
	case *Sarl:
		return v.locations
	case *Andl:
		return v.locations
	case *Orl:
		return v.locations
	case *MovzblCl:
		return v.locations
	case *IfStmt:
		return v.locations
	default:
		return nil
	}
}

// MemToMem reports whether i is a two-operand instruction whose first two
// resolved locations are both stack slots, the condition that forces a
// spill rewrite (original_source/instructions.py's `is_mem_to_mem`).
func MemToMem(i Instruction) bool {
	locs := Locations(i)
	if len(locs) < 2 {
		return false
	}
	return locs[0].IsMemory() && locs[1].IsMemory()
}

// RewriteFirstOperand replaces i's first operand with replacement, used by
// the spill pass to redirect the offending memory operand through a fresh
// unspillable temp. Only Movl/UnspillableMovl/Addl/Andl/Orl/Cmpl/Sall/Sarl
// are ever mem-to-mem (every other opcode has at most one memory-capable
// operand), so only those need support it.
func RewriteFirstOperand(i Instruction, replacement Operand) {
	switch v := i.(type) {
	case *Movl:
		v.Src = replacement
	case *UnspillableMovl:
		v.Src = replacement
	case *Addl:
		v.Src = replacement
	case *Andl:
		v.Src = replacement
	case *Orl:
		v.Src = replacement
	case *Cmpl:
		v.Left = replacement
	case *Sall:
		v.Shift = replacement
	case *Sarl:
		v.Shift = replacement
	default:
		panic(fmt.Sprintf("instr: %T cannot be mem-to-mem, nothing to rewrite", i))
	}
}

// FirstOperandLocation returns the resolved location of i's first operand,
// the `src` the spill pass preserves when it inserts an unspillable_movl
// ahead of the rewritten instruction.
func FirstOperandLocation(i Instruction) Location {
	locs := Locations(i)
	if len(locs) == 0 {
		panic(fmt.Sprintf("instr: %T has no resolved operands", i))
	}
	return locs[0]
}
