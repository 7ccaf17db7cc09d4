// Package selectpass implements instruction selection (spec component C5):
// it translates the flat, three-address AST into the x86 IR defined by
// pkg/instr, one statement at a time, following the fixed mapping table
// from flat operator to instruction sequence. Named selectpass rather than
// select since the latter is a Go keyword.
//
// Grounded on original_source/instructions.py's instruction shapes and
// original_source/compile.py's expr-to-IR dispatch (`_expr_to_x86IR`),
// adapted to the richer tag-aware operator set pkg/explicate produces.
package selectpass

import (
	"github.com/pkg/errors"

	"tinypy.dev/x86backend/pkg/ast"
	"tinypy.dev/x86backend/pkg/instr"
	"tinypy.dev/x86backend/pkg/tempname"
)

// ErrInexhaustive is raised when a statement or expression variant outside
// the catalog this pass maps is encountered.
var ErrInexhaustive = errors.New("select: inexhaustive pattern match")

// ErrNonStaticCallee is raised when a CallFunc's callee is not a bare name,
// i.e. an attempt to call through a computed value — unsupported since the
// source language has no user-defined functions or first-class callables.
var ErrNonStaticCallee = errors.New("select: callee is not a static builtin name")

const printBuiltin = "print_any"

// Selector carries the shared label counter used to give every if_instr a
// stable numeric suffix.
type Selector struct {
	labels *tempname.Context
}

// New returns a Selector backed by labels.
func New(labels *tempname.Context) *Selector {
	return &Selector{labels: labels}
}

// Select lowers every statement of m into a flat IR instruction list.
func (s *Selector) Select(m *ast.Module) ([]instr.Instruction, error) {
	return s.stmts(m.Stmts)
}

func (s *Selector) stmts(in []ast.Stmt) ([]instr.Instruction, error) {
	var out []instr.Instruction
	for _, st := range in {
		ins, err := s.stmt(st)
		if err != nil {
			return nil, err
		}
		out = append(out, ins...)
	}
	return out, nil
}

func (s *Selector) stmt(st ast.Stmt) ([]instr.Instruction, error) {
	switch n := st.(type) {
	case *ast.Assign:
		if len(n.Names) != 1 {
			return nil, errors.Errorf("select: Assign must have exactly one target after flattening, got %d", len(n.Names))
		}
		return s.expr(n.Rhs, n.Names[0])

	case *ast.Discard:
		return s.expr(n.Expr, "")

	case *ast.Printnl:
		atom, err := operandOf(n.Expr)
		if err != nil {
			return nil, err
		}
		pad := instr.NewPadArgs(4)
		return []instr.Instruction{
			pad,
			instr.NewPushl(atom),
			instr.NewCall(printBuiltin),
			instr.NewAddl(instr.Const{Value: 4}, instr.Location("%esp")),
			instr.NewUnpadArgs(pad),
		}, nil

	case *ast.IfStmt:
		testAtom, err := operandOf(n.Test)
		if err != nil {
			return nil, err
		}
		then, err := s.stmts(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := s.stmts(n.Else)
		if err != nil {
			return nil, err
		}
		return []instr.Instruction{instr.NewIfStmt(testAtom, then, els, s.labels.NewLabel())}, nil

	default:
		return nil, errors.Wrapf(ErrInexhaustive, "statement %T", st)
	}
}

// operandOf converts an atom (the only expressions flatten ever leaves in
// an operand position) to an instr.Operand.
func operandOf(e ast.Expr) (instr.Operand, error) {
	switch n := e.(type) {
	case *ast.Const:
		return instr.Const{Value: n.Value}, nil
	case *ast.Name:
		return instr.Name{Ident: n.Ident}, nil
	default:
		return nil, errors.Wrapf(ErrInexhaustive, "expected an atom, got %T", e)
	}
}

// isName reports whether e is the Name target, used throughout to decide
// whether a trailing `movl` would be a no-op copy to itself.
func isName(e ast.Expr, target string) bool {
	n, ok := e.(*ast.Name)
	return ok && n.Ident == target
}

// expr lowers a (possibly non-atomic) flattened expression that is the
// right-hand side of an Assign (target != "") or a Discard (target == "").
//
// Per the mapping table, every opcode sequence that writes only into the
// target name produces nothing when there is no target to write into — a
// discarded GetTag/Box/UnBox/comparison-result/plain-move has no other
// observable effect. Add and the comparison opcodes have one instruction
// (addl, cmpl) whose effect does not depend on a target at all, so that
// part is always retained even when discarded (spec's "side-effecting ops
// retained" clause); only CallFunc always runs its full sequence, since a
// builtin call has effects beyond its return value.
func (s *Selector) expr(e ast.Expr, target string) ([]instr.Instruction, error) {
	switch n := e.(type) {
	case *ast.Add:
		left, err := operandOf(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := operandOf(n.Right)
		if err != nil {
			return nil, err
		}
		out := []instr.Instruction{instr.NewAddl(left, right)}
		if target != "" && !isName(n.Right, target) {
			out = append(out, instr.NewMovl(right, instr.Name{Ident: target}))
		}
		return out, nil

	case *ast.UnarySub:
		if target == "" {
			return nil, nil
		}
		arg, err := operandOf(n.Expr)
		if err != nil {
			return nil, err
		}
		var out []instr.Instruction
		if !isName(n.Expr, target) {
			out = append(out, instr.NewMovl(arg, instr.Name{Ident: target}))
		}
		out = append(out, instr.NewNegl(instr.Name{Ident: target}))
		return out, nil

	case *ast.CallFunc:
		return s.call(n, target)

	case *ast.Eq:
		return s.compare(n.Left, n.Right, target, instr.NewSeteCl())
	case *ast.NEq:
		return s.compare(n.Left, n.Right, target, instr.NewSetneCl())
	case *ast.Is:
		// Same instruction shape as Eq (raw word equality).
		return s.compare(n.Left, n.Right, target, instr.NewSeteCl())

	case *ast.GetTag:
		if target == "" {
			return nil, nil
		}
		arg, err := operandOf(n.Arg)
		if err != nil {
			return nil, err
		}
		return []instr.Instruction{
			instr.NewMovl(arg, instr.Name{Ident: target}),
			instr.NewAndl(instr.Const{Value: int32(ast.TagMask)}, instr.Name{Ident: target}),
		}, nil

	case *ast.Box:
		if target == "" {
			return nil, nil
		}
		return s.box(n, target)

	case *ast.UnBox:
		if target == "" {
			return nil, nil
		}
		return s.unbox(n, target)

	case *ast.Const, *ast.Name:
		if target == "" {
			return nil, nil
		}
		if isName(n, target) {
			return nil, nil
		}
		atom, err := operandOf(n)
		if err != nil {
			return nil, err
		}
		return []instr.Instruction{instr.NewMovl(atom, instr.Name{Ident: target})}, nil

	default:
		return nil, errors.Wrapf(ErrInexhaustive, "expression %T", e)
	}
}

func (s *Selector) compare(left, right ast.Expr, target string, setInstr instr.Instruction) ([]instr.Instruction, error) {
	l, err := operandOf(left)
	if err != nil {
		return nil, err
	}
	r, err := operandOf(right)
	if err != nil {
		return nil, err
	}
	out := []instr.Instruction{instr.NewCmpl(l, r)}
	if target == "" {
		return out, nil
	}
	out = append(out, setInstr, instr.NewMovzblCl(instr.Name{Ident: target}))
	return out, nil
}

func (s *Selector) box(n *ast.Box, target string) ([]instr.Instruction, error) {
	arg, err := operandOf(n.Arg)
	if err != nil {
		return nil, err
	}
	dst := instr.Name{Ident: target}
	out := []instr.Instruction{instr.NewMovl(arg, dst)}
	switch n.Kind {
	case ast.BoxInt:
		out = append(out, instr.NewSall(instr.Const{Value: 2}, dst))
	case ast.BoxBool:
		out = append(out, instr.NewSall(instr.Const{Value: 2}, dst), instr.NewOrl(instr.Const{Value: 1}, dst))
	case ast.BoxBig:
		out = append(out, instr.NewOrl(instr.Const{Value: 3}, dst))
	default:
		return nil, errors.Errorf("select: unknown box kind %q", n.Kind)
	}
	return out, nil
}

func (s *Selector) unbox(n *ast.UnBox, target string) ([]instr.Instruction, error) {
	arg, err := operandOf(n.Arg)
	if err != nil {
		return nil, err
	}
	dst := instr.Name{Ident: target}
	out := []instr.Instruction{instr.NewMovl(arg, dst)}
	switch n.Kind {
	case ast.UnboxSmall:
		out = append(out, instr.NewSarl(instr.Const{Value: 2}, dst))
	case ast.UnboxBig:
		out = append(out, instr.NewAndl(instr.Const{Value: ast.BigPointerMask}, dst))
	default:
		return nil, errors.Errorf("select: unknown unbox kind %q", n.Kind)
	}
	return out, nil
}

func (s *Selector) call(n *ast.CallFunc, target string) ([]instr.Instruction, error) {
	calleeName, ok := n.Func.(*ast.Name)
	if !ok {
		return nil, errors.Wrapf(ErrNonStaticCallee, "%T", n.Func)
	}

	args := make([]instr.Operand, len(n.Args))
	for i, a := range n.Args {
		op, err := operandOf(a)
		if err != nil {
			return nil, err
		}
		args[i] = op
	}

	pad := instr.NewPadArgs(4 * len(args))
	out := []instr.Instruction{pad}
	// cdecl pushes arguments right to left.
	for i := len(args) - 1; i >= 0; i-- {
		out = append(out, instr.NewPushl(args[i]))
	}
	out = append(out, instr.NewCall(calleeName.Ident))
	if len(args) > 0 {
		out = append(out, instr.NewAddl(instr.Const{Value: int32(4 * len(args))}, instr.Location("%esp")))
	}
	out = append(out, instr.NewUnpadArgs(pad))
	if target != "" {
		out = append(out, instr.NewMovl(instr.Location("%eax"), instr.Name{Ident: target}))
	}
	return out, nil
}
