// Package flatten implements the flattening pass (spec component C3): it
// rewrites the tag-aware AST into three-address form, where every operand
// is an atom (Const or Name) and every non-atomic sub-expression has been
// named by an explicit preceding assignment.
//
// Grounded on original_source/flatten.py; evaluation order is strictly
// left-to-right and preludes are threaded and concatenated in the same
// order the original's `_flatten_and_sequence` does.
package flatten

import (
	"github.com/pkg/errors"

	"tinypy.dev/x86backend/pkg/ast"
	"tinypy.dev/x86backend/pkg/tempname"
)

// ErrInexhaustive is raised when a statement or expression variant outside
// the catalog handled by this pass is encountered.
var ErrInexhaustive = errors.New("flatten: inexhaustive pattern match")

// Flattener carries the shared temp-name arena.
type Flattener struct {
	names *tempname.Context
}

// New returns a Flattener backed by names.
func New(names *tempname.Context) *Flattener {
	return &Flattener{names: names}
}

// Flatten runs the pass over m.
func (f *Flattener) Flatten(m *ast.Module) (*ast.Module, error) {
	stmts, err := f.stmts(m.Stmts)
	if err != nil {
		return nil, err
	}
	return &ast.Module{Stmts: stmts}, nil
}

func assign(name string, rhs ast.Expr) *ast.Assign {
	return &ast.Assign{Names: []string{name}, Rhs: rhs}
}

func (f *Flattener) stmts(in []ast.Stmt) ([]ast.Stmt, error) {
	var out []ast.Stmt
	for _, s := range in {
		flattened, err := f.stmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, flattened...)
	}
	return out, nil
}

func (f *Flattener) stmt(s ast.Stmt) ([]ast.Stmt, error) {
	switch n := s.(type) {
	case *ast.Printnl:
		prelude, atom, err := f.expr(n.Expr, true)
		if err != nil {
			return nil, err
		}
		return append(prelude, &ast.Printnl{Expr: atom}), nil

	case *ast.Assign:
		prelude, atom, err := f.expr(n.Rhs, true)
		if err != nil {
			return nil, err
		}
		// Bind the flattened value once, then copy it to every target name
		// (mirrors Python multi-assignment `a = b = expr`).
		out := prelude
		for _, name := range n.Names {
			out = append(out, assign(name, atom))
		}
		return out, nil

	case *ast.Discard:
		prelude, atom, err := f.expr(n.Expr, false)
		if err != nil {
			return nil, err
		}
		// Atoms and always-bound results (IfExp, Let) come back as an atom
		// even when not saved; keep them as an explicit Discard.
		if atom != nil {
			prelude = append(prelude, &ast.Discard{Expr: atom})
		}
		return prelude, nil

	case *ast.IfStmt:
		prelude, testAtom, err := f.expr(n.Test, true)
		if err != nil {
			return nil, err
		}
		then, err := f.stmts(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := f.stmts(n.Else)
		if err != nil {
			return nil, err
		}
		return append(prelude, &ast.IfStmt{Test: testAtom, Then: then, Else: els}), nil

	default:
		return nil, errors.Wrapf(ErrInexhaustive, "statement %T", s)
	}
}

// andSequence flattens each of exprs (always with save=true) and
// concatenates their preludes in order, mirroring
// `_flatten_and_sequence`: evaluation order must stay left-to-right even
// though every individual flatten is independent.
func (f *Flattener) andSequence(exprs []ast.Expr) ([]ast.Stmt, []ast.Expr, error) {
	var prelude []ast.Stmt
	atoms := make([]ast.Expr, len(exprs))
	for i, e := range exprs {
		p, atom, err := f.expr(e, true)
		if err != nil {
			return nil, nil, err
		}
		prelude = append(prelude, p...)
		atoms[i] = atom
	}
	return prelude, atoms, nil
}

// doSave either binds res to name (allocating a fresh one if name is empty)
// when save is true, returning the bound Name as the result atom, or
// discards res and returns no atom.
func (f *Flattener) doSave(prelude []ast.Stmt, res ast.Expr, name string, save bool) ([]ast.Stmt, ast.Expr) {
	if save {
		if name == "" {
			name = f.names.Allocate()
		}
		return append(prelude, assign(name, res)), &ast.Name{Ident: name}
	}
	return append(prelude, &ast.Discard{Expr: res}), nil
}

// bopCtor rebuilds a left/right expression node of the same variant after
// its operands have been reduced to atoms.
type bopCtor func(left, right ast.Expr) ast.Expr

func (f *Flattener) bop(left, right ast.Expr, ctor bopCtor, seq bool, save bool) ([]ast.Stmt, ast.Expr, error) {
	prelude, atoms, err := f.andSequence([]ast.Expr{left, right})
	if err != nil {
		return nil, nil, err
	}
	// The right operand is re-bound to a fresh name so the eventual x86
	// instruction selection can align its destination with this name,
	// matching the two-operand `addl src, dst` / `cmpl` shape.
	name := f.names.Allocate()
	prelude = append(prelude, assign(name, atoms[1]))

	var res ast.Expr
	if seq {
		// Seq discards the computed value entirely and yields the
		// already-bound right operand; do_save's self-assignment below is
		// redundant but harmless — it is exactly the pattern the peephole
		// pass's dead-move elimination is grounded to remove.
		res = &ast.Name{Ident: name}
	} else {
		res = ctor(atoms[0], &ast.Name{Ident: name})
	}
	out, atom := f.doSave(prelude, res, name, save)
	return out, atom, nil
}

func (f *Flattener) expr(ex ast.Expr, save bool) ([]ast.Stmt, ast.Expr, error) {
	switch n := ex.(type) {
	case *ast.Add:
		return f.bop(n.Left, n.Right, func(l, r ast.Expr) ast.Expr {
			return &ast.Add{Left: l, Right: r}
		}, false, save)

	case *ast.Eq:
		return f.bop(n.Left, n.Right, func(l, r ast.Expr) ast.Expr {
			return &ast.Eq{Left: l, Right: r}
		}, false, save)

	case *ast.NEq:
		return f.bop(n.Left, n.Right, func(l, r ast.Expr) ast.Expr {
			return &ast.NEq{Left: l, Right: r}
		}, false, save)

	case *ast.Seq:
		return f.bop(n.Left, n.Right, nil, true, save)

	case *ast.UnarySub:
		prelude, atoms, err := f.andSequence([]ast.Expr{n.Expr})
		if err != nil {
			return nil, nil, err
		}
		res := &ast.UnarySub{Expr: atoms[0]}
		out, atom := f.doSave(prelude, res, "", save)
		return out, atom, nil

	case *ast.CallFunc:
		preludeArgs, args, err := f.andSequence(n.Args)
		if err != nil {
			return nil, nil, err
		}
		preludeFunc, funcAtoms, err := f.andSequence([]ast.Expr{n.Func})
		if err != nil {
			return nil, nil, err
		}
		// Sequence evaluating the callee before its arguments.
		prelude := append(preludeFunc, preludeArgs...)
		res := &ast.CallFunc{Func: funcAtoms[0], Args: args}
		out, atom := f.doSave(prelude, res, "", save)
		return out, atom, nil

	case *ast.IfExp:
		preludeTest, testAtoms, err := f.andSequence([]ast.Expr{n.Test})
		if err != nil {
			return nil, nil, err
		}
		preludeThen, thenAtoms, err := f.andSequence([]ast.Expr{n.Then})
		if err != nil {
			return nil, nil, err
		}
		preludeElse, elseAtoms, err := f.andSequence([]ast.Expr{n.Else})
		if err != nil {
			return nil, nil, err
		}

		name := f.names.Allocate()
		then := append(preludeThen, assign(name, thenAtoms[0]))
		els := append(preludeElse, assign(name, elseAtoms[0]))
		prelude := append(preludeTest, &ast.IfStmt{Test: testAtoms[0], Then: then, Else: els})
		// Unconditionally bound, regardless of save: an IfExp's result is
		// always materialized as a name, even when its enclosing context
		// only wanted it for effect (matches original_source/flatten.py).
		return prelude, &ast.Name{Ident: name}, nil

	case *ast.Let:
		preludeRhs, rhsAtom, err := f.expr(n.Rhs, true)
		if err != nil {
			return nil, nil, err
		}
		prelude := append(preludeRhs, assign(n.Var, rhsAtom))
		preludeBody, bodyAtom, err := f.expr(n.Body, true)
		if err != nil {
			return nil, nil, err
		}
		prelude = append(prelude, preludeBody...)
		return prelude, bodyAtom, nil

	case *ast.GetTag:
		prelude, atom, err := f.expr(n.Arg, true)
		if err != nil {
			return nil, nil, err
		}
		res := &ast.GetTag{Arg: atom}
		out, result := f.doSave(prelude, res, "", save)
		return out, result, nil

	case *ast.Box:
		prelude, atom, err := f.expr(n.Arg, true)
		if err != nil {
			return nil, nil, err
		}
		res := &ast.Box{Kind: n.Kind, Arg: atom}
		out, result := f.doSave(prelude, res, "", save)
		return out, result, nil

	case *ast.UnBox:
		prelude, atom, err := f.expr(n.Arg, true)
		if err != nil {
			return nil, nil, err
		}
		res := &ast.UnBox{Kind: n.Kind, Arg: atom}
		out, result := f.doSave(prelude, res, "", save)
		return out, result, nil

	case *ast.Const:
		return nil, n, nil

	case *ast.Name:
		return nil, n, nil

	default:
		return nil, nil, errors.Wrapf(ErrInexhaustive, "expression %T", ex)
	}
}
