package selectpass

import (
	"testing"

	"tinypy.dev/x86backend/pkg/ast"
	"tinypy.dev/x86backend/pkg/instr"
	"tinypy.dev/x86backend/pkg/tempname"
)

func selectModule(t *testing.T, m *ast.Module) []instr.Instruction {
	t.Helper()
	out, err := New(tempname.NewContext()).Select(m)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	return out
}

func TestSelectAddEmitsAddlThenMovl(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"n"}, Rhs: &ast.Add{Left: &ast.Name{Ident: "a"}, Right: &ast.Name{Ident: "b"}}},
	}}
	out := selectModule(t, m)
	if len(out) != 2 {
		t.Fatalf("expected 2 instructions, got %d: %#v", len(out), out)
	}
	if _, ok := out[0].(*instr.Addl); !ok {
		t.Errorf("out[0] = %T, want *instr.Addl", out[0])
	}
	mv, ok := out[1].(*instr.Movl)
	if !ok {
		t.Fatalf("out[1] = %T, want *instr.Movl", out[1])
	}
	if mv.Dst.(instr.Name).Ident != "n" {
		t.Errorf("movl dst = %v, want n", mv.Dst)
	}
}

func TestSelectAddSkipsMoveWhenDestAlreadyTarget(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"b"}, Rhs: &ast.Add{Left: &ast.Name{Ident: "a"}, Right: &ast.Name{Ident: "b"}}},
	}}
	out := selectModule(t, m)
	if len(out) != 1 {
		t.Fatalf("expected 1 instruction (no redundant movl), got %d: %#v", len(out), out)
	}
}

func TestSelectUnarySubSkipsMoveWhenArgIsTarget(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"x"}, Rhs: &ast.UnarySub{Expr: &ast.Name{Ident: "x"}}},
	}}
	out := selectModule(t, m)
	if len(out) != 1 {
		t.Fatalf("expected just negl, got %d: %#v", len(out), out)
	}
	if _, ok := out[0].(*instr.Negl); !ok {
		t.Errorf("out[0] = %T, want *instr.Negl", out[0])
	}
}

func TestSelectDiscardedUnarySubEmitsNothing(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Discard{Expr: &ast.UnarySub{Expr: &ast.Name{Ident: "x"}}},
	}}
	out := selectModule(t, m)
	if len(out) != 0 {
		t.Errorf("expected no instructions for a discarded pure negation, got %#v", out)
	}
}

func TestSelectDiscardedAddRetainsAddl(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Discard{Expr: &ast.Add{Left: &ast.Name{Ident: "a"}, Right: &ast.Name{Ident: "b"}}},
	}}
	out := selectModule(t, m)
	if len(out) != 1 {
		t.Fatalf("expected exactly the addl, got %d: %#v", len(out), out)
	}
	if _, ok := out[0].(*instr.Addl); !ok {
		t.Errorf("out[0] = %T, want *instr.Addl", out[0])
	}
}

func TestSelectEqEmitsCmplSeteMovzbl(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"n"}, Rhs: &ast.Eq{Left: &ast.Name{Ident: "a"}, Right: &ast.Name{Ident: "b"}}},
	}}
	out := selectModule(t, m)
	if len(out) != 3 {
		t.Fatalf("expected 3 instructions, got %d: %#v", len(out), out)
	}
	if _, ok := out[0].(*instr.Cmpl); !ok {
		t.Errorf("out[0] = %T, want *instr.Cmpl", out[0])
	}
	if _, ok := out[1].(*instr.SeteCl); !ok {
		t.Errorf("out[1] = %T, want *instr.SeteCl", out[1])
	}
	if _, ok := out[2].(*instr.MovzblCl); !ok {
		t.Errorf("out[2] = %T, want *instr.MovzblCl", out[2])
	}
}

func TestSelectNEqUsesSetneCl(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"n"}, Rhs: &ast.NEq{Left: &ast.Name{Ident: "a"}, Right: &ast.Name{Ident: "b"}}},
	}}
	out := selectModule(t, m)
	if _, ok := out[1].(*instr.SetneCl); !ok {
		t.Errorf("out[1] = %T, want *instr.SetneCl", out[1])
	}
}

func TestSelectBoxInt(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"n"}, Rhs: &ast.Box{Kind: ast.BoxInt, Arg: &ast.Name{Ident: "a"}}},
	}}
	out := selectModule(t, m)
	if len(out) != 2 {
		t.Fatalf("expected movl+sall, got %d: %#v", len(out), out)
	}
	if _, ok := out[1].(*instr.Sall); !ok {
		t.Errorf("out[1] = %T, want *instr.Sall", out[1])
	}
}

func TestSelectBoxBoolShiftsThenOrs(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"n"}, Rhs: &ast.Box{Kind: ast.BoxBool, Arg: &ast.Name{Ident: "a"}}},
	}}
	out := selectModule(t, m)
	if len(out) != 3 {
		t.Fatalf("expected movl+sall+orl, got %d: %#v", len(out), out)
	}
	if _, ok := out[1].(*instr.Sall); !ok {
		t.Errorf("out[1] = %T, want *instr.Sall", out[1])
	}
	if _, ok := out[2].(*instr.Orl); !ok {
		t.Errorf("out[2] = %T, want *instr.Orl", out[2])
	}
}

func TestSelectBoxBigOrsOnly(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"n"}, Rhs: &ast.Box{Kind: ast.BoxBig, Arg: &ast.Name{Ident: "a"}}},
	}}
	out := selectModule(t, m)
	if len(out) != 2 {
		t.Fatalf("expected movl+orl, got %d: %#v", len(out), out)
	}
	if _, ok := out[1].(*instr.Orl); !ok {
		t.Errorf("out[1] = %T, want *instr.Orl", out[1])
	}
}

func TestSelectUnboxSmallShiftsRight(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"n"}, Rhs: &ast.UnBox{Kind: ast.UnboxSmall, Arg: &ast.Name{Ident: "a"}}},
	}}
	out := selectModule(t, m)
	if _, ok := out[1].(*instr.Sarl); !ok {
		t.Errorf("out[1] = %T, want *instr.Sarl", out[1])
	}
}

func TestSelectUnboxBigMasks(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"n"}, Rhs: &ast.UnBox{Kind: ast.UnboxBig, Arg: &ast.Name{Ident: "a"}}},
	}}
	out := selectModule(t, m)
	if _, ok := out[1].(*instr.Andl); !ok {
		t.Errorf("out[1] = %T, want *instr.Andl", out[1])
	}
}

func TestSelectCallPushesArgsRightToLeft(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Assign{Names: []string{"n"}, Rhs: &ast.CallFunc{
			Func: &ast.Name{Ident: "add"},
			Args: []ast.Expr{&ast.Name{Ident: "x"}, &ast.Name{Ident: "y"}},
		}},
	}}
	out := selectModule(t, m)

	var pushes []instr.Operand
	for _, i := range out {
		if p, ok := i.(*instr.Pushl); ok {
			pushes = append(pushes, p.Var)
		}
	}
	if len(pushes) != 2 {
		t.Fatalf("expected 2 pushl, got %d", len(pushes))
	}
	if pushes[0].(instr.Name).Ident != "y" || pushes[1].(instr.Name).Ident != "x" {
		t.Errorf("push order = %v, want [y x] (right to left)", pushes)
	}

	foundCall, foundCleanup, foundMove := false, false, false
	for _, i := range out {
		switch v := i.(type) {
		case *instr.Call:
			if v.Label != "add" {
				t.Errorf("call label = %q, want add", v.Label)
			}
			foundCall = true
		case *instr.Addl:
			foundCleanup = true
		case *instr.Movl:
			if v.Dst.(instr.Name).Ident == "n" {
				if loc, ok := v.Src.(instr.Location); !ok || loc != "%eax" {
					t.Errorf("result move src = %v, want %%eax", v.Src)
				}
				foundMove = true
			}
		}
	}
	if !foundCall || !foundCleanup || !foundMove {
		t.Errorf("missing expected call/cleanup/move in %#v", out)
	}
}

func TestSelectCallWithNoArgsSkipsStackCleanup(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Discard{Expr: &ast.CallFunc{Func: &ast.Name{Ident: "input"}}},
	}}
	out := selectModule(t, m)
	for _, i := range out {
		if _, ok := i.(*instr.Addl); ok {
			t.Errorf("unexpected stack-cleanup addl for a zero-arg call: %#v", out)
		}
	}
}

func TestSelectPrintnlUsesPrintAnyBuiltin(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Printnl{Expr: &ast.Name{Ident: "x"}},
	}}
	out := selectModule(t, m)
	var found bool
	for _, i := range out {
		if c, ok := i.(*instr.Call); ok {
			found = true
			if c.Label != "print_any" {
				t.Errorf("printnl call label = %q, want print_any", c.Label)
			}
		}
	}
	if !found {
		t.Error("expected a call instruction for Printnl")
	}
}

func TestSelectIfStmtRecursesAndLabelsAreUnique(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.IfStmt{
			Test: &ast.Name{Ident: "t"},
			Then: []ast.Stmt{&ast.Printnl{Expr: &ast.Const{1}}},
			Else: []ast.Stmt{
				&ast.IfStmt{
					Test: &ast.Name{Ident: "u"},
					Then: []ast.Stmt{&ast.Printnl{Expr: &ast.Const{2}}},
					Else: nil,
				},
			},
		},
	}}
	out := selectModule(t, m)
	if len(out) != 1 {
		t.Fatalf("expected a single top-level if_instr, got %d", len(out))
	}
	outer, ok := out[0].(*instr.IfStmt)
	if !ok {
		t.Fatalf("expected *instr.IfStmt, got %T", out[0])
	}
	var inner *instr.IfStmt
	for _, i := range outer.Else {
		if f, ok := i.(*instr.IfStmt); ok {
			inner = f
		}
	}
	if inner == nil {
		t.Fatal("expected a nested if_instr in the else branch")
	}
	if inner.LabelID == outer.LabelID {
		t.Errorf("nested if_instr reused the outer label id %d", outer.LabelID)
	}
}

func TestSelectRejectsNonStaticCallee(t *testing.T) {
	m := &ast.Module{Stmts: []ast.Stmt{
		&ast.Discard{Expr: &ast.CallFunc{Func: &ast.Const{1}}},
	}}
	_, err := New(tempname.NewContext()).Select(m)
	if err == nil {
		t.Fatal("expected an error for a non-static callee")
	}
}
