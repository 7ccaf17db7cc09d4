package frontend

import (
	"strings"
	"testing"

	"tinypy.dev/x86backend/pkg/ast"
	"tinypy.dev/x86backend/pkg/tempname"
)

func parseSource(t *testing.T, src string) *ast.Module {
	t.Helper()
	m, err := NewSourceParser(strings.NewReader(src), tempname.NewContext()).Parse()
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return m
}

func TestParsePrintAddLiteral(t *testing.T) {
	m := parseSource(t, "print 1 + 2\n")
	if len(m.Stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(m.Stmts))
	}
	pr, ok := m.Stmts[0].(*ast.Printnl)
	if !ok {
		t.Fatalf("expected *ast.Printnl, got %T", m.Stmts[0])
	}
	add, ok := pr.Expr.(*ast.Add)
	if !ok {
		t.Fatalf("expected *ast.Add, got %T", pr.Expr)
	}
	if add.Left.(*ast.Const).Value != 1 || add.Right.(*ast.Const).Value != 2 {
		t.Errorf("unexpected operands: %+v", add)
	}
}

func TestParseAssignAndName(t *testing.T) {
	m := parseSource(t, "x = 5\nprint x\n")
	assign, ok := m.Stmts[0].(*ast.Assign)
	if !ok {
		t.Fatalf("expected *ast.Assign, got %T", m.Stmts[0])
	}
	if len(assign.Names) != 1 || assign.Names[0] != "x" {
		t.Errorf("unexpected assign target: %+v", assign.Names)
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := "if x == 1:\n    print 1\nelif x == 2:\n    print 2\nelse:\n    print 3\n"
	m := parseSource(t, src)
	outer, ok := m.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected *ast.IfStmt, got %T", m.Stmts[0])
	}
	if _, ok := outer.Test.(*ast.Eq); !ok {
		t.Fatalf("outer test should be Eq, got %T", outer.Test)
	}
	if len(outer.Else) != 1 {
		t.Fatalf("expected the elif to fold into a single nested IfStmt, got %d stmts", len(outer.Else))
	}
	inner, ok := outer.Else[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected nested *ast.IfStmt for elif, got %T", outer.Else[0])
	}
	if len(inner.Else) != 1 {
		t.Fatalf("expected the trailing else body to land on the innermost IfStmt, got %d stmts", len(inner.Else))
	}
}

func TestParseIfWithoutElseHasEmptyElse(t *testing.T) {
	m := parseSource(t, "if x == 1:\n    print 1\n")
	ifs := m.Stmts[0].(*ast.IfStmt)
	if len(ifs.Else) != 0 {
		t.Errorf("expected no else branch, got %d stmts", len(ifs.Else))
	}
}

func TestParseAndDesugarsToLetIfExp(t *testing.T) {
	m := parseSource(t, "print x and y\n")
	pr := m.Stmts[0].(*ast.Printnl)
	let, ok := pr.Expr.(*ast.Let)
	if !ok {
		t.Fatalf("expected `and` to desugar to *ast.Let, got %T", pr.Expr)
	}
	ifExp, ok := let.Body.(*ast.IfExp)
	if !ok {
		t.Fatalf("expected Let body to be *ast.IfExp, got %T", let.Body)
	}
	if name, ok := ifExp.Test.(*ast.Name); !ok || name.Ident != let.Var {
		t.Errorf("IfExp test should reference the bound name %q, got %+v", let.Var, ifExp.Test)
	}
}

func TestParseOrDesugarsToLetIfExp(t *testing.T) {
	m := parseSource(t, "print x or y\n")
	pr := m.Stmts[0].(*ast.Printnl)
	let, ok := pr.Expr.(*ast.Let)
	if !ok {
		t.Fatalf("expected `or` to desugar to *ast.Let, got %T", pr.Expr)
	}
	ifExp := let.Body.(*ast.IfExp)
	if _, ok := ifExp.Then.(*ast.Name); !ok {
		t.Errorf("`or`'s Then branch should short-circuit to the bound left value")
	}
}

func TestParseNotDesugarsToPlainIntLiterals(t *testing.T) {
	m := parseSource(t, "print not x\n")
	pr := m.Stmts[0].(*ast.Printnl)
	ifExp, ok := pr.Expr.(*ast.IfExp)
	if !ok {
		t.Fatalf("expected `not` to desugar to *ast.IfExp, got %T", pr.Expr)
	}
	if c, ok := ifExp.Then.(*ast.Const); !ok || c.Value != 0 {
		t.Errorf("`not`'s Then branch should be Const(0), got %+v", ifExp.Then)
	}
	if c, ok := ifExp.Else.(*ast.Const); !ok || c.Value != 1 {
		t.Errorf("`not`'s Else branch should be Const(1), got %+v", ifExp.Else)
	}
}

func TestParseIsComparison(t *testing.T) {
	m := parseSource(t, "print x is None\n")
	pr := m.Stmts[0].(*ast.Printnl)
	is, ok := pr.Expr.(*ast.Is)
	if !ok {
		t.Fatalf("expected *ast.Is, got %T", pr.Expr)
	}
	if _, ok := is.Right.(*ast.NoneConst); !ok {
		t.Errorf("expected right operand *ast.NoneConst, got %T", is.Right)
	}
}

func TestParseListLiteralDesugarsToLetAndSetSubscript(t *testing.T) {
	m := parseSource(t, "x = [1, 2]\n")
	assign := m.Stmts[0].(*ast.Assign)
	let, ok := assign.Rhs.(*ast.Let)
	if !ok {
		t.Fatalf("expected list literal to desugar to *ast.Let, got %T", assign.Rhs)
	}
	call, ok := let.Rhs.(*ast.CallFunc)
	if !ok || call.Func.(*ast.Name).Ident != "create_list" {
		t.Fatalf("expected Let.Rhs to call create_list, got %+v", let.Rhs)
	}
	seq, ok := let.Body.(*ast.Seq)
	if !ok {
		t.Fatalf("expected Let.Body to be a Seq chain, got %T", let.Body)
	}
	first := seq.Left.(*ast.CallFunc)
	if first.Func.(*ast.Name).Ident != "set_subscript" {
		t.Errorf("expected first chained call to be set_subscript, got %+v", first.Func)
	}
}

func TestParseSubscriptReadUsesGetSubscript(t *testing.T) {
	m := parseSource(t, "print x[0]\n")
	pr := m.Stmts[0].(*ast.Printnl)
	call, ok := pr.Expr.(*ast.CallFunc)
	if !ok || call.Func.(*ast.Name).Ident != "get_subscript" {
		t.Fatalf("expected get_subscript call, got %+v", pr.Expr)
	}
}

func TestParseSubscriptAssignUsesSetSubscript(t *testing.T) {
	m := parseSource(t, "x[0] = 1\n")
	discard, ok := m.Stmts[0].(*ast.Discard)
	if !ok {
		t.Fatalf("expected *ast.Discard, got %T", m.Stmts[0])
	}
	call, ok := discard.Expr.(*ast.CallFunc)
	if !ok || call.Func.(*ast.Name).Ident != "set_subscript" {
		t.Fatalf("expected set_subscript call, got %+v", discard.Expr)
	}
}

func TestParseInputCallStaysAnOrdinaryCallFunc(t *testing.T) {
	m := parseSource(t, "x = input()\n")
	assign := m.Stmts[0].(*ast.Assign)
	call, ok := assign.Rhs.(*ast.CallFunc)
	if !ok || call.Func.(*ast.Name).Ident != "input" {
		t.Fatalf("expected input() call, got %+v", assign.Rhs)
	}
}

func TestParseWhileIsRejected(t *testing.T) {
	_, err := NewSourceParser(strings.NewReader("while x:\n    print x\n"), tempname.NewContext()).Parse()
	if err == nil {
		t.Fatal("expected while loops to be rejected")
	}
}

func TestParseBoolAndNoneLiterals(t *testing.T) {
	m := parseSource(t, "print True\nprint False\nprint None\n")
	want := []struct {
		check func(ast.Expr) bool
	}{
		{func(e ast.Expr) bool { b, ok := e.(*ast.BoolConst); return ok && b.Value }},
		{func(e ast.Expr) bool { b, ok := e.(*ast.BoolConst); return ok && !b.Value }},
		{func(e ast.Expr) bool { _, ok := e.(*ast.NoneConst); return ok }},
	}
	for i, w := range want {
		pr := m.Stmts[i].(*ast.Printnl)
		if !w.check(pr.Expr) {
			t.Errorf("statement %d: unexpected literal %+v", i, pr.Expr)
		}
	}
}

func TestLexerRejectsInconsistentIndentation(t *testing.T) {
	_, err := NewLexer("if x == 1:\n   print 1\n  print 2\n").Lex()
	if err == nil {
		t.Fatal("expected an indentation error")
	}
}
