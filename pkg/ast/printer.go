package ast

import (
	"fmt"
	"strings"
)

// Dump renders m as a parenthesized, Lisp-ish tree, used by the compiler's
// --debug flag to show the AST before and after each pass.
func (m *Module) Dump() string {
	var b strings.Builder
	for _, s := range m.Stmts {
		b.WriteString(dumpStmt(s, 0))
		b.WriteByte('\n')
	}
	return b.String()
}

func indent(depth int) string { return strings.Repeat("  ", depth) }

func dumpStmt(s Stmt, depth int) string {
	pad := indent(depth)
	switch n := s.(type) {
	case *Assign:
		return fmt.Sprintf("%sAssign(%v, %s)", pad, n.Names, dumpExpr(n.Rhs))
	case *Discard:
		return fmt.Sprintf("%sDiscard(%s)", pad, dumpExpr(n.Expr))
	case *Printnl:
		return fmt.Sprintf("%sPrintnl(%s)", pad, dumpExpr(n.Expr))
	case *IfStmt:
		var b strings.Builder
		fmt.Fprintf(&b, "%sIfStmt(%s)\n", pad, dumpExpr(n.Test))
		fmt.Fprintf(&b, "%sthen:\n", pad)
		for _, st := range n.Then {
			b.WriteString(dumpStmt(st, depth+1))
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%selse:\n", pad)
		for _, st := range n.Else {
			b.WriteString(dumpStmt(st, depth+1))
			b.WriteByte('\n')
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		return fmt.Sprintf("%s<unknown stmt %T>", pad, s)
	}
}

func dumpExpr(e Expr) string {
	switch n := e.(type) {
	case *Const:
		return fmt.Sprintf("Const(%d)", n.Value)
	case *BoolConst:
		return fmt.Sprintf("Const(%t)", n.Value)
	case *NoneConst:
		return "Const(None)"
	case *Name:
		return fmt.Sprintf("Name(%s)", n.Ident)
	case *Add:
		return fmt.Sprintf("Add(%s, %s)", dumpExpr(n.Left), dumpExpr(n.Right))
	case *UnarySub:
		return fmt.Sprintf("UnarySub(%s)", dumpExpr(n.Expr))
	case *CallFunc:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = dumpExpr(a)
		}
		return fmt.Sprintf("Call(%s, [%s])", dumpExpr(n.Func), strings.Join(args, ", "))
	case *Eq:
		return fmt.Sprintf("Eq(%s, %s)", dumpExpr(n.Left), dumpExpr(n.Right))
	case *NEq:
		return fmt.Sprintf("NEq(%s, %s)", dumpExpr(n.Left), dumpExpr(n.Right))
	case *Is:
		return fmt.Sprintf("Is(%s, %s)", dumpExpr(n.Left), dumpExpr(n.Right))
	case *Seq:
		return fmt.Sprintf("Seq(%s, %s)", dumpExpr(n.Left), dumpExpr(n.Right))
	case *Let:
		return fmt.Sprintf("Let(%s, %s, %s)", n.Var, dumpExpr(n.Rhs), dumpExpr(n.Body))
	case *IfExp:
		return fmt.Sprintf("IfExp(%s, %s, %s)", dumpExpr(n.Test), dumpExpr(n.Then), dumpExpr(n.Else))
	case *GetTag:
		return fmt.Sprintf("GetTag(%s)", dumpExpr(n.Arg))
	case *Box:
		return fmt.Sprintf("Box(%s, %s)", n.Kind, dumpExpr(n.Arg))
	case *UnBox:
		return fmt.Sprintf("UnBox(%s, %s)", n.Kind, dumpExpr(n.Arg))
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}
