// Package ast defines the node catalog consumed by the back-end pipeline:
// the desugared (pre-explicate) tree produced by the external parser and
// desugaring pre-pass, and the tag-aware (post-explicate) tree produced by
// pkg/explicate. Both stages share the same node set; GetTag/Box/UnBox only
// ever appear once pkg/explicate has run.
//
// Every statement and expression implements a small unexported marker
// method (stmtNode/exprNode). That gives each pass a tagged sum it can
// switch over exhaustively: only types declared in this package can satisfy
// Stmt/Expr, so a `default:` case in a type switch is reachable only by a
// genuine programming mistake, not by a caller's own type.
package ast

// Module is the top-level compilation unit: Module(Stmt([...])).
type Module struct {
	Stmts []Stmt
}

// Stmt is the sum of all statement variants.
type Stmt interface{ stmtNode() }

// Expr is the sum of all expression variants.
type Expr interface{ exprNode() }

// ----------------------------------------------------------------------------
// Statements

// Assign binds the value of Rhs to every name in Names, left to right. Before
// flattening (pkg/flatten) Names may hold more than one target (mirroring
// Python multi-assignment, e.g. `a = b = 1`); after flattening it always
// holds exactly one.
type Assign struct {
	Names []string
	Rhs   Expr
}

// Discard evaluates Expr purely for its side effect; its value is dropped.
type Discard struct {
	Expr Expr
}

// Printnl prints the value of Expr followed by a newline.
type Printnl struct {
	Expr Expr
}

// IfStmt is the only block-structured control-flow form surviving
// desugaring: every `if/elif/else` chain folds into nested IfStmt nodes.
type IfStmt struct {
	Test Expr
	Then []Stmt
	Else []Stmt
}

func (*Assign) stmtNode()  {}
func (*Discard) stmtNode() {}
func (*Printnl) stmtNode() {}
func (*IfStmt) stmtNode()  {}

// ----------------------------------------------------------------------------
// Expressions — atoms

// Const is a leaf literal signed 32-bit integer constant.
type Const struct {
	Value int32
}

// BoolConst is a leaf `True`/`False` literal. It is distinct from Const so
// that explicate can box it as BoxBool rather than BoxInt; it never
// survives past explicate (spec §8 invariant 1: no Const(bool) leaves in
// the explicated tree).
type BoolConst struct {
	Value bool
}

// NoneConst is the leaf `None` literal, boxed by explicate as BoxBig over
// the null word (spec §4.1: `Const(None)` → `Box(big, Const(0))`).
type NoneConst struct{}

// Name is a leaf symbolic reference, unique within the compilation unit.
type Name struct {
	Ident string
}

func (*Const) exprNode()     {}
func (*BoolConst) exprNode() {}
func (*NoneConst) exprNode() {}
func (*Name) exprNode()      {}

// IsAtom reports whether e is a leaf operand (Const or Name) as required by
// the flatten pass's atomicity invariant.
func IsAtom(e Expr) bool {
	switch e.(type) {
	case *Const, *Name:
		return true
	default:
		return false
	}
}

// ----------------------------------------------------------------------------
// Expressions — operators

// Add is left + right. After flattening its destination operand (Right)
// always coincides with the assignment target, mapping directly onto the
// x86 two-operand `addl src, dst` instruction.
type Add struct {
	Left, Right Expr
}

// UnarySub is -Expr.
type UnarySub struct {
	Expr Expr
}

// CallFunc calls Func (a builtin name, or post-flatten an atom bound to one)
// with Args.
type CallFunc struct {
	Func Expr
	Args []Expr
}

// Eq is left == right (value equality, dispatched on tag by explicate).
type Eq struct{ Left, Right Expr }

// NEq is left != right.
type NEq struct{ Left, Right Expr }

// Is is left is right (raw pointer/word equality).
type Is struct{ Left, Right Expr }

// Seq evaluates Left for effect and yields the value of Right. Used
// internally by desugaring's list/dict literal construction.
type Seq struct{ Left, Right Expr }

func (*Add) exprNode()      {}
func (*UnarySub) exprNode() {}
func (*CallFunc) exprNode() {}
func (*Eq) exprNode()       {}
func (*NEq) exprNode()      {}
func (*Is) exprNode()       {}
func (*Seq) exprNode()      {}

// Let binds the value of Rhs to Var for the evaluation of Body.
type Let struct {
	Var  string
	Rhs  Expr
	Body Expr
}

// IfExp is the expression-level conditional: evaluates Test, then Then or
// Else depending on its truth.
type IfExp struct {
	Test, Then, Else Expr
}

func (*Let) exprNode()   {}
func (*IfExp) exprNode() {}

// ----------------------------------------------------------------------------
// Expressions — tag manipulation (post-explicate only)

// GetTag extracts the 2-bit type tag from the tagged word produced by Arg.
type GetTag struct {
	Arg Expr
}

// BoxKind names the representation a Box wraps a raw value as.
type BoxKind string

const (
	BoxInt  BoxKind = "int"
	BoxBool BoxKind = "bool"
	BoxBig  BoxKind = "big"
)

// Box tags a raw (untagged) word as the given Kind.
type Box struct {
	Kind BoxKind
	Arg  Expr
}

// UnboxKind names how a tagged word is stripped back to a raw value.
type UnboxKind string

const (
	UnboxSmall UnboxKind = "small"
	UnboxBig   UnboxKind = "big"
)

// UnBox strips the tag bits from a tagged word produced by Arg, per Kind.
type UnBox struct {
	Kind UnboxKind
	Arg  Expr
}

func (*GetTag) exprNode() {}
func (*Box) exprNode()    {}
func (*UnBox) exprNode()  {}
