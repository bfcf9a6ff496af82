package compiler

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for the telescope language
// ---------------------------------------------------------------------------
//
// The tree is the input contract of the compiler: it is produced by the
// parser (or any other frontend), consumed read-only, and never retained
// past compilation. Numeric literals carry their raw text; conversion is
// the compiler's job.

// Expr is the interface implemented by all AST nodes.
type Expr interface {
	expr() // marker method
}

// IntLit represents an integer literal.
type IntLit struct {
	Text string
}

func (n *IntLit) expr() {}

// FloatLit represents a floating-point literal.
type FloatLit struct {
	Text string
}

func (n *FloatLit) expr() {}

// BoolLit represents a boolean literal.
type BoolLit struct {
	Value bool
}

func (n *BoolLit) expr() {}

// Ident represents a variable reference.
type Ident struct {
	Name string
}

func (n *Ident) expr() {}

// Lambda represents a lambda abstraction with one or more parameters.
// Multi-parameter lambdas are curried by the compiler into nested
// single-argument closures.
type Lambda struct {
	Params []string
	Body   Expr
}

func (n *Lambda) expr() {}

// BuiltinOp identifies one of the two-operand builtin operators.
type BuiltinOp int

const (
	BuiltinSum BuiltinOp = iota
	BuiltinSub
	BuiltinLessThan
)

// String returns the surface name of the operator.
func (op BuiltinOp) String() string {
	switch op {
	case BuiltinSum:
		return "#builtin_+"
	case BuiltinSub:
		return "#builtin_-"
	case BuiltinLessThan:
		return "#builtin_<"
	default:
		return "#builtin_?"
	}
}

// BuiltinApply represents a builtin operator applied to two operands.
type BuiltinApply struct {
	Op    BuiltinOp
	Left  Expr
	Right Expr
}

func (n *BuiltinApply) expr() {}

// Apply represents a function applied to one or more arguments.
type Apply struct {
	Fn   Expr
	Args []Expr
}

func (n *Apply) expr() {}

// Fix represents the fixpoint form: Body must evaluate to a one-argument
// closure receiving the recursive self-reference.
type Fix struct {
	Body Expr
}

func (n *Fix) expr() {}

// If represents a conditional expression.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (n *If) expr() {}
