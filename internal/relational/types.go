package relational

// Expr is a boolean SQL expression.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Operand is the right-hand side of a comparison: a literal value or
// another column.
//
// This is a sealed interface - only types in this package implement it.
type Operand interface {
	operandNode()
}

// Column references a column of the selected table by its SQL name.
type Column struct {
	Name string
}

func (Column) operandNode() {}

// Literal is a bound parameter. Value is one of nil, bool, int64, string or
// *apd.Decimal.
type Literal struct {
	Value any
}

func (Literal) operandNode() {}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq    CompareOp = "="
	OpNe    CompareOp = "<>"
	OpLt    CompareOp = "<"
	OpLe    CompareOp = "<="
	OpGt    CompareOp = ">"
	OpGe    CompareOp = ">="
	OpIs    CompareOp = "IS"     // null-safe equality
	OpIsNot CompareOp = "IS NOT" // null-safe inequality
)

// Compare is "<column> <op> <operand>".
type Compare struct {
	Op     CompareOp
	Column Column
	Right  Operand
}

func (Compare) exprNode() {}

// In is "<column> [NOT] IN (<values>)". Values is never empty.
type In struct {
	Column  Column
	Values  []Operand
	Negated bool
}

func (In) exprNode() {}

// Like is "<column> [NOT] LIKE <pattern>".
type Like struct {
	Column  Column
	Pattern string
	Negated bool
}

func (Like) exprNode() {}

// IsNull is "<column> IS [NOT] NULL".
type IsNull struct {
	Column  Column
	Negated bool
}

func (IsNull) exprNode() {}

// And is the conjunction of exactly two expressions.
type And struct {
	Left, Right Expr
}

func (And) exprNode() {}

// Or is the disjunction of exactly two expressions.
type Or struct {
	Left, Right Expr
}

func (Or) exprNode() {}

// Not negates an expression.
type Not struct {
	Expr Expr
}

func (Not) exprNode() {}

// Select is a single-table query.
//
// Semantics:
//
//	SELECT [DISTINCT] <columns> FROM <from> [WHERE <filter>] [ORDER BY <order by>]
//
// Columns nil means every column. Filter nil means every row.
type Select struct {
	From     string
	Columns  []string
	Distinct bool
	Filter   Expr
	OrderBy  []string
}
