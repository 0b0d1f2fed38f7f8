package ast

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// Node is a node of the syntax tree.
//
// This is a sealed interface - only types in this package implement it.
// Use Accept with a Visitor to dispatch on the concrete kind.
type Node interface {
	fmt.Stringer
	node() // Marker method - seals interface to this package
}

// Identifier is a bare column or table reference. A dotted reference such as
// "users.first_name" is kept whole in Name; it is never split into a path.
type Identifier struct {
	Name string
}

func (*Identifier) node() {}

// Star is the "*" projection.
type Star struct{}

func (*Star) node() {}

// StringLiteral is a quoted string. Value holds the contents between the
// quotes, verbatim.
type StringLiteral struct {
	Value string
}

func (*StringLiteral) node() {}

// IntegerLiteral is a signed integer without a fraction or exponent.
type IntegerLiteral struct {
	Value int64
}

func (*IntegerLiteral) node() {}

// RealLiteral is a number written with a decimal point or an exponent.
// Value is an exact decimal; "1.2e-3" is held as 12×10⁻⁴, never as a
// binary float.
type RealLiteral struct {
	Value *apd.Decimal
}

func (*RealLiteral) node() {}

// TruthValue is the right operand of IS / IS NOT.
type TruthValue uint8

const (
	TruthNull TruthValue = iota + 1
	TruthTrue
	TruthFalse
	TruthUnknown
)

func (v TruthValue) String() string {
	switch v {
	case TruthNull:
		return "NULL"
	case TruthTrue:
		return "TRUE"
	case TruthFalse:
		return "FALSE"
	case TruthUnknown:
		return "UNKNOWN"
	}
	return fmt.Sprintf("TruthValue(%d)", uint8(v))
}

// Truth is one of the keywords NULL, TRUE, FALSE or UNKNOWN.
type Truth struct {
	Value TruthValue
}

func (*Truth) node() {}

// ListLiteral is the parenthesised operand of IN. Values keep source order
// and may repeat.
type ListLiteral struct {
	Values []Node
}

func (*ListLiteral) node() {}

// RangeLiteral is the "x AND y" operand of BETWEEN.
type RangeLiteral struct {
	Begin Node
	End   Node
}

func (*RangeLiteral) node() {}

// UnaryOperator is a prefix operator. The only one the grammar produces is
// OpNot.
type UnaryOperator struct {
	Op      OperatorKind
	Operand Node
}

func (*UnaryOperator) node() {}

// BinaryOperator is a predicate (comparison, LIKE, IS, IN, BETWEEN) or a
// logical connective (AND, OR, XOR).
//
// For BETWEEN the RHS is a *RangeLiteral; for IN it is a *ListLiteral or a
// *SelectStatement; for IS it is a *Truth.
type BinaryOperator struct {
	Op  OperatorKind
	LHS Node
	RHS Node
}

func (*BinaryOperator) node() {}

// SelectModifier is the optional DISTINCT / ALL after SELECT.
type SelectModifier uint8

const (
	ModifierNone SelectModifier = iota
	ModifierDistinct
	ModifierAll
)

func (m SelectModifier) String() string {
	switch m {
	case ModifierDistinct:
		return "DISTINCT"
	case ModifierAll:
		return "ALL"
	}
	return ""
}

// SetOpKind combines two SELECT statements.
type SetOpKind uint8

const (
	Union SetOpKind = iota + 1
	Intersect
	Except
)

func (k SetOpKind) String() string {
	switch k {
	case Union:
		return "UNION"
	case Intersect:
		return "INTERSECT"
	case Except:
		return "EXCEPT"
	}
	return fmt.Sprintf("SetOpKind(%d)", uint8(k))
}

// SetOperation is one "UNION [ALL] SELECT ..." continuation.
type SetOperation struct {
	Op     SetOpKind
	All    bool
	Select *SelectStatement
}

// SelectStatement is the root of a parsed query, and also a sub-select when
// it appears inside a WHERE clause.
//
// Semantics:
//
//	SELECT <modifier> <columns> FROM <tables> WHERE <where> <set ops>
//
// Columns holds *Identifier and *Star nodes; Tables is empty when there is
// no FROM clause; Where is nil when there is no WHERE clause. SetOps are
// accepted by the grammar but no compiler supports them.
type SelectStatement struct {
	Modifier SelectModifier
	Columns  []Node
	Tables   []*Identifier
	Where    Node
	SetOps   []SetOperation
}

func (*SelectStatement) node() {}

// IsStar reports whether the projection contains a "*".
func (s *SelectStatement) IsStar() bool {
	for _, c := range s.Columns {
		if _, ok := c.(*Star); ok {
			return true
		}
	}
	return false
}

// TableNames returns the FROM clause names in source order.
func (s *SelectStatement) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}
