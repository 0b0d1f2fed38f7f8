package ast

import "fmt"

// Visitor handles every node kind. T is the value a compiler produces for a
// node (a relational expression, a document value, ...).
//
// Each method receives its concrete node; the visitor decides whether and
// how to descend into children, normally by calling Accept again.
type Visitor[T any] interface {
	VisitIdentifier(n *Identifier) (T, error)
	VisitStar(n *Star) (T, error)
	VisitString(n *StringLiteral) (T, error)
	VisitInteger(n *IntegerLiteral) (T, error)
	VisitReal(n *RealLiteral) (T, error)
	VisitTruth(n *Truth) (T, error)
	VisitList(n *ListLiteral) (T, error)
	VisitRange(n *RangeLiteral) (T, error)
	VisitUnary(n *UnaryOperator) (T, error)
	VisitBinary(n *BinaryOperator) (T, error)
	VisitSelect(n *SelectStatement) (T, error)
}

// Accept dispatches n to the Visitor method for its kind.
func Accept[T any](n Node, v Visitor[T]) (T, error) {
	switch n := n.(type) {
	case *Identifier:
		return v.VisitIdentifier(n)
	case *Star:
		return v.VisitStar(n)
	case *StringLiteral:
		return v.VisitString(n)
	case *IntegerLiteral:
		return v.VisitInteger(n)
	case *RealLiteral:
		return v.VisitReal(n)
	case *Truth:
		return v.VisitTruth(n)
	case *ListLiteral:
		return v.VisitList(n)
	case *RangeLiteral:
		return v.VisitRange(n)
	case *UnaryOperator:
		return v.VisitUnary(n)
	case *BinaryOperator:
		return v.VisitBinary(n)
	case *SelectStatement:
		return v.VisitSelect(n)
	}
	var zero T
	// Only a nil node reaches here; the interface is sealed.
	return zero, fmt.Errorf("cannot visit %T", n)
}

// Inspect traverses the tree rooted at n depth-first, parents before
// children, left to right. If fn returns false the children of that node are
// skipped.
func Inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch n := n.(type) {
	case *ListLiteral:
		for _, v := range n.Values {
			Inspect(v, fn)
		}
	case *RangeLiteral:
		Inspect(n.Begin, fn)
		Inspect(n.End, fn)
	case *UnaryOperator:
		Inspect(n.Operand, fn)
	case *BinaryOperator:
		Inspect(n.LHS, fn)
		Inspect(n.RHS, fn)
	case *SelectStatement:
		for _, c := range n.Columns {
			Inspect(c, fn)
		}
		for _, t := range n.Tables {
			Inspect(t, fn)
		}
		Inspect(n.Where, fn)
		for _, op := range n.SetOps {
			Inspect(op.Select, fn)
		}
	}
}

// Depth returns the height of the tree rooted at n; a leaf has depth 1.
func Depth(n Node) int {
	if n == nil {
		return 0
	}
	deepest := 0
	child := func(c Node) {
		if d := Depth(c); d > deepest {
			deepest = d
		}
	}
	switch n := n.(type) {
	case *ListLiteral:
		for _, v := range n.Values {
			child(v)
		}
	case *RangeLiteral:
		child(n.Begin)
		child(n.End)
	case *UnaryOperator:
		child(n.Operand)
	case *BinaryOperator:
		child(n.LHS)
		child(n.RHS)
	case *SelectStatement:
		child(n.Where)
		for _, op := range n.SetOps {
			child(op.Select)
		}
	}
	return deepest + 1
}
