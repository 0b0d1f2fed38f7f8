package ast

import (
	"strconv"
	"strings"
)

func (n *Identifier) String() string { return n.Name }

func (*Star) String() string { return "*" }

// String quotes the value with double quotes, or single quotes when the
// value itself contains a double quote.
func (n *StringLiteral) String() string {
	if strings.Contains(n.Value, `"`) {
		return "'" + n.Value + "'"
	}
	return `"` + n.Value + `"`
}

func (n *IntegerLiteral) String() string {
	return strconv.FormatInt(n.Value, 10)
}

// String keeps the value recognisable as a real: a decimal whose plain form
// has neither a point nor an exponent gets an explicit "E+0".
func (n *RealLiteral) String() string {
	if n.Value == nil {
		return "0.0"
	}
	s := n.Value.String()
	if !strings.ContainsAny(s, ".Ee") {
		s += "E+0"
	}
	return s
}

func (n *Truth) String() string { return n.Value.String() }

func (n *ListLiteral) String() string {
	parts := make([]string, len(n.Values))
	for i, v := range n.Values {
		parts[i] = operandString(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (n *RangeLiteral) String() string {
	return operandString(n.Begin) + " AND " + operandString(n.End)
}

func (n *UnaryOperator) String() string {
	return n.Op.String() + " " + conditionString(n.Operand)
}

func (n *BinaryOperator) String() string {
	if n.Op.IsLogical() {
		// Chains are right-leaning, so only a logical LHS needs grouping.
		return conditionString(n.LHS) + " " + n.Op.String() + " " + nodeString(n.RHS)
	}
	return nodeString(n.LHS) + " " + n.Op.String() + " " + operandString(n.RHS)
}

func (n *SelectStatement) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if n.Modifier != ModifierNone {
		b.WriteString(n.Modifier.String())
		b.WriteByte(' ')
	}
	for i, c := range n.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(nodeString(c))
	}
	if len(n.Tables) > 0 {
		b.WriteString(" FROM ")
		for i, t := range n.Tables {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(t.Name)
		}
		if n.Where != nil {
			b.WriteString(" WHERE ")
			b.WriteString(n.Where.String())
		}
	}
	for _, op := range n.SetOps {
		b.WriteByte(' ')
		b.WriteString(op.Op.String())
		if op.All {
			b.WriteString(" ALL")
		}
		b.WriteByte(' ')
		if op.Select != nil {
			b.WriteString(op.Select.String())
		}
	}
	return b.String()
}

// conditionString renders a node that stands where the grammar expects a
// single condition, grouping logical chains in parentheses.
func conditionString(n Node) string {
	if b, ok := n.(*BinaryOperator); ok && b.Op.IsLogical() {
		return "(" + b.String() + ")"
	}
	return nodeString(n)
}

// operandString renders a value operand; sub-selects are parenthesised.
func operandString(n Node) string {
	if s, ok := n.(*SelectStatement); ok {
		return "(" + s.String() + ")"
	}
	return nodeString(n)
}

func nodeString(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}
