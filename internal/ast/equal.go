package ast

// Equal reports whether two trees are structurally equal. Real literals
// compare by decimal value and exponent, so 1.20 and 1.2 differ but two
// parses of the same text are always equal.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *Identifier:
		y, ok := b.(*Identifier)
		return ok && x.Name == y.Name
	case *Star:
		_, ok := b.(*Star)
		return ok
	case *StringLiteral:
		y, ok := b.(*StringLiteral)
		return ok && x.Value == y.Value
	case *IntegerLiteral:
		y, ok := b.(*IntegerLiteral)
		return ok && x.Value == y.Value
	case *RealLiteral:
		y, ok := b.(*RealLiteral)
		if !ok || x.Value == nil || y.Value == nil {
			return ok && x.Value == y.Value
		}
		return x.Value.Cmp(y.Value) == 0 && x.Value.Exponent == y.Value.Exponent
	case *Truth:
		y, ok := b.(*Truth)
		return ok && x.Value == y.Value
	case *ListLiteral:
		y, ok := b.(*ListLiteral)
		return ok && equalNodes(x.Values, y.Values)
	case *RangeLiteral:
		y, ok := b.(*RangeLiteral)
		return ok && Equal(x.Begin, y.Begin) && Equal(x.End, y.End)
	case *UnaryOperator:
		y, ok := b.(*UnaryOperator)
		return ok && x.Op == y.Op && Equal(x.Operand, y.Operand)
	case *BinaryOperator:
		y, ok := b.(*BinaryOperator)
		return ok && x.Op == y.Op && Equal(x.LHS, y.LHS) && Equal(x.RHS, y.RHS)
	case *SelectStatement:
		y, ok := b.(*SelectStatement)
		return ok && equalSelect(x, y)
	}
	return false
}

func equalSelect(x, y *SelectStatement) bool {
	if x == nil || y == nil {
		return x == y
	}
	if x.Modifier != y.Modifier || !equalNodes(x.Columns, y.Columns) {
		return false
	}
	if len(x.Tables) != len(y.Tables) || len(x.SetOps) != len(y.SetOps) {
		return false
	}
	for i := range x.Tables {
		if x.Tables[i].Name != y.Tables[i].Name {
			return false
		}
	}
	if !Equal(x.Where, y.Where) {
		return false
	}
	for i := range x.SetOps {
		a, b := x.SetOps[i], y.SetOps[i]
		if a.Op != b.Op || a.All != b.All || !equalSelect(a.Select, b.Select) {
			return false
		}
	}
	return true
}

func equalNodes(a, b []Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
