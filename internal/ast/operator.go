package ast

import "fmt"

// OperatorKind is the closed set of operators a query can contain.
type OperatorKind uint8

const (
	OpEq OperatorKind = iota + 1
	OpNullSafeEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLike
	OpNotLike
	OpIs
	OpIsNot
	OpBetween
	OpNotBetween
	OpIn
	OpNotIn
	OpAnd
	OpOr
	OpXor
	OpNot
)

var operatorText = map[OperatorKind]string{
	OpEq:         "=",
	OpNullSafeEq: "<=>",
	OpNe:         "!=",
	OpLt:         "<",
	OpLe:         "<=",
	OpGt:         ">",
	OpGe:         ">=",
	OpLike:       "LIKE",
	OpNotLike:    "NOT LIKE",
	OpIs:         "IS",
	OpIsNot:      "IS NOT",
	OpBetween:    "BETWEEN",
	OpNotBetween: "NOT BETWEEN",
	OpIn:         "IN",
	OpNotIn:      "NOT IN",
	OpAnd:        "AND",
	OpOr:         "OR",
	OpXor:        "XOR",
	OpNot:        "NOT",
}

// String returns the operator as written in canonical query text.
func (k OperatorKind) String() string {
	if s, ok := operatorText[k]; ok {
		return s
	}
	return fmt.Sprintf("OperatorKind(%d)", uint8(k))
}

// IsLogical reports whether k joins two boolean expressions.
func (k OperatorKind) IsLogical() bool {
	return k == OpAnd || k == OpOr || k == OpXor
}

// IsComparison reports whether k compares a column with a single value.
func (k OperatorKind) IsComparison() bool {
	switch k {
	case OpEq, OpNullSafeEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Negated maps a positive predicate operator to its NOT form and back.
// The boolean result is false for operators without a paired form.
func (k OperatorKind) Negated() (OperatorKind, bool) {
	switch k {
	case OpLike:
		return OpNotLike, true
	case OpNotLike:
		return OpLike, true
	case OpIs:
		return OpIsNot, true
	case OpIsNot:
		return OpIs, true
	case OpBetween:
		return OpNotBetween, true
	case OpNotBetween:
		return OpBetween, true
	case OpIn:
		return OpNotIn, true
	case OpNotIn:
		return OpIn, true
	}
	return k, false
}

// ComparisonOperators maps comparison symbols to operator kinds. "<>" is an
// alias of "!=".
var ComparisonOperators = map[string]OperatorKind{
	"<=>": OpNullSafeEq,
	"<=":  OpLe,
	">=":  OpGe,
	"!=":  OpNe,
	"<>":  OpNe,
	"=":   OpEq,
	"<":   OpLt,
	">":   OpGt,
}
