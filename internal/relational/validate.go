package relational

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError lists every structural problem found in a Select.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid relational query: " + strings.Join(e.Problems, "; ")
}

// IsValidationError returns true if err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the invariants Render relies on: a table name, non-empty
// column names, no nil sub-expressions and non-empty IN lists.
//
// Validate is a pure function with no side effects.
func Validate(sel *Select) error {
	v := &validator{}
	if sel == nil {
		v.addProblem("nil select")
		return v.result()
	}
	if sel.From == "" {
		v.addProblem("missing table name")
	}
	for i, c := range sel.Columns {
		if c == "" {
			v.addProblem("empty column name at position %d", i)
		}
	}
	if sel.Filter != nil {
		v.validateExpr(sel.Filter)
	}
	return v.result()
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) result() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

func (v *validator) validateExpr(e Expr) {
	switch e := e.(type) {
	case nil:
		v.addProblem("nil expression")
	case Compare:
		v.validateColumn(e.Column)
		v.validateOperand(e.Right)
	case *Compare:
		v.validateExpr(*e)
	case In:
		v.validateColumn(e.Column)
		if len(e.Values) == 0 {
			v.addProblem("empty IN list on %s", e.Column.Name)
		}
		for _, o := range e.Values {
			v.validateOperand(o)
		}
	case *In:
		v.validateExpr(*e)
	case Like:
		v.validateColumn(e.Column)
	case *Like:
		v.validateExpr(*e)
	case IsNull:
		v.validateColumn(e.Column)
	case *IsNull:
		v.validateExpr(*e)
	case And:
		v.validateExpr(e.Left)
		v.validateExpr(e.Right)
	case *And:
		v.validateExpr(*e)
	case Or:
		v.validateExpr(e.Left)
		v.validateExpr(e.Right)
	case *Or:
		v.validateExpr(*e)
	case Not:
		v.validateExpr(e.Expr)
	case *Not:
		v.validateExpr(*e)
	}
}

func (v *validator) validateColumn(c Column) {
	if c.Name == "" {
		v.addProblem("empty column reference")
	}
}

func (v *validator) validateOperand(o Operand) {
	switch o := o.(type) {
	case nil:
		v.addProblem("nil operand")
	case Column:
		v.validateColumn(o)
	case *Column:
		v.validateColumn(*o)
	}
}
