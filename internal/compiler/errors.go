package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Flushot/sqlparse/internal/ast"
	"github.com/Flushot/sqlparse/internal/parser"
	"github.com/Flushot/sqlparse/internal/schema"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedOperator indicates an operator or node kind the
	// target has no mapping for.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeUnmappedProperty indicates an identifier that is not a
	// queryable field of the target model.
	ErrCodeUnmappedProperty ErrorCode = "UNMAPPED_PROPERTY"

	// ErrCodeInvalidLeftOperand indicates a comparison whose left side is
	// not a bare field name.
	ErrCodeInvalidLeftOperand ErrorCode = "INVALID_LEFT_OPERAND"

	// ErrCodeMultiTable indicates a FROM clause naming more than one table.
	ErrCodeMultiTable ErrorCode = "UNSUPPORTED_MULTI_TABLE_QUERY"

	// ErrCodeMissingTable indicates a statement without a FROM clause.
	ErrCodeMissingTable ErrorCode = "MISSING_TABLE"

	// ErrCodeQueryTooComplex indicates nesting deeper than the guard allows.
	ErrCodeQueryTooComplex ErrorCode = "QUERY_TOO_COMPLEX"

	// Codes for errors raised outside the compilers, used by CodeOf.
	ErrCodeSyntax        ErrorCode = "SYNTAX_ERROR"
	ErrCodeUnknownModel  ErrorCode = "UNKNOWN_MODEL"
	ErrCodeInvalidSchema ErrorCode = "INVALID_SCHEMA"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// CompileError is returned by the target compilers. Node is the AST node
// that triggered the error, when there is one.
type CompileError struct {
	Code    ErrorCode
	Message string
	Node    ast.Node
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Node != nil {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsUnsupportedOperator returns true if err is an UNSUPPORTED_OPERATOR error.
func IsUnsupportedOperator(err error) bool { return hasCode(err, ErrCodeUnsupportedOperator) }

// IsUnmappedProperty returns true if err is an UNMAPPED_PROPERTY error.
func IsUnmappedProperty(err error) bool { return hasCode(err, ErrCodeUnmappedProperty) }

// IsInvalidLeftOperand returns true if err is an INVALID_LEFT_OPERAND error.
func IsInvalidLeftOperand(err error) bool { return hasCode(err, ErrCodeInvalidLeftOperand) }

// IsMultiTable returns true if err is an UNSUPPORTED_MULTI_TABLE_QUERY error.
func IsMultiTable(err error) bool { return hasCode(err, ErrCodeMultiTable) }

// IsMissingTable returns true if err is a MISSING_TABLE error.
func IsMissingTable(err error) bool { return hasCode(err, ErrCodeMissingTable) }

// IsQueryTooComplex returns true if err is a QUERY_TOO_COMPLEX error.
func IsQueryTooComplex(err error) bool { return hasCode(err, ErrCodeQueryTooComplex) }

// NewUnsupportedOperator reports that the target cannot express what.
func NewUnsupportedOperator(what string, n ast.Node) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnsupportedOperator,
		Message: fmt.Sprintf("unsupported operator: %s", what),
		Node:    n,
	}
}

// NewUnmappedProperty reports a field that does not resolve on model.
func NewUnmappedProperty(model, field string, n ast.Node) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnmappedProperty,
		Message: fmt.Sprintf("%q is not a queryable property of %s", field, model),
		Node:    n,
	}
}

// NewInvalidLeftOperand reports a comparison whose left side is not a field.
func NewInvalidLeftOperand(n ast.Node) *CompileError {
	return &CompileError{
		Code:    ErrCodeInvalidLeftOperand,
		Message: "left operand must be a field name",
		Node:    n,
	}
}

// NewMultiTable reports a FROM clause with more than one table.
func NewMultiTable(tables []string) *CompileError {
	return &CompileError{
		Code:    ErrCodeMultiTable,
		Message: fmt.Sprintf("query must select from exactly one table, got %s", strings.Join(tables, ", ")),
	}
}

// NewMissingTable reports a statement without FROM.
func NewMissingTable() *CompileError {
	return &CompileError{
		Code:    ErrCodeMissingTable,
		Message: "query has no FROM clause",
	}
}

// NewQueryTooComplex reports nesting beyond limit.
func NewQueryTooComplex(limit int, n ast.Node) *CompileError {
	return &CompileError{
		Code:    ErrCodeQueryTooComplex,
		Message: fmt.Sprintf("expression nesting exceeds depth %d", limit),
		Node:    n,
	}
}

// CodeOf classifies any error returned while parsing or compiling a query.
// Parser depth errors share QUERY_TOO_COMPLEX with the compiler guard. It
// returns "" for a nil error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var se *schema.SchemaError
	switch {
	case parser.IsSyntaxError(err):
		return ErrCodeSyntax
	case parser.IsDepthError(err):
		return ErrCodeQueryTooComplex
	case errors.Is(err, schema.ErrModelNotFound):
		return ErrCodeUnknownModel
	case errors.As(err, &se):
		return ErrCodeInvalidSchema
	}
	return ErrCodeInternal
}
