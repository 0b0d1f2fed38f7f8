package parser

import (
	"errors"
	"fmt"
)

// SyntaxError reports the first place where the input stops matching the
// grammar. Line and Col are 1-based and point at the start of the
// unconsumed remainder, i.e. directly after the last token that parsed.
type SyntaxError struct {
	Line     int
	Col      int
	Offset   int
	Expected string // what the grammar wanted, e.g. "end of input"
	Found    string // what was there instead
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: expected %s, found %s",
		e.Line, e.Col, e.Expected, e.Found)
}

// DepthError is returned when nesting of parentheses, NOT and logical
// chains exceeds the configured depth limit.
type DepthError struct {
	Limit int
	Line  int
	Col   int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("query too complex: nesting exceeds depth %d at line %d, column %d",
		e.Limit, e.Line, e.Col)
}

// IsSyntaxError returns true if err is or wraps a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

// IsDepthError returns true if err is or wraps a *DepthError.
func IsDepthError(err error) bool {
	var de *DepthError
	return errors.As(err, &de)
}
