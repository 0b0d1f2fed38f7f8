package harness

import (
	"fmt"
	"strings"

	"github.com/Flushot/sqlparse/internal/document"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Field    string // expectation name, e.g. "expect_filter"
	Expected string
	Actual   string
	Query    string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "  Query: %s", e.Query)
	return buf.String()
}

// EvaluateExpectations checks out against the expectations of s and
// returns one message per failure.
func EvaluateExpectations(s *Scenario, out *Output) []string {
	var errs []string
	fail := func(field, expected, actual string) {
		errs = append(errs, (&AssertionError{
			Field:    field,
			Expected: expected,
			Actual:   actual,
			Query:    s.Query,
		}).Error())
	}

	if s.ExpectError != "" {
		if out.ErrorCode != s.ExpectError {
			fail("expect_error", s.ExpectError, describeError(out))
		}
		return errs
	}
	if out.ErrorCode != "" {
		fail("no error", "success", describeError(out))
		return errs
	}

	if s.ExpectFilter != nil && *s.ExpectFilter != out.Filter {
		fail("expect_filter", *s.ExpectFilter, out.Filter)
	}
	if s.ExpectParams != nil {
		if want, got := canonicalList(s.ExpectParams), canonicalList(out.Params); want != got {
			fail("expect_params", want, got)
		}
	}
	if s.ExpectProjection != nil {
		want := strings.Join(s.ExpectProjection, ", ")
		got := strings.Join(out.Projection, ", ")
		if want != got {
			fail("expect_projection", want, got)
		}
	}
	if s.ExpectKeys != nil {
		if want, got := canonicalList(s.ExpectKeys), canonicalList(out.Keys); want != got {
			fail("expect_keys", want, got)
		}
	}
	return errs
}

func describeError(out *Output) string {
	if out.ErrorCode == "" {
		return "no error"
	}
	return fmt.Sprintf("%s (%s)", out.ErrorCode, out.Error)
}

// canonicalList renders values as canonical JSON so that YAML ints compare
// equal to int64 and decimal text.
func canonicalList(values []any) string {
	arr := make(document.Array, len(values))
	for i, v := range values {
		n, err := normalizeValue(v)
		if err != nil {
			return fmt.Sprintf("%v", values)
		}
		dv, err := document.FromNative(n)
		if err != nil {
			return fmt.Sprintf("%v", values)
		}
		arr[i] = dv
	}
	data, err := document.MarshalCanonical(arr)
	if err != nil {
		return fmt.Sprintf("%v", values)
	}
	return string(data)
}
