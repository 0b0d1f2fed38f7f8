package docstore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/Flushot/sqlparse/internal/document"
	"github.com/Flushot/sqlparse/internal/querydoc"
)

// Matcher reports whether a document satisfies a filter.
type Matcher func(doc document.Object) bool

// Compile validates filter and returns its matcher. An empty filter
// matches every document.
//
// Equality is type-strict except between numbers: Int 1 equals Decimal 1.0
// but never Bool true. A missing field compares as null.
func Compile(filter document.Object) (Matcher, error) {
	var parts []Matcher
	for _, key := range filter.SortedKeys() {
		m, err := compileEntry(key, filter[key])
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	return allOf(parts), nil
}

func compileEntry(key string, value document.Value) (Matcher, error) {
	switch key {
	case querydoc.OpAnd, querydoc.OpOr, querydoc.OpNor:
		return compileLogical(key, value)
	}
	if strings.HasPrefix(key, "$") {
		return nil, fmt.Errorf("unknown top-level operator %s", key)
	}
	return compileField(key, value)
}

func compileLogical(op string, value document.Value) (Matcher, error) {
	list, ok := value.(document.Array)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("%s needs a non-empty array", op)
	}
	subs := make([]Matcher, len(list))
	for i, item := range list {
		obj, ok := item.(document.Object)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: expected an object, got %T", op, i, item)
		}
		m, err := Compile(obj)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", op, i, err)
		}
		subs[i] = m
	}

	switch op {
	case querydoc.OpAnd:
		return allOf(subs), nil
	case querydoc.OpOr:
		return anyOf(subs), nil
	}
	either := anyOf(subs)
	return func(doc document.Object) bool { return !either(doc) }, nil
}

func allOf(ms []Matcher) Matcher {
	return func(doc document.Object) bool {
		for _, m := range ms {
			if !m(doc) {
				return false
			}
		}
		return true
	}
}

func anyOf(ms []Matcher) Matcher {
	return func(doc document.Object) bool {
		for _, m := range ms {
			if m(doc) {
				return true
			}
		}
		return false
	}
}

// compileField handles {field: value} and {field: {"$op": value, ...}}.
func compileField(field string, cond document.Value) (Matcher, error) {
	ops, ok := cond.(document.Object)
	if !ok || !isOperatorObject(ops) {
		return fieldMatcher(field, func(v document.Value) bool { return equal(v, cond) }), nil
	}

	var preds []func(document.Value) bool
	for _, op := range ops.SortedKeys() {
		p, err := compileOperator(op, ops[op])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		preds = append(preds, p)
	}
	return fieldMatcher(field, func(v document.Value) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}), nil
}

func isOperatorObject(obj document.Object) bool {
	if len(obj) == 0 {
		return false
	}
	for k := range obj {
		if !strings.HasPrefix(k, "$") {
			return false
		}
	}
	return true
}

func fieldMatcher(field string, pred func(document.Value) bool) Matcher {
	return func(doc document.Object) bool {
		v, ok := doc[field]
		if !ok {
			v = document.Null{}
		}
		return pred(v)
	}
}

func compileOperator(op string, arg document.Value) (func(document.Value) bool, error) {
	switch op {
	case querydoc.OpEq:
		return func(v document.Value) bool { return equal(v, arg) }, nil
	case querydoc.OpNe:
		return func(v document.Value) bool { return !equal(v, arg) }, nil
	case querydoc.OpLt:
		return ordered(arg, func(c int) bool { return c < 0 }), nil
	case querydoc.OpLte:
		return ordered(arg, func(c int) bool { return c <= 0 }), nil
	case querydoc.OpGt:
		return ordered(arg, func(c int) bool { return c > 0 }), nil
	case querydoc.OpGte:
		return ordered(arg, func(c int) bool { return c >= 0 }), nil
	case querydoc.OpIn, querydoc.OpNin:
		list, ok := arg.(document.Array)
		if !ok {
			return nil, fmt.Errorf("%s needs an array", op)
		}
		in := func(v document.Value) bool {
			for _, item := range list {
				if equal(v, item) {
					return true
				}
			}
			return false
		}
		if op == querydoc.OpNin {
			return func(v document.Value) bool { return !in(v) }, nil
		}
		return in, nil
	case querydoc.OpRegex:
		pattern, ok := arg.(document.String)
		if !ok {
			return nil, fmt.Errorf("$regex needs a string")
		}
		re, err := regexp.Compile(string(pattern))
		if err != nil {
			return nil, fmt.Errorf("$regex: %w", err)
		}
		return func(v document.Value) bool {
			s, ok := v.(document.String)
			return ok && re.MatchString(string(s))
		}, nil
	case querydoc.OpMod:
		return compileMod(arg)
	}
	return nil, fmt.Errorf("unknown operator %s", op)
}

// compileMod handles {"$mod": [divisor, remainder]}.
func compileMod(arg document.Value) (func(document.Value) bool, error) {
	list, ok := arg.(document.Array)
	if !ok || len(list) != 2 {
		return nil, fmt.Errorf("$mod needs [divisor, remainder]")
	}
	divisor, ok1 := list[0].(document.Int)
	remainder, ok2 := list[1].(document.Int)
	if !ok1 || !ok2 || divisor == 0 {
		return nil, fmt.Errorf("$mod needs a non-zero integer divisor and an integer remainder")
	}
	return func(v document.Value) bool {
		n, ok := v.(document.Int)
		return ok && n%divisor == remainder
	}, nil
}

func ordered(arg document.Value, accept func(int) bool) func(document.Value) bool {
	return func(v document.Value) bool {
		c, ok := compare(v, arg)
		return ok && accept(c)
	}
}

// equal compares two values. An array field matches a scalar when any
// element equals it.
func equal(a, b document.Value) bool {
	if arr, ok := a.(document.Array); ok {
		if _, bIsArr := b.(document.Array); !bIsArr {
			for _, e := range arr {
				if equal(e, b) {
					return true
				}
			}
			return false
		}
	}

	switch x := a.(type) {
	case document.Null:
		_, ok := b.(document.Null)
		return ok
	case document.String:
		y, ok := b.(document.String)
		return ok && x == y
	case document.Bool:
		y, ok := b.(document.Bool)
		return ok && x == y
	case document.Int, document.Decimal:
		c, ok := compare(a, b)
		return ok && c == 0
	case document.Array:
		y, ok := b.(document.Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case document.Object:
		y, ok := b.(document.Object)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !equal(xv, yv) {
				return false
			}
		}
		return true
	}
	return false
}

// compare orders two numbers or two strings. ok is false for any other
// pair.
func compare(a, b document.Value) (int, bool) {
	if x, ok := a.(document.String); ok {
		y, ok := b.(document.String)
		if !ok {
			return 0, false
		}
		return strings.Compare(string(x), string(y)), true
	}
	x, ok := number(a)
	if !ok {
		return 0, false
	}
	y, ok := number(b)
	if !ok {
		return 0, false
	}
	return x.Cmp(y), true
}

func number(v document.Value) (*apd.Decimal, bool) {
	switch n := v.(type) {
	case document.Int:
		return apd.New(int64(n), 0), true
	case document.Decimal:
		if n.D == nil {
			return nil, false
		}
		return n.D, true
	}
	return nil, false
}
