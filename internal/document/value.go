// Package document is the value model of document filters: JSON-like
// values with exact decimals, a canonical JSON encoding and conversion to
// and from plain Go values.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/cockroachdb/apd/v3"
)

// Value is a sealed interface over the document value kinds.
type Value interface {
	docValue() // Sealed - only these types implement it
}

// Null is the JSON null.
type Null struct{}

func (Null) docValue() {}

// String is a string value.
type String string

func (String) docValue() {}

// Int is an integer value.
type Int int64

func (Int) docValue() {}

// Decimal is an exact decimal number. It is never converted to a float.
type Decimal struct {
	D *apd.Decimal
}

func (Decimal) docValue() {}

// NewDecimal copies d into a Decimal.
func NewDecimal(d *apd.Decimal) Decimal {
	return Decimal{D: new(apd.Decimal).Set(d)}
}

// ParseDecimal parses decimal text such as "30.5" or "1.2e-3".
func ParseDecimal(s string) (Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return Decimal{D: d}, nil
}

// Bool is a boolean value.
type Bool bool

func (Bool) docValue() {}

// Array is an ordered list of values.
type Array []Value

func (Array) docValue() {}

// Object maps string keys to values. Use SortedKeys for deterministic
// iteration.
type Object map[string]Value

func (Object) docValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units. Go's native
// string order is by UTF-8 bytes, which differs above the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// ToNative converts v to plain Go values: nil, string, int64, bool,
// *apd.Decimal, []any and map[string]any.
func ToNative(v Value) any {
	switch val := v.(type) {
	case Null, nil:
		return nil
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Decimal:
		return new(apd.Decimal).Set(val.D)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = ToNative(e)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = ToNative(e)
		}
		return out
	}
	return nil
}

// FromNative converts plain Go values (including json.Number from a
// decoder with UseNumber) into a Value.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case *apd.Decimal:
		return NewDecimal(val), nil
	case json.Number:
		s := string(val)
		if !strings.ContainsAny(s, ".eE") {
			if n, err := val.Int64(); err == nil {
				return Int(n), nil
			}
		}
		return ParseDecimal(s)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			e, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = e
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			e, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = e
		}
		return obj, nil
	case float64, float32:
		return nil, fmt.Errorf("floats are not document values: %v", val)
	}
	return nil, fmt.Errorf("unsupported type: %T", v)
}

// Parse decodes JSON into a Value. Numbers keep their exact text: integers
// become Int, everything else Decimal.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromNative(raw)
}

// ParseObject decodes a JSON object.
func ParseObject(data []byte) (Object, error) {
	v, err := Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}
