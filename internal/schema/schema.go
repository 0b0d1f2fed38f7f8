// Package schema answers the two questions the compilers ask about names in
// a query: which model does a FROM name refer to, and is a field of that
// model queryable.
//
// Compilers receive a Resolver per call and never reach a global registry.
// Registry is the in-memory implementation, built in code with NewStatic or
// from CUE definitions with LoadDir and CompileString. Schemaless accepts
// every name and suits document stores without a fixed schema.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrModelNotFound is wrapped by ResolveModel when no model has the name.
var ErrModelNotFound = errors.New("model not found")

// Resolver is the capability compilers use to check names.
type Resolver interface {
	// ResolveModel returns the model registered under name.
	ResolveModel(name string) (*Model, error)

	// IsQueryable reports whether field may appear in a filter on m.
	IsQueryable(m *Model, field string) bool
}

// FieldType is the declared type of a field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeBool    FieldType = "bool"
	TypeDecimal FieldType = "decimal"
	TypeAny     FieldType = "any"
)

// Field is one queryable property of a model.
type Field struct {
	Name string
	Type FieldType
}

// Model is a table (relational) or collection (document).
type Model struct {
	// Name is what queries write after FROM.
	Name string

	// Source is the table or collection name in the store. Empty means Name.
	Source string

	// Key is the field used for stable ordering; may be empty.
	Key string

	// Fields lists the queryable fields in declaration order. A nil Fields
	// with Open set accepts any field.
	Fields []Field

	// Open models accept fields that are not declared.
	Open bool
}

// Table returns the store-side name of the model.
func (m *Model) Table() string {
	if m.Source != "" {
		return m.Source
	}
	return m.Name
}

// Column maps a field reference as written in a query to the declared field
// name. Both "field" and "<model>.field" (or "<source>.field") are accepted.
func (m *Model) Column(ref string) (string, bool) {
	name := ref
	for _, prefix := range []string{m.Name + ".", m.Table() + "."} {
		if strings.HasPrefix(ref, prefix) {
			name = strings.TrimPrefix(ref, prefix)
			break
		}
	}
	if name == "" {
		return "", false
	}
	if _, ok := m.Field(name); ok {
		return name, true
	}
	if m.Open && !strings.Contains(name, ".") {
		return name, true
	}
	return "", false
}

// Field returns the declared field with the given name.
func (m *Model) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames returns the declared field names in order.
func (m *Model) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// Registry is an immutable set of models. It is safe for concurrent use.
type Registry struct {
	models map[string]*Model
}

// NewStatic builds a registry from models defined in code. Models are
// looked up by Name and by Source.
func NewStatic(models ...*Model) *Registry {
	r := &Registry{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		r.models[m.Name] = m
	}
	return r
}

// ResolveModel implements Resolver.
func (r *Registry) ResolveModel(name string) (*Model, error) {
	if m, ok := r.models[name]; ok {
		return m, nil
	}
	for _, m := range r.models {
		if m.Source != "" && m.Source == name {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
}

// IsQueryable implements Resolver.
func (r *Registry) IsQueryable(m *Model, field string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Column(field)
	return ok
}

// Models returns the registered models sorted by name.
func (r *Registry) Models() []*Model {
	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Schemaless resolves every name to an open model.
type Schemaless struct{}

// ResolveModel implements Resolver.
func (Schemaless) ResolveModel(name string) (*Model, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrModelNotFound)
	}
	return &Model{Name: name, Open: true}, nil
}

// IsQueryable implements Resolver. Any non-empty field name is accepted.
func (Schemaless) IsQueryable(m *Model, field string) bool {
	return field != ""
}
