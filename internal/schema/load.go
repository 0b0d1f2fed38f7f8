package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// SchemaError reports a malformed model definition, with the CUE source
// position when one is known.
type SchemaError struct {
	Path    string // e.g. "model.User.fields.age"
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadDir loads every .cue file of dir as one CUE instance and builds a
// registry from its "model" struct:
//
//	model: User: {
//	    source: "users"
//	    key:    "id"
//	    fields: {
//	        id:         int
//	        first_name: string
//	        is_active:  bool
//	        balance:    number
//	    }
//	}
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan schema directory: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	if inst := instances[0]; inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := ctx.BuildInstance(instances[0])
	return compileValue(value)
}

// CompileString builds a registry from CUE source text. filename is used in
// error positions.
func CompileString(src, filename string) (*Registry, error) {
	ctx := cuecontext.New()
	value := ctx.CompileString(src, cue.Filename(filename))
	return compileValue(value)
}

func compileValue(value cue.Value) (*Registry, error) {
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	modelsVal := value.LookupPath(cue.ParsePath("model"))
	if !modelsVal.Exists() {
		return nil, &SchemaError{Path: "model", Message: "no models defined", Pos: value.Pos()}
	}

	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var models []*Model
	for iter.Next() {
		m, err := compileModel(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return NewStatic(models...), nil
}

func compileModel(name string, v cue.Value) (*Model, error) {
	path := "model." + name
	m := &Model{Name: name}

	var err error
	if m.Source, err = optionalString(v, "source"); err != nil {
		return nil, err
	}
	if m.Key, err = optionalString(v, "key"); err != nil {
		return nil, err
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &SchemaError{Path: path + ".fields", Message: "fields are required", Pos: v.Pos()}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		ft, err := fieldType(path+".fields."+iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		m.Fields = append(m.Fields, Field{Name: iter.Label(), Type: ft})
	}
	if len(m.Fields) == 0 {
		return nil, &SchemaError{Path: path + ".fields", Message: "at least one field is required", Pos: fieldsVal.Pos()}
	}

	if m.Key != "" {
		if _, ok := m.Field(m.Key); !ok {
			return nil, &SchemaError{Path: path + ".key", Message: fmt.Sprintf("key %q is not a declared field", m.Key), Pos: v.Pos()}
		}
	}
	return m, nil
}

func optionalString(v cue.Value, label string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(label))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// fieldType maps a CUE type (string, int, bool, number/float) to a
// FieldType.
func fieldType(path string, v cue.Value) (FieldType, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return TypeString, nil
	case cue.IntKind:
		return TypeInt, nil
	case cue.BoolKind:
		return TypeBool, nil
	case cue.FloatKind, cue.NumberKind:
		return TypeDecimal, nil
	default:
		return "", &SchemaError{
			Path:    path,
			Message: fmt.Sprintf("unsupported field type: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &SchemaError{Path: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
