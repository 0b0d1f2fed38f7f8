package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Flushot/sqlparse/internal/compiler"
	"github.com/Flushot/sqlparse/internal/schema"
)

// Error code constants for command-level failures. Query failures use the
// codes of compiler.CodeOf instead.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNoFiles     = "E003" // No CUE or scenario files found
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // Output file could not be written
	ErrCodeOpenFailed  = "E008" // Database could not be opened
	ErrCodeBadFlag     = "E009" // Invalid flag combination
)

// LoadError represents an error that occurred while loading a schema.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadResolver loads the CUE models in dir. An empty dir yields a resolver
// that accepts every model and field.
func LoadResolver(dir string) (schema.Resolver, error) {
	if dir == "" {
		return schema.Schemaless{}, nil
	}
	reg, err := LoadRegistry(dir)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadRegistry loads the CUE models in dir.
func LoadRegistry(dir string) (*schema.Registry, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir), Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err), Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil || len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir), Err: err}
	}

	reg, err := schema.LoadDir(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: err.Error(), Err: err}
	}
	return reg, nil
}

// errorCode picks the response code for err: the load code for schema
// problems, the query code for everything else.
func errorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return string(compiler.CodeOf(err))
}

// outputError writes err through the formatter and converts it to an exit
// error: command-level failures exit 2, rejected queries exit 1.
func outputError(f *OutputFormatter, err error, details any) error {
	code := errorCode(err)
	_ = f.Error(code, err.Error(), details)

	var le *LoadError
	if errors.As(err, &le) {
		return WrapExitError(ExitCommandError, code, err)
	}
	return WrapExitError(ExitFailure, code, err)
}
