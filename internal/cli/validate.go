package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Flushot/sqlparse/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Models []ModelSummary `json:"models"`
}

// ModelSummary describes one validated model.
type ModelSummary struct {
	Name   string         `json:"name"`
	Source string         `json:"source"`
	Key    string         `json:"key,omitempty"`
	Fields []FieldSummary `json:"fields"`
}

// FieldSummary is one declared field.
type FieldSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SchemaErrorDetails locates a schema error in its CUE source.
type SchemaErrorDetails struct {
	Path   string `json:"path"`
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate CUE schema models",
		Long: `Load the CUE models in a directory and report the models and fields
queries may reference.

Schema errors point at the CUE file, line and column that caused them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	reg, err := LoadRegistry(dir)
	if err != nil {
		return outputError(formatter, err, schemaErrorDetails(err))
	}

	models := reg.Models()
	formatter.VerboseLog("Loaded %d model(s) from %s", len(models), dir)

	result := ValidationResult{Valid: true, Models: make([]ModelSummary, len(models))}
	var text strings.Builder
	fmt.Fprintf(&text, "✓ Schema is valid (%d %s)", len(models), plural(len(models), "model", "models"))
	for i, m := range models {
		summary := ModelSummary{
			Name:   m.Name,
			Source: m.Table(),
			Key:    m.Key,
			Fields: make([]FieldSummary, len(m.Fields)),
		}
		for j, f := range m.Fields {
			summary.Fields[j] = FieldSummary{Name: f.Name, Type: string(f.Type)}
		}
		result.Models[i] = summary

		fmt.Fprintf(&text, "\n  %s (%s)", m.Name, m.Table())
		for _, f := range m.Fields {
			marker := ""
			if f.Name == m.Key {
				marker = " [key]"
			}
			fmt.Fprintf(&text, "\n    %s: %s%s", f.Name, f.Type, marker)
		}
	}

	return formatter.Success(result, text.String())
}

// schemaErrorDetails returns the position of a schema error, or nil when
// err carries none.
func schemaErrorDetails(err error) any {
	var se *schema.SchemaError
	if !errors.As(err, &se) {
		return nil
	}
	d := SchemaErrorDetails{Path: se.Path}
	if se.Pos.IsValid() {
		d.File = se.Pos.Filename()
		d.Line = se.Pos.Line()
		d.Column = se.Pos.Column()
	}
	return d
}
