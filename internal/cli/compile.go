package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Flushot/sqlparse/internal/builder"
	"github.com/Flushot/sqlparse/internal/document"
	"github.com/Flushot/sqlparse/internal/relational"
)

// Compile targets.
const (
	TargetSQL = "sql"
	TargetDoc = "doc"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Target  string // "sql" | "doc"
	Schema  string // CUE schema directory; empty means schemaless
	Dialect string // SQL dialect for the sql target
}

// SQLCompilation is the JSON payload for the sql target.
type SQLCompilation struct {
	Model     string `json:"model"`
	Statement string `json:"statement"`
	Params    []any  `json:"params"`
}

// DocCompilation is the JSON payload for the doc target.
type DocCompilation struct {
	Model      string          `json:"model"`
	Collection string          `json:"collection"`
	Filter     json.RawMessage `json:"filter"`
	Projection []string        `json:"projection,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a query to a SQL or document filter",
		Long: `Compile the WHERE clause of a SELECT query without running it.

The sql target prints a parameterized statement and its parameters in the
chosen dialect. The doc target prints the canonical JSON filter and the
projected fields. With --schema, FROM names and fields are checked against
the CUE models in that directory.

Examples:
  sqlparse compile "SELECT * FROM users WHERE age BETWEEN 18 AND 30"
  sqlparse compile --target doc "SELECT a FROM t WHERE b LIKE 'x%'"
  sqlparse compile --schema ./models --dialect duckdb "SELECT * FROM User WHERE a <=> 1"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", TargetSQL, "compile target (sql|doc)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema directory")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", relational.SQLite.Name, "SQL dialect (sqlite3|duckdb)")

	return cmd
}

func runCompile(opts *CompileOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(formatter)

	resolver, err := LoadResolver(opts.Schema)
	if err != nil {
		return outputError(formatter, err, nil)
	}

	switch opts.Target {
	case TargetSQL:
		dialect, err := relational.DialectFor(opts.Dialect)
		if err != nil {
			return outputError(formatter, &LoadError{Code: ErrCodeBadFlag, Message: err.Error(), Err: err}, nil)
		}
		b := &builder.RelationalBuilder{Resolver: resolver, Logger: logger, MaxDepth: opts.MaxDepth}
		res, err := b.Build(query)
		if err != nil {
			return outputError(formatter, err, syntaxDetails(query, err))
		}
		stmt, params, err := res.Render(dialect)
		if err != nil {
			return outputError(formatter, err, nil)
		}
		if params == nil {
			params = []any{}
		}
		text := stmt
		if len(params) > 0 {
			text += "\n" + formatParams(params)
		}
		return formatter.Success(SQLCompilation{
			Model:     res.Model.Name,
			Statement: stmt,
			Params:    params,
		}, text)

	case TargetDoc:
		b := &builder.DocumentBuilder{Resolver: resolver, Logger: logger, MaxDepth: opts.MaxDepth}
		res, err := b.Build(query)
		if err != nil {
			return outputError(formatter, err, syntaxDetails(query, err))
		}
		filter, err := res.FilterJSON()
		if err != nil {
			return outputError(formatter, err, nil)
		}
		text := string(filter)
		if fields := res.ProjectionFields(); fields != nil {
			text += "\nprojection: " + strings.Join(fields, ", ")
		}
		return formatter.Success(DocCompilation{
			Model:      res.Model.Name,
			Collection: res.Collection,
			Filter:     filter,
			Projection: res.ProjectionFields(),
		}, text)
	}

	err = fmt.Errorf("unknown target %q: must be %s or %s", opts.Target, TargetSQL, TargetDoc)
	return outputError(formatter, &LoadError{Code: ErrCodeBadFlag, Message: err.Error(), Err: err}, nil)
}

// formatParams renders statement parameters as a canonical JSON list.
func formatParams(params []any) string {
	values := make(document.Array, len(params))
	for i, p := range params {
		v, err := document.FromNative(p)
		if err != nil {
			return fmt.Sprint(params)
		}
		values[i] = v
	}
	data, err := document.MarshalCanonical(values)
	if err != nil {
		return fmt.Sprint(params)
	}
	return "params: " + string(data)
}
