package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Flushot/sqlparse/internal/builder"
	"github.com/Flushot/sqlparse/internal/docstore"
	"github.com/Flushot/sqlparse/internal/document"
	"github.com/Flushot/sqlparse/internal/relational"
	"github.com/Flushot/sqlparse/internal/schema"
	"github.com/Flushot/sqlparse/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Target string
	Schema string
	DB     string // database file for the sql target
	Driver string // sqlite3 | duckdb
	Data   string // JSON or snapshot file for the doc target
}

// QueryResult is the JSON payload of the query command.
type QueryResult struct {
	Target  string            `json:"target"`
	Count   int               `json:"count"`
	Records []json.RawMessage `json:"records"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Run a query against a database or a document file",
		Long: `Compile a query and run it.

The sql target runs against a SQLite or DuckDB database file. The doc
target loads a JSON file of the form {"<collection>": [documents...]},
or a .snap file written by the snapshot command, into an in-memory
document store and filters it. Each record is printed
as one line of canonical JSON.

Examples:
  sqlparse query --schema ./models --db app.db "SELECT * FROM User WHERE age > 30"
  sqlparse query --driver duckdb --db app.duckdb --schema ./models "SELECT * FROM User"
  sqlparse query --target doc --data users.json "SELECT * FROM users WHERE is_active = 1"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", TargetSQL, "query target (sql|doc)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema directory")
	cmd.Flags().StringVar(&opts.DB, "db", "", "database file (sql target)")
	cmd.Flags().StringVar(&opts.Driver, "driver", relational.SQLite.Name, "database driver (sqlite3|duckdb)")
	cmd.Flags().StringVar(&opts.Data, "data", "", "JSON or .snap document file (doc target)")

	return cmd
}

func runQuery(opts *QueryOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(formatter)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	resolver, err := LoadResolver(opts.Schema)
	if err != nil {
		return outputError(formatter, err, nil)
	}

	var records []json.RawMessage
	switch opts.Target {
	case TargetSQL:
		if opts.DB == "" {
			return outputError(formatter, badFlag("--db is required for the sql target"), nil)
		}
		if _, err := os.Stat(opts.DB); err != nil {
			return outputError(formatter, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", opts.DB), Err: err}, nil)
		}
		st, err := store.Open(opts.Driver, opts.DB, store.WithLogger(logger))
		if err != nil {
			return outputError(formatter, &LoadError{Code: ErrCodeOpenFailed, Message: err.Error(), Err: err}, nil)
		}
		defer st.Close()

		b := &builder.RelationalBuilder{Resolver: resolver, Store: st, Logger: logger, MaxDepth: opts.MaxDepth}
		rows, err := b.ParseAndBuild(ctx, query)
		if err != nil {
			return outputError(formatter, err, syntaxDetails(query, err))
		}
		records = make([]json.RawMessage, len(rows))
		for i, row := range rows {
			records[i] = canonicalRecord(map[string]any(row))
		}

	case TargetDoc:
		if opts.Data == "" {
			return outputError(formatter, badFlag("--data is required for the doc target"), nil)
		}
		db, err := loadCollections(opts.Data, resolver)
		if err != nil {
			return outputError(formatter, err, nil)
		}
		b := &builder.DocumentBuilder{Resolver: resolver, Collections: db, Logger: logger, MaxDepth: opts.MaxDepth}
		docs, err := b.ParseAndBuild(ctx, query)
		if err != nil {
			return outputError(formatter, err, syntaxDetails(query, err))
		}
		records = make([]json.RawMessage, len(docs))
		for i, doc := range docs {
			data, err := document.MarshalCanonical(doc)
			if err != nil {
				return outputError(formatter, err, nil)
			}
			records[i] = data
		}

	default:
		return outputError(formatter, badFlag(fmt.Sprintf("unknown target %q: must be %s or %s", opts.Target, TargetSQL, TargetDoc)), nil)
	}

	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = string(r)
	}
	lines = append(lines, fmt.Sprintf("(%d %s)", len(records), plural(len(records), "record", "records")))
	return formatter.Success(QueryResult{
		Target:  opts.Target,
		Count:   len(records),
		Records: records,
	}, strings.Join(lines, "\n"))
}

// SnapshotExt marks --data files written by the snapshot command.
const SnapshotExt = ".snap"

// loadCollections reads a document database from path: a snapshot when the
// file ends in SnapshotExt, otherwise a {"collection": [docs...]} JSON file
// where each collection is keyed by its model's key, or "id".
func loadCollections(path string, resolver schema.Resolver) (*docstore.Database, error) {
	if filepath.Ext(path) == SnapshotExt {
		f, err := os.Open(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("failed to read data file: %v", err), Err: err}
		}
		defer f.Close()
		db, err := docstore.ReadSnapshot(f)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("failed to read snapshot: %v", err), Err: err}
		}
		return db, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("failed to read data file: %v", err), Err: err}
	}
	root, err := document.ParseObject(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("failed to parse data file: %v", err), Err: err}
	}

	db := docstore.NewDatabase()
	for _, name := range root.SortedKeys() {
		arr, ok := root[name].(document.Array)
		if !ok {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("collection %q: expected an array of documents", name)}
		}

		collection, key := name, "id"
		if m, err := resolver.ResolveModel(name); err == nil {
			collection = m.Table()
			if m.Key != "" {
				key = m.Key
			}
		}

		docs := make([]document.Object, len(arr))
		for i, v := range arr {
			obj, ok := v.(document.Object)
			if !ok {
				return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("collection %q: document %d is not an object", name, i)}
			}
			docs[i] = obj
		}
		if _, err := db.Collection(collection, key).Insert(docs...); err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Err: err}
		}
	}
	return db, nil
}

// canonicalRecord renders a SQL row as canonical JSON. Driver values with
// no document form (timestamps, blobs) are rendered as text.
func canonicalRecord(row map[string]any) json.RawMessage {
	obj := make(document.Object, len(row))
	for k, v := range row {
		dv, err := document.FromNative(v)
		if err != nil {
			dv = document.String(fmt.Sprint(v))
		}
		obj[k] = dv
	}
	data, err := document.MarshalCanonical(obj)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}

func badFlag(msg string) *LoadError {
	return &LoadError{Code: ErrCodeBadFlag, Message: msg}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
