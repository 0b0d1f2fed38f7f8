// Package sqlparse parses a restricted SQL SELECT dialect and compiles its
// WHERE clause for two kinds of backend: a parameterized SQL filter for
// relational stores and a JSON filter for document stores.
//
// Queries are checked against a schema resolver. Without one every model
// and field resolves, which suits document stores.
package sqlparse

import (
	"github.com/Flushot/sqlparse/internal/ast"
	"github.com/Flushot/sqlparse/internal/compiler"
	"github.com/Flushot/sqlparse/internal/parser"
	"github.com/Flushot/sqlparse/internal/querydoc"
	"github.com/Flushot/sqlparse/internal/querysql"
	"github.com/Flushot/sqlparse/internal/relational"
	"github.com/Flushot/sqlparse/internal/schema"
)

// DefaultMaxDepth is the nesting limit used when WithMaxDepth is not given.
const DefaultMaxDepth = parser.DefaultMaxDepth

type config struct {
	maxDepth int
	resolver schema.Resolver
	dialect  string
}

// Option configures Parse and the compile functions.
type Option func(*config)

// WithMaxDepth bounds expression nesting in both the parser and the
// compilers.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// WithSchema resolves FROM names and fields through r, typically a registry
// from LoadSchema.
func WithSchema(r schema.Resolver) Option {
	return func(c *config) { c.resolver = r }
}

// WithDialect selects the SQL dialect: "sqlite3" (default) or "duckdb".
func WithDialect(name string) Option {
	return func(c *config) { c.dialect = name }
}

func newConfig(opts []Option) *config {
	c := &config{
		maxDepth: DefaultMaxDepth,
		resolver: schema.Schemaless{},
		dialect:  relational.SQLite.Name,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadSchema loads the CUE models in dir for use with WithSchema.
func LoadSchema(dir string) (*schema.Registry, error) {
	return schema.LoadDir(dir)
}

// Parse parses query into a syntax tree.
func Parse(query string, opts ...Option) (*ast.SelectStatement, error) {
	c := newConfig(opts)
	return parser.Parse(query, parser.WithMaxDepth(c.maxDepth))
}

// SQL is a compiled relational query.
type SQL struct {
	// Statement is the full SELECT with "?" placeholders.
	Statement string
	// Where is the rendered filter alone; empty when the query has no WHERE.
	Where  string
	Params []any
}

// CompileRelational compiles query into parameterized SQL.
func CompileRelational(query string, opts ...Option) (*SQL, error) {
	c := newConfig(opts)
	dialect, err := relational.DialectFor(c.dialect)
	if err != nil {
		return nil, err
	}
	stmt, err := parser.Parse(query, parser.WithMaxDepth(c.maxDepth))
	if err != nil {
		return nil, err
	}
	res, err := querysql.Compile(stmt, c.resolver, querysql.WithMaxDepth(c.maxDepth))
	if err != nil {
		return nil, err
	}

	out := &SQL{}
	if out.Statement, out.Params, err = res.Render(dialect); err != nil {
		return nil, err
	}
	if res.Filter != nil {
		if out.Where, _, err = relational.RenderExpr(res.Filter, dialect); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Document is a compiled document-store query.
type Document struct {
	Collection string
	// Filter is canonical JSON; "{}" matches every document.
	Filter []byte
	// Projection lists the selected fields, or nil for "SELECT *".
	Projection []string
}

// CompileDocument compiles query into a document filter.
func CompileDocument(query string, opts ...Option) (*Document, error) {
	c := newConfig(opts)
	stmt, err := parser.Parse(query, parser.WithMaxDepth(c.maxDepth))
	if err != nil {
		return nil, err
	}
	res, err := querydoc.Compile(stmt, c.resolver, querydoc.WithMaxDepth(c.maxDepth))
	if err != nil {
		return nil, err
	}
	filter, err := res.FilterJSON()
	if err != nil {
		return nil, err
	}
	return &Document{
		Collection: res.Collection,
		Filter:     filter,
		Projection: res.ProjectionFields(),
	}, nil
}

// ErrorCode classifies an error returned by this package, for example
// "SYNTAX_ERROR" or "UNMAPPED_PROPERTY". It returns "" for nil.
func ErrorCode(err error) string {
	return string(compiler.CodeOf(err))
}

// IsSyntaxError reports whether the query failed to parse.
func IsSyntaxError(err error) bool { return parser.IsSyntaxError(err) }

// IsQueryTooComplex reports whether the query nests deeper than allowed,
// in the parser or in a compiler.
func IsQueryTooComplex(err error) bool {
	return parser.IsDepthError(err) || compiler.IsQueryTooComplex(err)
}

// IsUnsupportedOperator reports whether the target cannot express an
// operator in the query.
func IsUnsupportedOperator(err error) bool { return compiler.IsUnsupportedOperator(err) }

// IsUnmappedProperty reports whether the query names a field its model
// does not expose.
func IsUnmappedProperty(err error) bool { return compiler.IsUnmappedProperty(err) }
