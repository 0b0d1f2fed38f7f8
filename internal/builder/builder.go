// Package builder turns query strings into results against a backend. A
// builder parses the query, compiles it for its target and runs it: the
// relational builder against a SQL store, the document builder against an
// in-memory document database.
//
// Parse failures are logged with the offending query line and a caret
// under the column where parsing stopped.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Flushot/sqlparse/internal/ast"
	"github.com/Flushot/sqlparse/internal/docstore"
	"github.com/Flushot/sqlparse/internal/document"
	"github.com/Flushot/sqlparse/internal/parser"
	"github.com/Flushot/sqlparse/internal/querydoc"
	"github.com/Flushot/sqlparse/internal/querysql"
	"github.com/Flushot/sqlparse/internal/relational"
	"github.com/Flushot/sqlparse/internal/schema"
	"github.com/Flushot/sqlparse/internal/store"
)

// RelationalBuilder compiles queries to SQL and runs them on Store.
type RelationalBuilder struct {
	Resolver schema.Resolver
	Store    *store.Store
	Logger   *slog.Logger

	// MaxDepth bounds nesting in both the parser and the compiler. Zero
	// keeps the defaults.
	MaxDepth int
}

// Build parses and compiles query without running it.
func (b *RelationalBuilder) Build(query string) (*querysql.Result, error) {
	if b.Resolver == nil {
		return nil, errors.New("relational builder has no resolver")
	}
	logger := loggerOr(b.Logger)
	stmt, err := parse(logger, query, b.MaxDepth)
	if err != nil {
		return nil, err
	}

	var opts []querysql.Option
	if b.MaxDepth > 0 {
		opts = append(opts, querysql.WithMaxDepth(b.MaxDepth))
	}
	res, err := querysql.Compile(stmt, b.Resolver, opts...)
	if err != nil {
		logger.Error("compile failed", "target", "sql", "error", err)
		return nil, err
	}

	logger.Debug("from", "table", stmt.Tables[0].Name, "model", res.Model.Name)
	if res.Filter == nil {
		logger.Debug("where", "filter", "match all")
	} else if where, params, err := relational.RenderExpr(res.Filter, b.dialect()); err == nil {
		logger.Debug("where", "filter", where, "params", params)
	}
	return res, nil
}

func (b *RelationalBuilder) dialect() relational.Dialect {
	if b.Store != nil {
		return b.Store.Dialect()
	}
	return relational.SQLite
}

// ParseAndBuild compiles query and returns the matching rows. A query
// without WHERE returns every row of its table.
func (b *RelationalBuilder) ParseAndBuild(ctx context.Context, query string) ([]store.Row, error) {
	if b.Store == nil {
		return nil, errors.New("relational builder has no store")
	}
	res, err := b.Build(query)
	if err != nil {
		return nil, err
	}
	rows, err := b.Store.Find(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	loggerOr(b.Logger).Info("query complete", "target", "sql", "rows", len(rows))
	return rows, nil
}

// DocumentBuilder compiles queries to document filters and runs them on
// Collections.
type DocumentBuilder struct {
	Resolver    schema.Resolver
	Collections *docstore.Database
	Logger      *slog.Logger
	MaxDepth    int
}

// Build parses and compiles query without running it. An empty filter in
// the result matches every document.
func (b *DocumentBuilder) Build(query string) (*querydoc.Result, error) {
	logger := loggerOr(b.Logger)
	stmt, err := parse(logger, query, b.MaxDepth)
	if err != nil {
		return nil, err
	}

	resolver := b.Resolver
	if resolver == nil {
		resolver = schema.Schemaless{}
	}
	var opts []querydoc.Option
	if b.MaxDepth > 0 {
		opts = append(opts, querydoc.WithMaxDepth(b.MaxDepth))
	}
	res, err := querydoc.Compile(stmt, resolver, opts...)
	if err != nil {
		logger.Error("compile failed", "target", "doc", "error", err)
		return nil, err
	}

	logger.Debug("from", "collection", res.Collection)
	if filter, err := res.FilterJSON(); err == nil {
		logger.Debug("where", "filter", string(filter))
	}
	return res, nil
}

// ParseAndBuild compiles query and returns the matching documents.
func (b *DocumentBuilder) ParseAndBuild(ctx context.Context, query string) ([]document.Object, error) {
	if b.Collections == nil {
		return nil, errors.New("document builder has no collections")
	}
	res, err := b.Build(query)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs, err := b.Collections.Find(res)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	loggerOr(b.Logger).Info("query complete", "target", "doc", "documents", len(docs))
	return docs, nil
}

func loggerOr(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func parse(logger *slog.Logger, query string, maxDepth int) (*ast.SelectStatement, error) {
	var opts []parser.Option
	if maxDepth > 0 {
		opts = append(opts, parser.WithMaxDepth(maxDepth))
	}
	stmt, err := parser.Parse(query, opts...)
	if err != nil {
		var se *parser.SyntaxError
		if errors.As(err, &se) {
			logger.Error("parse error\n"+Caret(query, se.Line, se.Col), "error", err)
		} else {
			logger.Error("parse error", "error", err)
		}
		return nil, err
	}
	return stmt, nil
}

// Caret returns line of query followed by a second line with a caret under
// col. line and col are 1-based; out of range values are clamped.
func Caret(query string, line, col int) string {
	lines := strings.Split(query, "\n")
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	text := strings.TrimRight(lines[line-1], "\r")
	if col < 1 {
		col = 1
	}
	return text + "\n" + strings.Repeat("-", col-1) + "^"
}
