package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/Flushot/sqlparse/internal/relational"
	"github.com/Flushot/sqlparse/internal/schema"
)

// Row is one record, keyed by field name. Values are nil, string, int64,
// bool or *apd.Decimal.
type Row map[string]any

// columnType returns the SQL type used for a field type.
func (s *Store) columnType(t schema.FieldType) (string, error) {
	duck := s.dialect.Name == relational.DuckDB.Name
	switch t {
	case schema.TypeString:
		if duck {
			return "VARCHAR", nil
		}
		return "TEXT", nil
	case schema.TypeInt:
		if duck {
			return "BIGINT", nil
		}
		return "INTEGER", nil
	case schema.TypeBool:
		return "BOOLEAN", nil
	case schema.TypeDecimal:
		return s.dialect.DecimalColumn, nil
	}
	return "", fmt.Errorf("unsupported field type %q", t)
}

// CreateTable creates the table of m if it does not exist. The key field,
// if any, becomes the primary key.
func (s *Store) CreateTable(ctx context.Context, m *schema.Model) error {
	if len(m.Fields) == 0 {
		return fmt.Errorf("create table %s: model has no fields", m.Table())
	}

	defs := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		typ, err := s.columnType(f.Type)
		if err != nil {
			return fmt.Errorf("create table %s: field %s: %w", m.Table(), f.Name, err)
		}
		def := relational.QuoteIdent(f.Name) + " " + typ
		if f.Name == m.Key {
			def += " PRIMARY KEY"
		}
		defs = append(defs, def)
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		relational.QuoteIdent(m.Table()), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", m.Table(), err)
	}
	return nil
}

// Insert writes rows into the table of m in one transaction. Rows whose key
// already exists are skipped, so seeding is idempotent. A row holding a
// field the model does not declare is rejected.
func (s *Store) Insert(ctx context.Context, m *schema.Model, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}

	columns := m.FieldNames()
	quoted := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = relational.QuoteIdent(c)
		marks[i] = "?"
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		relational.QuoteIdent(m.Table()), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	if m.Key != "" {
		stmt += " ON CONFLICT DO NOTHING"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", m.Table(), err)
	}
	defer tx.Rollback()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", m.Table(), err)
	}
	defer prepared.Close()

	for i, row := range rows {
		args, err := rowArgs(m, row)
		if err != nil {
			return fmt.Errorf("insert into %s: row %d: %w", m.Table(), i, err)
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: row %d: %w", m.Table(), i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert into %s: %w", m.Table(), err)
	}
	return nil
}

// rowArgs orders row values by the model's fields. Decimals are bound as
// text so no precision is lost on the way in.
func rowArgs(m *schema.Model, row Row) ([]any, error) {
	for k := range row {
		if _, ok := m.Field(k); !ok {
			return nil, fmt.Errorf("unknown field %q", k)
		}
	}
	args := make([]any, len(m.Fields))
	for i, f := range m.Fields {
		v := row[f.Name]
		if d, ok := v.(*apd.Decimal); ok {
			v = d.Text('f')
		}
		args[i] = v
	}
	return args, nil
}
