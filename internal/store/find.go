package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/cockroachdb/apd/v3"
	"github.com/duckdb/duckdb-go/v2"

	"github.com/Flushot/sqlparse/internal/querysql"
	"github.com/Flushot/sqlparse/internal/schema"
)

// Find runs a compiled statement and returns the matching rows in key
// order. A nil filter selects every row.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Find(ctx context.Context, res *querysql.Result) ([]Row, error) {
	query, params, err := res.Render(s.dialect)
	if err != nil {
		return nil, fmt.Errorf("render query: %w", err)
	}
	s.logger.Debug("store query", "sql", query, "params", len(params))

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", res.Model.Table(), err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", res.Model.Table(), err)
	}

	out := []Row{}
	for rows.Next() {
		row, err := scanRow(rows, res.Model, columns)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", res.Model.Table(), err)
	}
	return out, nil
}

func scanRow(rows *sql.Rows, m *schema.Model, columns []string) (Row, error) {
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan %s: %w", m.Table(), err)
	}

	row := make(Row, len(columns))
	for i, c := range columns {
		typ := schema.TypeAny
		if f, ok := m.Field(c); ok {
			typ = f.Type
		}
		v, err := normalize(typ, values[i])
		if err != nil {
			return nil, fmt.Errorf("scan %s.%s: %w", m.Table(), c, err)
		}
		row[c] = v
	}
	return row, nil
}

// normalize converts a driver value to the Row value for a field type.
// Drivers differ: SQLite hands back int64 for booleans stored as integers
// and float64 or text for NUMERIC, DuckDB returns native types and
// duckdb.Decimal for DECIMAL.
func normalize(t schema.FieldType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch t {
	case schema.TypeBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case int64:
			return x != 0, nil
		}
	case schema.TypeInt:
		switch x := v.(type) {
		case int64:
			return x, nil
		case int32:
			return int64(x), nil
		case float64:
			return int64(x), nil
		}
	case schema.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	case schema.TypeDecimal:
		return toDecimal(v)
	case schema.TypeAny:
		switch x := v.(type) {
		case float64, duckdb.Decimal:
			return toDecimal(x)
		}
		return v, nil
	}
	return nil, fmt.Errorf("unexpected %T for %s field", v, t)
}

func toDecimal(v any) (*apd.Decimal, error) {
	var text string
	switch x := v.(type) {
	case string:
		text = x
	case int64:
		return apd.New(x, 0), nil
	case float64:
		text = strconv.FormatFloat(x, 'f', -1, 64)
	case duckdb.Decimal:
		// DECIMAL(38,10) columns come back padded to their scale.
		text = x.String()
	default:
		text = fmt.Sprint(x)
	}
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("decimal %q: %w", text, err)
	}
	return d, nil
}
