package relational

import (
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(name string) Column { return Column{Name: name} }

func lit(v any) Literal { return Literal{Value: v} }

func TestRender_SimpleSelect(t *testing.T) {
	sel := &Select{
		From:    "users",
		Columns: []string{"first_name", "last_name"},
		Filter:  Compare{Op: OpEq, Column: col("last_name"), Right: lit("Lyon")},
		OrderBy: []string{"id"},
	}

	sql, params, err := Render(sel, SQLite)
	require.NoError(t, err)

	assert.Equal(t, `SELECT "first_name", "last_name" FROM "users" WHERE "last_name" = ? ORDER BY "id" COLLATE BINARY ASC`, sql)
	assert.Equal(t, []any{"Lyon"}, params)
	assert.NotContains(t, sql, "Lyon")
}

func TestRender_StarAndDistinct(t *testing.T) {
	sql, params, err := Render(&Select{From: "users", Distinct: true}, DuckDB)
	require.NoError(t, err)

	assert.Equal(t, `SELECT DISTINCT * FROM "users"`, sql)
	assert.Empty(t, params)
}

func TestRender_TreeShapeIsPreserved(t *testing.T) {
	a := Compare{Op: OpEq, Column: col("a"), Right: lit(int64(1))}
	b := Compare{Op: OpGt, Column: col("b"), Right: lit(int64(2))}
	c := IsNull{Column: col("c"), Negated: true}

	tests := []struct {
		name   string
		expr   Expr
		sql    string
		params []any
	}{
		{"right leaning", And{Left: a, Right: And{Left: b, Right: c}}, `("a" = ? AND ("b" > ? AND "c" IS NOT NULL))`, []any{int64(1), int64(2)}},
		{"left leaning", And{Left: Or{Left: a, Right: b}, Right: c}, `(("a" = ? OR "b" > ?) AND "c" IS NOT NULL)`, []any{int64(1), int64(2)}},
		{"not", Not{Expr: a}, `NOT ("a" = ?)`, []any{int64(1)}},
		{
			"xor identity",
			And{Left: Or{Left: a, Right: b}, Right: Not{Expr: And{Left: a, Right: b}}},
			`(("a" = ? OR "b" > ?) AND NOT (("a" = ? AND "b" > ?)))`,
			[]any{int64(1), int64(2), int64(1), int64(2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := RenderExpr(tt.expr, SQLite)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestRender_Predicates(t *testing.T) {
	dec, _, err := apd.NewFromString("30.5")
	require.NoError(t, err)

	tests := []struct {
		name    string
		expr    Expr
		dialect Dialect
		sql     string
		params  []any
	}{
		{"in", In{Column: col("a"), Values: []Operand{lit(int64(1)), lit("x")}}, SQLite, `"a" IN (?, ?)`, []any{int64(1), "x"}},
		{"not in", &In{Column: col("a"), Values: []Operand{lit(int64(1))}, Negated: true}, SQLite, `"a" NOT IN (?)`, []any{int64(1)}},
		{"like", Like{Column: col("a"), Pattern: "%x_"}, SQLite, `"a" LIKE ?`, []any{"%x_"}},
		{"not like", Like{Column: col("a"), Pattern: "x", Negated: true}, SQLite, `"a" NOT LIKE ?`, []any{"x"}},
		{"is null", IsNull{Column: col("a")}, SQLite, `"a" IS NULL`, nil},
		{"column operand", Compare{Op: OpNe, Column: col("y.a"), Right: col("z.a")}, SQLite, `"y"."a" <> "z"."a"`, nil},
		{"decimal sqlite", Compare{Op: OpLe, Column: col("c"), Right: lit(dec)}, SQLite, `"c" <= CAST(? AS NUMERIC)`, []any{"30.5"}},
		{"decimal duckdb", Compare{Op: OpLe, Column: col("c"), Right: lit(dec)}, DuckDB, `"c" <= CAST(? AS DECIMAL(3,1))`, []any{"30.5"}},
		{"null safe sqlite", Compare{Op: OpIs, Column: col("c"), Right: lit(true)}, SQLite, `"c" IS ?`, []any{true}},
		{"null safe duckdb", Compare{Op: OpIsNot, Column: col("c"), Right: lit(false)}, DuckDB, `"c" IS DISTINCT FROM ?`, []any{false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := RenderExpr(tt.expr, tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestRender_DuckDBDecimalWidth(t *testing.T) {
	tests := []struct {
		literal string
		cast    string
		param   string
	}{
		{"0.1", "DECIMAL(1,1)", "0.1"},
		{"1.2e-3", "DECIMAL(4,4)", "0.0012"},
		{"1.50", "DECIMAL(3,2)", "1.50"},
		{"-12.345", "DECIMAL(5,3)", "-12.345"},
		{"1e5", "DECIMAL(6,0)", "100000"},
		{"0.0", "DECIMAL(1,1)", "0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			d, _, err := apd.NewFromString(tt.literal)
			require.NoError(t, err)
			sql, params, err := RenderExpr(Compare{Op: OpEq, Column: col("x"), Right: lit(d)}, DuckDB)
			require.NoError(t, err)
			assert.Equal(t, `"x" = CAST(? AS `+tt.cast+`)`, sql)
			assert.Equal(t, []any{tt.param}, params)
		})
	}

	// Wider than DuckDB allows: an error, never a lossy cast.
	wide, _, err := apd.NewFromString("1234567890123456789012345678901234567890.5")
	require.NoError(t, err)
	_, _, err = RenderExpr(Compare{Op: OpEq, Column: col("x"), Right: lit(wide)}, DuckDB)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs width 41")

	// SQLite keeps its untyped NUMERIC cast.
	sql, _, err := RenderExpr(Compare{Op: OpEq, Column: col("x"), Right: lit(wide)}, SQLite)
	require.NoError(t, err)
	assert.Equal(t, `"x" = CAST(? AS NUMERIC)`, sql)
}

func TestRender_UnsupportedLiteral(t *testing.T) {
	_, _, err := RenderExpr(Compare{Op: OpEq, Column: col("a"), Right: lit(1.5)}, SQLite)
	assert.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"a"`, QuoteIdent("a"))
	assert.Equal(t, `"sys"."blah"`, QuoteIdent("sys.blah"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	d, err = DialectFor("duckdb")
	require.NoError(t, err)
	assert.Equal(t, DuckDB, d)

	_, err = DialectFor("postgres")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(&Select{From: "t"}))

	err := Validate(&Select{
		Columns: []string{""},
		Filter:  And{Left: In{Column: col("a")}, Right: nil},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"missing table name",
		"empty column name at position 0",
		"empty IN list on a",
		"nil expression",
	}, ve.Problems)

	_, _, err = Render(&Select{}, SQLite)
	assert.True(t, IsValidationError(err))
}
