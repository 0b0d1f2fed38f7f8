package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flushot/sqlparse/internal/compiler"
	"github.com/Flushot/sqlparse/internal/parser"
	"github.com/Flushot/sqlparse/internal/relational"
	"github.com/Flushot/sqlparse/internal/schema"
	"github.com/Flushot/sqlparse/internal/testutil"
)

func compile(t *testing.T, query string, opts ...Option) (*Result, error) {
	t.Helper()
	stmt, err := parser.Parse(query)
	require.NoError(t, err)
	return Compile(stmt, testutil.Registry(), opts...)
}

func mustCompile(t *testing.T, query string) *Result {
	t.Helper()
	res, err := compile(t, query)
	require.NoError(t, err)
	return res
}

func eq(column string, v any) relational.Compare {
	return relational.Compare{Op: relational.OpEq, Column: relational.Column{Name: column}, Right: relational.Literal{Value: v}}
}

func TestCompile_SimpleSelect(t *testing.T) {
	res := mustCompile(t, "select first_name, last_name from User where last_name = 'Lyon'")

	assert.Equal(t, "User", res.Model.Name)
	assert.Equal(t, []string{"first_name", "last_name"}, res.Columns)
	assert.Equal(t, eq("last_name", "Lyon"), res.Filter)

	sql, params, err := res.Render(relational.SQLite)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "first_name", "last_name" FROM "users" WHERE "last_name" = ? ORDER BY "id" COLLATE BINARY ASC`, sql)
	assert.Equal(t, []any{"Lyon"}, params)
}

func TestCompile_StarAndNoWhere(t *testing.T) {
	res := mustCompile(t, "select distinct * from User")

	assert.Nil(t, res.Columns)
	assert.Nil(t, res.Filter)
	assert.True(t, res.Distinct)

	sql, params, err := res.Render(relational.DuckDB)
	require.NoError(t, err)
	assert.Equal(t, `SELECT DISTINCT * FROM "users" ORDER BY "id" ASC`, sql)
	assert.Empty(t, params)
}

func TestCompile_AndChainIsRightLeaning(t *testing.T) {
	res := mustCompile(t, "select * from User where age = 1 and age = 2 and age = 3")

	want := relational.And{
		Left:  eq("age", int64(1)),
		Right: relational.And{Left: eq("age", int64(2)), Right: eq("age", int64(3))},
	}
	assert.Equal(t, want, res.Filter)
}

func TestCompile_MixedChainKeepsSourceOrder(t *testing.T) {
	res := mustCompile(t, "select * from User where age = 1 or age = 2 and age = 3")

	want := relational.Or{
		Left:  eq("age", int64(1)),
		Right: relational.And{Left: eq("age", int64(2)), Right: eq("age", int64(3))},
	}
	assert.Equal(t, want, res.Filter)
}

func TestCompile_XorRewrite(t *testing.T) {
	res := mustCompile(t, "select * from User where age = 1 xor first_name = 'Chris'")

	l := eq("age", int64(1))
	r := eq("first_name", "Chris")
	want := relational.And{
		Left:  relational.Or{Left: l, Right: r},
		Right: relational.Not{Expr: relational.And{Left: l, Right: r}},
	}
	assert.Equal(t, want, res.Filter)

	sql, params, err := relational.RenderExpr(res.Filter, relational.SQLite)
	require.NoError(t, err)
	assert.Equal(t, `(("age" = ? OR "first_name" = ?) AND NOT (("age" = ? AND "first_name" = ?)))`, sql)
	assert.Equal(t, []any{int64(1), "Chris", int64(1), "Chris"}, params)
}

func TestCompile_Predicates(t *testing.T) {
	tests := []struct {
		name   string
		where  string
		sql    string
		params []any
	}{
		{"ne", "age != 3", `"age" <> ?`, []any{int64(3)}},
		{"ne alias", "age <> 3", `"age" <> ?`, []any{int64(3)}},
		{"lt", "age < 3", `"age" < ?`, []any{int64(3)}},
		{"le", "age <= 3", `"age" <= ?`, []any{int64(3)}},
		{"gt", "age > 3", `"age" > ?`, []any{int64(3)}},
		{"ge", "age >= 3", `"age" >= ?`, []any{int64(3)}},
		{"null safe eq", "age <=> 3", `"age" IS ?`, []any{int64(3)}},
		{"between", "age between 10 and 30.5", `("age" >= ? AND "age" <= CAST(? AS NUMERIC))`, []any{int64(10), "30.5"}},
		{"not between", "age not between 1 and 2", `NOT (("age" >= ? AND "age" <= ?))`, []any{int64(1), int64(2)}},
		{"in", "age in (1, 2, 2)", `"age" IN (?, ?, ?)`, []any{int64(1), int64(2), int64(2)}},
		{"not in", "last_name not in ('Lyon')", `"last_name" NOT IN (?)`, []any{"Lyon"}},
		{"like", "first_name like 'Ch%'", `"first_name" LIKE ?`, []any{"Ch%"}},
		{"not like", "first_name not like 'Ch%'", `"first_name" NOT LIKE ?`, []any{"Ch%"}},
		{"is null", "first_name is null", `"first_name" IS NULL`, nil},
		{"is unknown", "first_name is unknown", `"first_name" IS NULL`, nil},
		{"is not null", "first_name is not null", `"first_name" IS NOT NULL`, nil},
		{"is true", "is_active is true", `"is_active" IS ?`, []any{true}},
		{"is not false", "is_active is not false", `"is_active" IS NOT ?`, []any{false}},
		{"eq true", "is_active = true", `"is_active" = ?`, []any{true}},
		{"in truths", "is_active in (false, null)", `"is_active" IN (?, ?)`, []any{false, nil}},
		{"not", "not age = 1", `NOT ("age" = ?)`, []any{int64(1)}},
		{"column rhs", "first_name = last_name", `"first_name" = "last_name"`, nil},
		{"qualified column", "User.first_name = 'Chris'", `"first_name" = ?`, []any{"Chris"}},
		{"source qualified column", "users.age > 1", `"age" > ?`, []any{int64(1)}},
		{"real literal", "age = 1.2e-3", `"age" = CAST(? AS NUMERIC)`, []any{"0.0012"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustCompile(t, "select * from User where "+tt.where)
			sql, params, err := relational.RenderExpr(res.Filter, relational.SQLite)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompile_DuckDBNullSafe(t *testing.T) {
	res := mustCompile(t, "select * from User where age <=> 3 or is_active is not true")

	sql, params, err := relational.RenderExpr(res.Filter, relational.DuckDB)
	require.NoError(t, err)
	assert.Equal(t, `("age" IS NOT DISTINCT FROM ? OR "is_active" IS DISTINCT FROM ?)`, sql)
	assert.Equal(t, []any{int64(3), true}, params)
}

func TestCompile_MultiTable(t *testing.T) {
	_, err := compile(t, "select * from xyzzy, ABC")
	require.Error(t, err)
	assert.True(t, compiler.IsMultiTable(err))
	assert.Contains(t, err.Error(), "xyzzy, ABC")
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		check func(error) bool
	}{
		{"unmapped where field", "select * from User where password = 'x'", compiler.IsUnmappedProperty},
		{"unmapped projection", "select password from User", compiler.IsUnmappedProperty},
		{"unmapped rhs column", "select * from User where age = salary", compiler.IsUnmappedProperty},
		{"other table prefix", "select * from User where Order.id = 1", compiler.IsUnmappedProperty},
		{"in sub-select", "select * from User where age in (select age from User)", compiler.IsUnsupportedOperator},
		{"compare sub-select", "select * from User where age = (select age from User)", compiler.IsUnsupportedOperator},
		{"union", "select * from User union select * from User", compiler.IsUnsupportedOperator},
		{"no from", "select a", compiler.IsMissingTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compile(t, tt.query)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestCompile_ErrorNamesNode(t *testing.T) {
	_, err := compile(t, "select * from User where age = 1 and password = 'x'")
	require.Error(t, err)

	var ce *compiler.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, compiler.ErrCodeUnmappedProperty, ce.Code)
	assert.Equal(t, "password", ce.Node.String())
}

func TestCompile_UnknownModel(t *testing.T) {
	_, err := compile(t, "select * from Nope where a = 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrModelNotFound)
}

func TestCompile_MaxDepth(t *testing.T) {
	query := "select * from User where age = 1 and age = 2 and age = 3"

	_, err := compile(t, query, WithMaxDepth(2))
	require.Error(t, err)
	assert.True(t, compiler.IsQueryTooComplex(err))

	_, err = compile(t, query, WithMaxDepth(3))
	assert.NoError(t, err)
}

func TestCompile_Schemaless(t *testing.T) {
	stmt, err := parser.Parse("select a, b from things where c = 1")
	require.NoError(t, err)

	res, err := Compile(stmt, schema.Schemaless{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Columns)

	sql, params, err := res.Render(relational.SQLite)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "a", "b" FROM "things" WHERE "c" = ?`, sql)
	assert.Equal(t, []any{int64(1)}, params)
}

func TestCompile_NilStatement(t *testing.T) {
	_, err := Compile(nil, testutil.Registry())
	assert.Error(t, err)
}

func TestCompile_DoesNotMutateAST(t *testing.T) {
	stmt, err := parser.Parse("select * from User where not (age = 1 xor age between 2 and 3)")
	require.NoError(t, err)
	before := stmt.String()

	_, err = Compile(stmt, testutil.Registry())
	require.NoError(t, err)
	assert.Equal(t, before, stmt.String())
}
