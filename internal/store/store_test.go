package store

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flushot/sqlparse/internal/parser"
	"github.com/Flushot/sqlparse/internal/querysql"
	"github.com/Flushot/sqlparse/internal/schema"
	"github.com/Flushot/sqlparse/internal/testutil"
)

// createTestStore opens a SQLite store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedUsers creates the users table and inserts testutil.Users.
func seedUsers(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	m := testutil.UserModel()
	require.NoError(t, s.CreateTable(ctx, m))

	rows := make([]Row, 0, 9)
	for _, u := range testutil.Users() {
		rows = append(rows, Row(u))
	}
	require.NoError(t, s.Insert(ctx, m, rows...))
}

func find(t *testing.T, s *Store, query string) []Row {
	t.Helper()
	stmt, err := parser.Parse(query)
	require.NoError(t, err)
	res, err := querysql.Compile(stmt, testutil.Registry())
	require.NoError(t, err)
	rows, err := s.Find(context.Background(), res)
	require.NoError(t, err)
	return rows
}

func names(rows []Row) []string {
	plain := make([]map[string]any, len(rows))
	for i, r := range rows {
		plain[i] = r
	}
	return testutil.FullNames(plain)
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if s.Dialect().Name != "sqlite3" {
		t.Errorf("Dialect() = %q, want sqlite3", s.Dialect().Name)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("sqlite3", "/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "")
	if err == nil {
		t.Error("expected error for unknown driver, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)

	db := s.DB()
	if db == nil {
		t.Fatal("DB() returned nil")
	}
	if err := db.Ping(); err != nil {
		t.Errorf("DB() connection not usable: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		if err := s.verifyPragma(tt.name, tt.want); err != nil {
			t.Error(err)
		}
	}
}

func TestFind_AllRowsInKeyOrder(t *testing.T) {
	s := createTestStore(t)
	seedUsers(t, s)

	rows := find(t, s, "select * from User")
	require.Len(t, rows, 9)
	for i, r := range rows {
		assert.Equal(t, int64(i+1), r["id"])
	}
	assert.Equal(t, Row{"id": int64(3), "first_name": "John", "last_name": "Lyon", "is_active": false, "age": int64(45)}, rows[2])
}

func TestFind_NestedNegation(t *testing.T) {
	s := createTestStore(t)
	seedUsers(t, s)

	// SQL compares booleans as integers, so is_active = 1 matches active
	// users and only the inactive ones remain.
	rows := find(t, s, "select first_name, last_name from User where not (last_name = 'Jacob' or "+
		"(first_name != 'Chris' and last_name != 'Lyon')) and not is_active = 1")

	assert.Equal(t, []string{"John Lyon", "Bob Lyon"}, names(rows))
	assert.Equal(t, Row{"first_name": "John", "last_name": "Lyon"}, rows[0])
}

func TestFind_XorTruthTable(t *testing.T) {
	s := createTestStore(t)
	seedUsers(t, s)

	rows := find(t, s, "select id from User where age > 30 xor last_name = 'Lyon'")

	var want []int64
	for _, u := range testutil.Users() {
		l := u["age"].(int64) > 30
		r := u["last_name"] == "Lyon"
		if l != r {
			want = append(want, u["id"].(int64))
		}
	}
	var got []int64
	for _, r := range rows {
		got = append(got, r["id"].(int64))
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []int64{1, 2, 4, 5, 7, 9}, got)
}

func TestFind_Predicates(t *testing.T) {
	s := createTestStore(t)
	seedUsers(t, s)

	tests := []struct {
		where string
		want  []string
	}{
		{"age between 19 and 28.5", []string{"Chris Lyon", "Bob Lyon", "Dave Jones"}},
		{"age not between 20 and 50", []string{"Bob Lyon", "Chris Jacob"}},
		{"first_name in ('Eve', 'Mary')", []string{"Mary Smith", "Eve Brown"}},
		{"last_name not in ('Lyon', 'Smith', 'Jacob')", []string{"Dave Jones", "Eve Brown"}},
		{"first_name like 'Ch%' and last_name like '_yon'", []string{"Chris Lyon"}},
		{"is_active is false and age > 40", []string{"John Lyon"}},
		{"is_active is not true and last_name <=> 'Jacob'", []string{"Alice Jacob"}},
		{"first_name is null", nil},
		{"id >= 8", []string{"Dave Jones", "Eve Brown"}},
	}

	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			rows := find(t, s, "select * from User where "+tt.where)
			if tt.want == nil {
				assert.Empty(t, rows)
				return
			}
			assert.Equal(t, tt.want, names(rows))
		})
	}
}

func TestInsert_Idempotent(t *testing.T) {
	s := createTestStore(t)
	seedUsers(t, s)
	seedUsers(t, s)

	assert.Len(t, find(t, s, "select * from User"), 9)
}

func TestInsert_UnknownField(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	m := testutil.UserModel()
	require.NoError(t, s.CreateTable(ctx, m))

	err := s.Insert(ctx, m, Row{"id": int64(1), "password": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "password"`)
}

func TestCreateTable_NoFields(t *testing.T) {
	s := createTestStore(t)
	err := s.CreateTable(context.Background(), &schema.Model{Name: "Empty"})
	assert.Error(t, err)
}

func TestFind_Decimals(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	item := &schema.Model{
		Name: "Item",
		Key:  "id",
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeInt},
			{Name: "price", Type: schema.TypeDecimal},
		},
	}
	require.NoError(t, s.CreateTable(ctx, item))

	price := func(s string) *apd.Decimal {
		d, _, err := apd.NewFromString(s)
		require.NoError(t, err)
		return d
	}
	require.NoError(t, s.Insert(ctx, item,
		Row{"id": int64(1), "price": price("19.99")},
		Row{"id": int64(2), "price": price("30.75")},
		Row{"id": int64(3), "price": price("5")},
	))

	stmt, err := parser.Parse("select * from Item where price between 10 and 30.5")
	require.NoError(t, err)
	res, err := querysql.Compile(stmt, schema.NewStatic(item))
	require.NoError(t, err)

	rows, err := s.Find(ctx, res)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "19.99", rows[0]["price"].(*apd.Decimal).String())
}

func TestDuckDB_Find(t *testing.T) {
	s, err := Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	seedUsers(t, s)

	rows := find(t, s, "select * from User where last_name = 'Lyon' and age > 20")
	assert.Equal(t, []string{"Chris Lyon", "John Lyon"}, names(rows))
	assert.Equal(t, true, rows[0]["is_active"])

	rows = find(t, s, "select first_name from User where age <=> 45 or is_active is not true and age < 20")
	require.Len(t, rows, 2)
	assert.Equal(t, "John", rows[0]["first_name"])
	assert.Equal(t, "Bob", rows[1]["first_name"])
}

func TestFind_TextKeyOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tag := &schema.Model{
		Name:   "Tag",
		Key:    "name",
		Fields: []schema.Field{{Name: "name", Type: schema.TypeString}, {Name: "uses", Type: schema.TypeInt}},
	}
	require.NoError(t, s.CreateTable(ctx, tag))
	require.NoError(t, s.Insert(ctx, tag,
		Row{"name": "beta", "uses": int64(3)},
		Row{"name": "Alpha", "uses": int64(1)},
		Row{"name": "alpha", "uses": int64(2)},
	))

	stmt, err := parser.Parse("select name from Tag where uses > 0")
	require.NoError(t, err)
	res, err := querysql.Compile(stmt, schema.NewStatic(tag))
	require.NoError(t, err)

	sql, _, err := res.Render(s.Dialect())
	require.NoError(t, err)
	assert.Contains(t, sql, `ORDER BY "name" COLLATE BINARY ASC`)

	rows, err := s.Find(ctx, res)
	require.NoError(t, err)
	got := make([]any, len(rows))
	for i, r := range rows {
		got[i] = r["name"]
	}
	assert.Equal(t, []any{"Alpha", "alpha", "beta"}, got)
}

func TestDuckDB_DecimalsCompareExactly(t *testing.T) {
	s, err := Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	reading := &schema.Model{
		Name:   "Reading",
		Key:    "id",
		Fields: []schema.Field{{Name: "id", Type: schema.TypeInt}, {Name: "x", Type: schema.TypeDecimal}},
	}
	require.NoError(t, s.CreateTable(ctx, reading))

	dec := func(s string) *apd.Decimal {
		d, _, err := apd.NewFromString(s)
		require.NoError(t, err)
		return d
	}
	require.NoError(t, s.Insert(ctx, reading,
		Row{"id": int64(1), "x": dec("0.1")},
		Row{"id": int64(2), "x": dec("0.0012")},
		Row{"id": int64(3), "x": dec("0.0013")},
		Row{"id": int64(4), "x": dec("12345678.0000000001")},
		Row{"id": int64(5), "x": dec("12345678.0000000002")},
	))

	ids := func(query string) []any {
		t.Helper()
		stmt, err := parser.Parse(query)
		require.NoError(t, err)
		res, err := querysql.Compile(stmt, schema.NewStatic(reading))
		require.NoError(t, err)
		rows, err := s.Find(ctx, res)
		require.NoError(t, err)
		out := make([]any, len(rows))
		for i, r := range rows {
			out[i] = r["id"]
		}
		return out
	}

	assert.Equal(t, []any{int64(1)}, ids("select id from Reading where x = 0.1"))
	assert.Equal(t, []any{int64(2)}, ids("select id from Reading where x = 1.2e-3"))
	assert.Equal(t, []any{int64(3)}, ids("select id from Reading where x > 1.2e-3 and x < 0.1"))
	// Both values round to the same double; only an exact cast tells them apart.
	assert.Equal(t, []any{int64(4)}, ids("select id from Reading where x = 12345678.0000000001"))

	rows, err := s.Find(ctx, mustCompile(t, "select * from Reading where id = 5", reading))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "12345678.0000000002", rows[0]["x"].(*apd.Decimal).String())
}

func mustCompile(t *testing.T, query string, m *schema.Model) *querysql.Result {
	t.Helper()
	stmt, err := parser.Parse(query)
	require.NoError(t, err)
	res, err := querysql.Compile(stmt, schema.NewStatic(m))
	require.NoError(t, err)
	return res
}

func TestOpen_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := Open("sqlite3", ":memory:", WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	seedUsers(t, s)
	find(t, s, "select * from User where age > 30")

	assert.Contains(t, buf.String(), "store opened")
	assert.Contains(t, buf.String(), "store query")
}

func TestNormalize(t *testing.T) {
	v, err := normalize(schema.TypeBool, int64(1))
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = normalize(schema.TypeString, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", v)

	v, err = normalize(schema.TypeInt, nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = normalize(schema.TypeDecimal, float64(2.5))
	require.NoError(t, err)
	assert.Equal(t, "2.5", v.(*apd.Decimal).String())

	_, err = normalize(schema.TypeBool, "yes")
	assert.Error(t, err)
}
