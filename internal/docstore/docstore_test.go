package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flushot/sqlparse/internal/document"
	"github.com/Flushot/sqlparse/internal/parser"
	"github.com/Flushot/sqlparse/internal/querydoc"
	"github.com/Flushot/sqlparse/internal/testutil"
)

func seededDB(t *testing.T) *Database {
	t.Helper()
	db := NewDatabase()
	n, err := db.Collection("users", "id").InsertNative(testutil.Users()...)
	require.NoError(t, err)
	require.Equal(t, 9, n)
	return db
}

func find(t *testing.T, db *Database, query string) []document.Object {
	t.Helper()
	stmt, err := parser.Parse(query)
	require.NoError(t, err)
	res, err := querydoc.Compile(stmt, testutil.Registry())
	require.NoError(t, err)
	docs, err := db.Find(res)
	require.NoError(t, err)
	return docs
}

func names(docs []document.Object) []string {
	rows := make([]map[string]any, len(docs))
	for i, d := range docs {
		rows[i] = document.ToNative(d).(map[string]any)
	}
	return testutil.FullNames(rows)
}

func ids(docs []document.Object) []int64 {
	out := make([]int64, len(docs))
	for i, d := range docs {
		out[i] = int64(d["id"].(document.Int))
	}
	return out
}

func TestFind_NestedNegation(t *testing.T) {
	db := seededDB(t)

	// Booleans never equal integers here, so "not is_active = 1" holds for
	// every user and only the first group decides.
	docs := find(t, db, "select first_name, last_name from User where not (last_name = 'Jacob' or "+
		"(first_name != 'Chris' and last_name != 'Lyon')) and not is_active = 1")

	assert.Equal(t, []string{"Chris Smith", "Chris Lyon", "John Lyon", "Bob Lyon"}, names(docs))
	assert.Equal(t, document.Object{"first_name": document.String("Chris"), "last_name": document.String("Smith")}, docs[0])
}

func TestFind_AllDocuments(t *testing.T) {
	db := seededDB(t)

	docs := find(t, db, "select * from User")
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}, ids(docs))
	assert.Equal(t, document.Bool(false), docs[2]["is_active"])
}

func TestFind_XorTruthTable(t *testing.T) {
	db := seededDB(t)

	docs := find(t, db, "select * from User where age > 30 xor last_name = 'Lyon'")
	assert.Equal(t, []int64{1, 2, 4, 5, 7, 9}, ids(docs))
}

func TestFind_Predicates(t *testing.T) {
	db := seededDB(t)

	tests := []struct {
		where string
		want  []string
	}{
		{"age between 19 and 28.5", []string{"Chris Lyon", "Bob Lyon", "Dave Jones"}},
		{"age not between 20 and 50", []string{"Bob Lyon", "Chris Jacob"}},
		{"first_name in ('Eve', 'Mary')", []string{"Mary Smith", "Eve Brown"}},
		{"last_name not in ('Lyon', 'Smith', 'Jacob')", []string{"Dave Jones", "Eve Brown"}},
		{"first_name like 'Ch%' and last_name like '_yon'", []string{"Chris Lyon"}},
		{"first_name like 'ch%'", nil},
		{"is_active is false and age > 40", []string{"John Lyon"}},
		{"is_active = true and last_name = 'Smith'", []string{"Chris Smith", "Mary Smith"}},
		{"is_active is not true and last_name <=> 'Jacob'", []string{"Alice Jacob"}},
		{"first_name is null", nil},
		{"first_name is not null and id >= 8", []string{"Dave Jones", "Eve Brown"}},
		{"last_name >= 'S'", []string{"Chris Smith", "Mary Smith"}},
	}

	for _, tt := range tests {
		t.Run(tt.where, func(t *testing.T) {
			docs := find(t, db, "select * from User where "+tt.where)
			if tt.want == nil {
				assert.Empty(t, docs)
				return
			}
			assert.Equal(t, tt.want, names(docs))
		})
	}
}

func TestFind_UnknownCollection(t *testing.T) {
	db := NewDatabase()
	docs := find(t, db, "select * from User where age > 1")
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestInsert_SkipsDuplicateKeys(t *testing.T) {
	db := seededDB(t)
	c := db.Collection("users", "id")

	n, err := c.InsertNative(testutil.Users()...)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 9, c.Len())
	assert.Equal(t, []string{"users"}, db.Names())
}

func TestInsert_MissingKey(t *testing.T) {
	c := NewCollection("users", "id")
	_, err := c.Insert(document.Object{"name": document.String("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no "id" field`)
}

func TestMatch_Operators(t *testing.T) {
	doc := document.Object{
		"n":    document.Int(7),
		"s":    document.String("hello"),
		"b":    document.Bool(true),
		"tags": document.Array{document.String("a"), document.String("b")},
		"nil":  document.Null{},
	}

	tests := []struct {
		filter string
		want   bool
	}{
		{`{}`, true},
		{`{"n": 7}`, true},
		{`{"n": 7.0}`, true},
		{`{"n": true}`, false},
		{`{"b": 1}`, false},
		{`{"b": true}`, true},
		{`{"n": {"$eq": 7, "$ne": 8}}`, true},
		{`{"n": {"$gt": 6, "$lt": 8}}`, true},
		{`{"n": {"$gte": 7.5}}`, false},
		{`{"n": {"$lte": "9"}}`, false},
		{`{"s": {"$lt": "i"}}`, true},
		{`{"n": {"$in": [1, 7]}}`, true},
		{`{"n": {"$nin": [1, 7]}}`, false},
		{`{"s": {"$regex": "^h.*o$"}}`, true},
		{`{"n": {"$regex": "7"}}`, false},
		{`{"n": {"$mod": [4, 3]}}`, true},
		{`{"n": {"$mod": [2, 0]}}`, false},
		{`{"tags": "b"}`, true},
		{`{"tags": ["a", "b"]}`, true},
		{`{"nil": null}`, true},
		{`{"missing": null}`, true},
		{`{"missing": {"$ne": 1}}`, true},
		{`{"$and": [{"n": 7}, {"s": "hello"}]}`, true},
		{`{"$or": [{"n": 1}, {"s": "nope"}]}`, false},
		{`{"$nor": [{"n": 1}]}`, true},
		{`{"n": 7, "s": "nope"}`, false},
		{`{"s": {"x": 1}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			filter, err := document.ParseObject([]byte(tt.filter))
			require.NoError(t, err)
			m, err := Compile(filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m(doc))
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		filter string
		want   string
	}{
		{`{"$xor": []}`, "unknown top-level operator $xor"},
		{`{"$and": []}`, "$and needs a non-empty array"},
		{`{"$or": [1]}`, "expected an object"},
		{`{"n": {"$foo": 1}}`, "n: unknown operator $foo"},
		{`{"n": {"$in": 1}}`, "$in needs an array"},
		{`{"n": {"$regex": 1}}`, "$regex needs a string"},
		{`{"n": {"$regex": "("}}`, "$regex"},
		{`{"n": {"$mod": [0, 1]}}`, "$mod needs a non-zero"},
		{`{"n": {"$mod": [1]}}`, "$mod needs [divisor, remainder]"},
		{`{"$nor": [{"n": {"$bad": 1}}]}`, "$nor[0]: n: unknown operator $bad"},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			filter, err := document.ParseObject([]byte(tt.filter))
			require.NoError(t, err)
			_, err = Compile(filter)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFind_Projection(t *testing.T) {
	c := NewCollection("c", "")
	_, err := c.Insert(
		document.Object{"a": document.Int(1), "b": document.Int(2)},
		document.Object{"a": document.Int(1)},
	)
	require.NoError(t, err)

	docs, err := c.Find(document.Object{}, document.Object{"b": document.Int(1)})
	require.NoError(t, err)
	assert.Equal(t, []document.Object{{"b": document.Int(2)}, {}}, docs)
}
