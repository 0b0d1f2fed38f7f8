package testutil

import (
	"github.com/Flushot/sqlparse/internal/schema"
)

// UserModel returns the "User" model stored in the "users" table.
func UserModel() *schema.Model {
	return &schema.Model{
		Name:   "User",
		Source: "users",
		Key:    "id",
		Fields: []schema.Field{
			{Name: "id", Type: schema.TypeInt},
			{Name: "first_name", Type: schema.TypeString},
			{Name: "last_name", Type: schema.TypeString},
			{Name: "is_active", Type: schema.TypeBool},
			{Name: "age", Type: schema.TypeInt},
		},
	}
}

// Registry returns a registry holding only UserModel.
func Registry() *schema.Registry {
	return NewRegistry()
}

// NewRegistry returns a registry holding UserModel plus extra models.
func NewRegistry(extra ...*schema.Model) *schema.Registry {
	return schema.NewStatic(append([]*schema.Model{UserModel()}, extra...)...)
}

// Users returns nine seed rows for UserModel, ordered by id. A fresh slice
// is returned on every call.
//
// Four users satisfy
//
//	not (last_name = 'Jacob' or (first_name != 'Chris' and last_name != 'Lyon'))
//
// (ids 1 to 4); of those, ids 3 and 4 are inactive.
func Users() []map[string]any {
	return []map[string]any{
		user(1, "Chris", "Smith", true, 34),
		user(2, "Chris", "Lyon", true, 28),
		user(3, "John", "Lyon", false, 45),
		user(4, "Bob", "Lyon", false, 19),
		user(5, "Chris", "Jacob", true, 52),
		user(6, "Alice", "Jacob", false, 30),
		user(7, "Mary", "Smith", true, 41),
		user(8, "Dave", "Jones", false, 23),
		user(9, "Eve", "Brown", true, 37),
	}
}

func user(id int64, first, last string, active bool, age int64) map[string]any {
	return map[string]any{
		"id":         id,
		"first_name": first,
		"last_name":  last,
		"is_active":  active,
		"age":        age,
	}
}

// FullNames returns "first last" for each row.
func FullNames(rows []map[string]any) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		first, _ := r["first_name"].(string)
		last, _ := r["last_name"].(string)
		names[i] = first + " " + last
	}
	return names
}
