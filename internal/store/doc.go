// Package store runs compiled relational filters against a SQL database.
//
// Two drivers are supported:
//   - sqlite3 (github.com/mattn/go-sqlite3), file or ":memory:"
//   - duckdb (github.com/duckdb/duckdb-go/v2), file or "" for in-memory
//
// Tables are created from schema models; every field becomes a column whose
// SQL type follows the field type. Queries are always rendered with bound
// parameters, never interpolated values.
//
// # Deterministic Results
//
// Find orders by the model key when the model has one. SQLite compares the
// key with COLLATE BINARY so text keys sort the same on every platform.
//
// # Database Configuration (sqlite3)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
