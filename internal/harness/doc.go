// Package harness runs conformance scenarios for the query compilers.
//
// A scenario names a query, the target it compiles to and what the
// compiled output must look like. It can also seed data and check which
// records the query selects.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: nested_negation
//	description: "NOT distributes over a grouped OR"
//	schema: ../schema           # optional, directory of CUE model files
//	target: sql                 # sql or doc
//	dialect: sqlite3            # sql only: sqlite3 (default) or duckdb
//	query: "select * from User where not (a = 1 or b = 2)"
//	max_depth: 64               # optional nesting bound
//	data:                       # optional rows per model
//	  User:
//	    - { id: 1, first_name: Chris }
//	expect_error: UNMAPPED_PROPERTY
//	expect_filter: 'NOT (("a" = ?) OR ("b" = ?))'
//	expect_params: [1, 2]
//	expect_projection: [first_name]
//	expect_keys: [1, 2]
//
// For the sql target expect_filter is the rendered WHERE expression; for
// the doc target it is the canonical JSON of the filter. expect_error is a
// code as returned by compiler.CodeOf and excludes the other expectations.
//
// # Golden Files
//
// RunWithGolden snapshots the compiled output as canonical JSON under
// testdata/golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
