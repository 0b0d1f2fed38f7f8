// Package ast defines the syntax tree produced by the query grammar.
//
// ARCHITECTURE:
//
// The tree sits between the grammar engine and the target compilers:
//
//	[query text] → [parser] → [ast.SelectStatement] → [querysql] → relational filter
//	                                                → [querydoc] → document filter
//
// SEALED INTERFACE:
//
// Node is sealed with a marker method. Only types in this package implement
// it, so the set of node kinds is closed. Compilers never type-switch on
// nodes themselves: they implement Visitor and let Accept route each node to
// the matching method. Adding a node kind means adding a Visitor method,
// which breaks every compiler at build time until it handles the new kind.
//
// Example:
//
//	stmt, _ := parser.Parse("select a from b where c = 1")
//	out, err := ast.Accept[relational.Expr](stmt.Where, visitor)
//
// IMMUTABILITY:
//
// Nodes are built bottom-up once, during parsing, and never mutated after.
// The tree has no parent pointers and no sharing between statements, so a
// parsed statement may be compiled from several goroutines at once.
//
// TEXT FORM:
//
// Every node renders itself back to query text with String. The output is
// canonical (upper-case keywords, single spaces, double-quoted strings) and
// re-parses to a structurally equal tree; see Equal.
package ast
