// Package relational is the target representation of the relational
// compiler: a small, sealed expression tree for SQL WHERE clauses and a
// renderer that turns it into parameterized SQL for a Dialect.
//
// ARCHITECTURE:
//
//	[AST] → querysql → [relational.Select] → Render(dialect) → SQL + params
//
// The tree is deliberately close to SQL. Every operator the query language
// has either maps onto one node here or is rewritten by the compiler into a
// combination of nodes (BETWEEN becomes two comparisons under And, XOR
// becomes And(Or(l, r), Not(And(l, r)))).
//
// SEALED INTERFACES:
//
// Expr and Operand use the marker method pattern, so the renderer's type
// switches are exhaustive over this package's types.
//
// RENDERING RULES:
//   - Values are never interpolated; every literal becomes a "?" parameter.
//   - Identifiers are double-quoted.
//   - And, Or and Not always parenthesize their operands, so the rendered
//     text keeps the exact tree shape.
//   - Decimals are bound as text and cast in SQL so no binary float is
//     ever created on the Go side.
package relational
