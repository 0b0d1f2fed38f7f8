// Package compiler holds what the relational and document compilers share:
// the compile error taxonomy, the nesting guard, statement checks and
// literal extraction.
package compiler

import (
	"github.com/cockroachdb/apd/v3"

	"github.com/Flushot/sqlparse/internal/ast"
)

// DefaultMaxDepth is the nesting limit used when none is configured.
const DefaultMaxDepth = 256

// Guard bounds recursion while a compiler walks a tree. A Guard belongs to
// one compile call.
type Guard struct {
	limit int
	depth int
}

// NewGuard creates a guard; limit < 1 selects DefaultMaxDepth.
func NewGuard(limit int) *Guard {
	if limit < 1 {
		limit = DefaultMaxDepth
	}
	return &Guard{limit: limit}
}

// Enter records one level of nesting at n. Every successful Enter must be
// paired with Leave.
func (g *Guard) Enter(n ast.Node) error {
	if g.depth >= g.limit {
		return NewQueryTooComplex(g.limit, n)
	}
	g.depth++
	return nil
}

// Leave pops one level.
func (g *Guard) Leave() {
	g.depth--
}

// SingleTable returns the only table of stmt's FROM clause.
func SingleTable(stmt *ast.SelectStatement) (*ast.Identifier, error) {
	switch len(stmt.Tables) {
	case 0:
		return nil, NewMissingTable()
	case 1:
		return stmt.Tables[0], nil
	}
	return nil, NewMultiTable(stmt.TableNames())
}

// CheckStatement rejects statement-level constructs no compiler supports.
func CheckStatement(stmt *ast.SelectStatement) error {
	if len(stmt.SetOps) > 0 {
		return NewUnsupportedOperator(stmt.SetOps[0].Op.String(), stmt.SetOps[0].Select)
	}
	return nil
}

// Projection returns the selected column names, or nil when the projection
// contains "*".
func Projection(stmt *ast.SelectStatement) []string {
	if stmt.IsStar() {
		return nil
	}
	names := make([]string, 0, len(stmt.Columns))
	for _, c := range stmt.Columns {
		if ident, ok := c.(*ast.Identifier); ok {
			names = append(names, ident.Name)
		}
	}
	return names
}

// Literal returns the Go value of a literal node: string, int64 or
// *apd.Decimal. ok is false for anything that is not a literal.
func Literal(n ast.Node) (v any, ok bool) {
	switch n := n.(type) {
	case *ast.StringLiteral:
		return n.Value, true
	case *ast.IntegerLiteral:
		return n.Value, true
	case *ast.RealLiteral:
		return new(apd.Decimal).Set(n.Value), true
	}
	return nil, false
}
