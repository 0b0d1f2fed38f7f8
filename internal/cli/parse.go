package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Flushot/sqlparse/internal/ast"
	"github.com/Flushot/sqlparse/internal/builder"
	"github.com/Flushot/sqlparse/internal/parser"
)

// ParseResult is the JSON payload of the parse command.
type ParseResult struct {
	Query     string `json:"query"`     // canonical query text
	Depth     int    `json:"depth"`     // nesting depth of the tree
	Statement any    `json:"statement"` // syntax tree
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query and print its syntax tree",
		Long: `Parse a SELECT query without compiling it.

Text output is the canonical query text. JSON output carries the full
syntax tree. Syntax errors point at the column where parsing stopped.

Examples:
  sqlparse parse "SELECT * FROM users WHERE age > 30"
  sqlparse parse --format json "SELECT a FROM t WHERE NOT (a = 1 OR b = 2)"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runParse(opts *RootOptions, query string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	stmt, err := parser.Parse(query, parser.WithMaxDepth(opts.MaxDepth))
	if err != nil {
		return outputError(formatter, err, syntaxDetails(query, err))
	}

	tree, err := ast.Accept[any](stmt, treeVisitor{})
	if err != nil {
		return outputError(formatter, err, nil)
	}
	return formatter.Success(ParseResult{
		Query:     stmt.String(),
		Depth:     ast.Depth(stmt),
		Statement: tree,
	}, stmt.String())
}

// syntaxDetails returns the caret excerpt for a syntax error, or nil.
func syntaxDetails(query string, err error) any {
	var se *parser.SyntaxError
	if errors.As(err, &se) {
		return builder.Caret(query, se.Line, se.Col)
	}
	return nil
}

// treeVisitor renders a syntax tree as nested maps for JSON output.
type treeVisitor struct{}

type treeNode = map[string]any

func (treeVisitor) VisitIdentifier(n *ast.Identifier) (any, error) {
	return treeNode{"kind": "identifier", "name": n.Name}, nil
}

func (treeVisitor) VisitStar(*ast.Star) (any, error) {
	return treeNode{"kind": "star"}, nil
}

func (treeVisitor) VisitString(n *ast.StringLiteral) (any, error) {
	return treeNode{"kind": "string", "value": n.Value}, nil
}

func (treeVisitor) VisitInteger(n *ast.IntegerLiteral) (any, error) {
	return treeNode{"kind": "integer", "value": n.Value}, nil
}

// Reals are emitted as text so no precision is lost.
func (treeVisitor) VisitReal(n *ast.RealLiteral) (any, error) {
	return treeNode{"kind": "real", "value": n.Value.Text('f')}, nil
}

func (treeVisitor) VisitTruth(n *ast.Truth) (any, error) {
	return treeNode{"kind": "truth", "value": n.Value.String()}, nil
}

func (v treeVisitor) VisitList(n *ast.ListLiteral) (any, error) {
	values, err := v.all(n.Values)
	if err != nil {
		return nil, err
	}
	return treeNode{"kind": "list", "values": values}, nil
}

func (v treeVisitor) VisitRange(n *ast.RangeLiteral) (any, error) {
	begin, err := ast.Accept[any](n.Begin, v)
	if err != nil {
		return nil, err
	}
	end, err := ast.Accept[any](n.End, v)
	if err != nil {
		return nil, err
	}
	return treeNode{"kind": "range", "begin": begin, "end": end}, nil
}

func (v treeVisitor) VisitUnary(n *ast.UnaryOperator) (any, error) {
	operand, err := ast.Accept[any](n.Operand, v)
	if err != nil {
		return nil, err
	}
	return treeNode{"kind": "unary", "op": n.Op.String(), "operand": operand}, nil
}

func (v treeVisitor) VisitBinary(n *ast.BinaryOperator) (any, error) {
	lhs, err := ast.Accept[any](n.LHS, v)
	if err != nil {
		return nil, err
	}
	rhs, err := ast.Accept[any](n.RHS, v)
	if err != nil {
		return nil, err
	}
	return treeNode{"kind": "binary", "op": n.Op.String(), "lhs": lhs, "rhs": rhs}, nil
}

func (v treeVisitor) VisitSelect(n *ast.SelectStatement) (any, error) {
	columns, err := v.all(n.Columns)
	if err != nil {
		return nil, err
	}
	out := treeNode{
		"kind":    "select",
		"columns": columns,
		"tables":  n.TableNames(),
	}
	if n.Modifier != ast.ModifierNone {
		out["modifier"] = n.Modifier.String()
	}
	if n.Where != nil {
		where, err := ast.Accept[any](n.Where, v)
		if err != nil {
			return nil, err
		}
		out["where"] = where
	}
	if len(n.SetOps) > 0 {
		ops := make([]any, len(n.SetOps))
		for i, op := range n.SetOps {
			sel, err := v.VisitSelect(op.Select)
			if err != nil {
				return nil, fmt.Errorf("set operation %d: %w", i, err)
			}
			ops[i] = treeNode{"op": op.Op.String(), "all": op.All, "select": sel}
		}
		out["set_ops"] = ops
	}
	return out, nil
}

func (v treeVisitor) all(nodes []ast.Node) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		t, err := ast.Accept[any](n, v)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
