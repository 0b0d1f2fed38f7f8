// Package querysql compiles a parsed SELECT into a relational filter
// expression for a single table.
//
// The compiler is a pure function of the statement and the schema resolver:
// it performs no I/O and never mutates the AST. Use relational.Render (or
// Result.Render) to obtain parameterized SQL.
package querysql

import (
	"fmt"

	"github.com/Flushot/sqlparse/internal/ast"
	"github.com/Flushot/sqlparse/internal/compiler"
	"github.com/Flushot/sqlparse/internal/relational"
	"github.com/Flushot/sqlparse/internal/schema"
)

// Result is a compiled statement.
type Result struct {
	// Model is the resolved FROM table.
	Model *schema.Model

	// Filter is nil when the statement has no WHERE clause. The caller
	// decides what that means; Select treats it as "every row".
	Filter relational.Expr

	// Columns is nil for "SELECT *".
	Columns []string

	Distinct bool
}

// Select converts the result into a relational.Select ordered by the
// model's key, when it has one.
func (r *Result) Select() *relational.Select {
	sel := &relational.Select{
		From:     r.Model.Table(),
		Columns:  r.Columns,
		Distinct: r.Distinct,
		Filter:   r.Filter,
	}
	if r.Model.Key != "" {
		sel.OrderBy = []string{r.Model.Key}
	}
	return sel
}

// Render is shorthand for relational.Render(r.Select(), d).
func (r *Result) Render(d relational.Dialect) (string, []any, error) {
	return relational.Render(r.Select(), d)
}

type options struct {
	maxDepth int
}

// Option configures Compile.
type Option func(*options)

// WithMaxDepth bounds operator nesting. The default is
// compiler.DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// Compile resolves the FROM table and fields of stmt through resolver and
// builds the relational filter of its WHERE clause.
func Compile(stmt *ast.SelectStatement, resolver schema.Resolver, opts ...Option) (*Result, error) {
	if stmt == nil {
		return nil, fmt.Errorf("cannot compile nil statement")
	}
	o := options{maxDepth: compiler.DefaultMaxDepth}
	for _, opt := range opts {
		opt(&o)
	}

	if err := compiler.CheckStatement(stmt); err != nil {
		return nil, err
	}
	table, err := compiler.SingleTable(stmt)
	if err != nil {
		return nil, err
	}
	model, err := resolver.ResolveModel(table.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve table %s: %w", table.Name, err)
	}

	v := &visitor{
		model:    model,
		resolver: resolver,
		guard:    compiler.NewGuard(o.maxDepth),
	}

	res := &Result{
		Model:    model,
		Distinct: stmt.Modifier == ast.ModifierDistinct,
	}
	if !stmt.IsStar() {
		for _, c := range stmt.Columns {
			col, err := v.column(c)
			if err != nil {
				return nil, err
			}
			res.Columns = append(res.Columns, col.Name)
		}
	}

	if stmt.Where != nil {
		res.Filter, err = ast.Accept[relational.Expr](stmt.Where, v)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// visitor maps boolean nodes to relational expressions. Value nodes are
// handled by operandVisitor.
type visitor struct {
	model    *schema.Model
	resolver schema.Resolver
	guard    *compiler.Guard
}

var _ ast.Visitor[relational.Expr] = (*visitor)(nil)

func (v *visitor) notPredicate(n ast.Node) (relational.Expr, error) {
	return nil, compiler.NewUnsupportedOperator(fmt.Sprintf("%s used as a condition", n), n)
}

func (v *visitor) VisitIdentifier(n *ast.Identifier) (relational.Expr, error) {
	return v.notPredicate(n)
}

func (v *visitor) VisitStar(n *ast.Star) (relational.Expr, error) {
	return v.notPredicate(n)
}

func (v *visitor) VisitString(n *ast.StringLiteral) (relational.Expr, error) {
	return v.notPredicate(n)
}

func (v *visitor) VisitInteger(n *ast.IntegerLiteral) (relational.Expr, error) {
	return v.notPredicate(n)
}

func (v *visitor) VisitReal(n *ast.RealLiteral) (relational.Expr, error) {
	return v.notPredicate(n)
}

func (v *visitor) VisitTruth(n *ast.Truth) (relational.Expr, error) {
	return v.notPredicate(n)
}

func (v *visitor) VisitList(n *ast.ListLiteral) (relational.Expr, error) {
	return v.notPredicate(n)
}

func (v *visitor) VisitRange(n *ast.RangeLiteral) (relational.Expr, error) {
	return v.notPredicate(n)
}

func (v *visitor) VisitSelect(n *ast.SelectStatement) (relational.Expr, error) {
	return nil, compiler.NewUnsupportedOperator("sub-select", n)
}

func (v *visitor) VisitUnary(n *ast.UnaryOperator) (relational.Expr, error) {
	if err := v.guard.Enter(n); err != nil {
		return nil, err
	}
	defer v.guard.Leave()

	if n.Op != ast.OpNot {
		return nil, compiler.NewUnsupportedOperator(n.Op.String(), n)
	}
	e, err := ast.Accept[relational.Expr](n.Operand, v)
	if err != nil {
		return nil, err
	}
	return relational.Not{Expr: e}, nil
}

func (v *visitor) VisitBinary(n *ast.BinaryOperator) (relational.Expr, error) {
	if err := v.guard.Enter(n); err != nil {
		return nil, err
	}
	defer v.guard.Leave()

	switch n.Op {
	case ast.OpAnd, ast.OpOr, ast.OpXor:
		return v.logical(n)
	case ast.OpEq, ast.OpNullSafeEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return v.compare(n)
	case ast.OpLike, ast.OpNotLike:
		return v.like(n)
	case ast.OpIs, ast.OpIsNot:
		return v.is(n)
	case ast.OpBetween, ast.OpNotBetween:
		return v.between(n)
	case ast.OpIn, ast.OpNotIn:
		return v.in(n)
	}
	return nil, compiler.NewUnsupportedOperator(n.Op.String(), n)
}

// logical keeps the tree shape of the input. XOR has no SQL combinator and
// becomes (l OR r) AND NOT (l AND r).
func (v *visitor) logical(n *ast.BinaryOperator) (relational.Expr, error) {
	l, err := ast.Accept[relational.Expr](n.LHS, v)
	if err != nil {
		return nil, err
	}
	r, err := ast.Accept[relational.Expr](n.RHS, v)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.OpAnd:
		return relational.And{Left: l, Right: r}, nil
	case ast.OpOr:
		return relational.Or{Left: l, Right: r}, nil
	}
	return relational.And{
		Left:  relational.Or{Left: l, Right: r},
		Right: relational.Not{Expr: relational.And{Left: l, Right: r}},
	}, nil
}

var compareOps = map[ast.OperatorKind]relational.CompareOp{
	ast.OpEq:         relational.OpEq,
	ast.OpNullSafeEq: relational.OpIs,
	ast.OpNe:         relational.OpNe,
	ast.OpLt:         relational.OpLt,
	ast.OpLe:         relational.OpLe,
	ast.OpGt:         relational.OpGt,
	ast.OpGe:         relational.OpGe,
}

func (v *visitor) compare(n *ast.BinaryOperator) (relational.Expr, error) {
	col, err := v.column(n.LHS)
	if err != nil {
		return nil, err
	}
	right, err := v.operand(n.RHS)
	if err != nil {
		return nil, err
	}
	return relational.Compare{Op: compareOps[n.Op], Column: col, Right: right}, nil
}

func (v *visitor) like(n *ast.BinaryOperator) (relational.Expr, error) {
	col, err := v.column(n.LHS)
	if err != nil {
		return nil, err
	}
	pattern, ok := n.RHS.(*ast.StringLiteral)
	if !ok {
		return nil, compiler.NewUnsupportedOperator(n.Op.String()+" with a non-string pattern", n)
	}
	return relational.Like{Column: col, Pattern: pattern.Value, Negated: n.Op == ast.OpNotLike}, nil
}

// is maps IS [NOT] NULL/UNKNOWN to a null test and IS [NOT] TRUE/FALSE to a
// null-safe comparison with a boolean.
func (v *visitor) is(n *ast.BinaryOperator) (relational.Expr, error) {
	col, err := v.column(n.LHS)
	if err != nil {
		return nil, err
	}
	truth, ok := n.RHS.(*ast.Truth)
	if !ok {
		return nil, compiler.NewUnsupportedOperator(n.Op.String()+" with a non-truth operand", n)
	}
	negated := n.Op == ast.OpIsNot

	switch truth.Value {
	case ast.TruthNull, ast.TruthUnknown:
		return relational.IsNull{Column: col, Negated: negated}, nil
	case ast.TruthTrue, ast.TruthFalse:
		op := relational.OpIs
		if negated {
			op = relational.OpIsNot
		}
		return relational.Compare{
			Op:     op,
			Column: col,
			Right:  relational.Literal{Value: truth.Value == ast.TruthTrue},
		}, nil
	}
	return nil, compiler.NewUnsupportedOperator(truth.String(), n)
}

func (v *visitor) between(n *ast.BinaryOperator) (relational.Expr, error) {
	col, err := v.column(n.LHS)
	if err != nil {
		return nil, err
	}
	rng, ok := n.RHS.(*ast.RangeLiteral)
	if !ok {
		return nil, compiler.NewUnsupportedOperator(n.Op.String()+" without a range", n)
	}
	begin, err := v.operand(rng.Begin)
	if err != nil {
		return nil, err
	}
	end, err := v.operand(rng.End)
	if err != nil {
		return nil, err
	}

	var e relational.Expr = relational.And{
		Left:  relational.Compare{Op: relational.OpGe, Column: col, Right: begin},
		Right: relational.Compare{Op: relational.OpLe, Column: col, Right: end},
	}
	if n.Op == ast.OpNotBetween {
		e = relational.Not{Expr: e}
	}
	return e, nil
}

func (v *visitor) in(n *ast.BinaryOperator) (relational.Expr, error) {
	col, err := v.column(n.LHS)
	if err != nil {
		return nil, err
	}
	list, ok := n.RHS.(*ast.ListLiteral)
	if !ok {
		return nil, compiler.NewUnsupportedOperator(n.Op.String()+" with a sub-select", n)
	}
	values := make([]relational.Operand, 0, len(list.Values))
	for _, item := range list.Values {
		o, err := v.operand(item)
		if err != nil {
			return nil, err
		}
		values = append(values, o)
	}
	return relational.In{Column: col, Values: values, Negated: n.Op == ast.OpNotIn}, nil
}

// column resolves the left side of a predicate to a model field.
func (v *visitor) column(n ast.Node) (relational.Column, error) {
	ident, ok := n.(*ast.Identifier)
	if !ok {
		return relational.Column{}, compiler.NewInvalidLeftOperand(n)
	}
	return v.resolve(ident)
}

func (v *visitor) resolve(ident *ast.Identifier) (relational.Column, error) {
	if !v.resolver.IsQueryable(v.model, ident.Name) {
		return relational.Column{}, compiler.NewUnmappedProperty(v.model.Name, ident.Name, ident)
	}
	name, ok := v.model.Column(ident.Name)
	if !ok {
		name = ident.Name
	}
	return relational.Column{Name: name}, nil
}

func (v *visitor) operand(n ast.Node) (relational.Operand, error) {
	return ast.Accept[relational.Operand](n, operandVisitor{v})
}

// operandVisitor maps value nodes to comparison operands. A column on the
// right-hand side compares two columns of the same row.
type operandVisitor struct {
	v *visitor
}

var _ ast.Visitor[relational.Operand] = operandVisitor{}

func (o operandVisitor) VisitIdentifier(n *ast.Identifier) (relational.Operand, error) {
	return o.v.resolve(n)
}

func (o operandVisitor) VisitString(n *ast.StringLiteral) (relational.Operand, error) {
	return relational.Literal{Value: n.Value}, nil
}

func (o operandVisitor) VisitInteger(n *ast.IntegerLiteral) (relational.Operand, error) {
	return relational.Literal{Value: n.Value}, nil
}

func (o operandVisitor) VisitReal(n *ast.RealLiteral) (relational.Operand, error) {
	v, _ := compiler.Literal(n)
	return relational.Literal{Value: v}, nil
}

func (o operandVisitor) VisitTruth(n *ast.Truth) (relational.Operand, error) {
	switch n.Value {
	case ast.TruthTrue:
		return relational.Literal{Value: true}, nil
	case ast.TruthFalse:
		return relational.Literal{Value: false}, nil
	}
	return relational.Literal{Value: nil}, nil
}

func (o operandVisitor) VisitStar(n *ast.Star) (relational.Operand, error) {
	return nil, compiler.NewUnsupportedOperator("* as a value", n)
}

func (o operandVisitor) VisitList(n *ast.ListLiteral) (relational.Operand, error) {
	return nil, compiler.NewUnsupportedOperator("list as a value", n)
}

func (o operandVisitor) VisitRange(n *ast.RangeLiteral) (relational.Operand, error) {
	return nil, compiler.NewUnsupportedOperator("range as a value", n)
}

func (o operandVisitor) VisitUnary(n *ast.UnaryOperator) (relational.Operand, error) {
	return nil, compiler.NewUnsupportedOperator(n.Op.String()+" as a value", n)
}

func (o operandVisitor) VisitBinary(n *ast.BinaryOperator) (relational.Operand, error) {
	return nil, compiler.NewUnsupportedOperator(n.Op.String()+" as a value", n)
}

func (o operandVisitor) VisitSelect(n *ast.SelectStatement) (relational.Operand, error) {
	return nil, compiler.NewUnsupportedOperator("sub-select", n)
}
