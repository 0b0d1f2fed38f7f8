// Package querydoc compiles a parsed SELECT into a document-store filter:
// a nested object of field names and "$" operators such as
//
//	{"$and": [{"c": {"$gte": 10}}, {"c": {"$lte": 30.5}}]}
//
// Equality is written {field: value}; every other comparison is
// {field: {"$op": value}}. AND and OR stay binary, and NOT wraps its
// operand in a one-element "$nor" list.
package querydoc

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Flushot/sqlparse/internal/ast"
	"github.com/Flushot/sqlparse/internal/compiler"
	"github.com/Flushot/sqlparse/internal/document"
	"github.com/Flushot/sqlparse/internal/schema"
)

// Operator names.
const (
	OpAnd   = "$and"
	OpOr    = "$or"
	OpNor   = "$nor"
	OpEq    = "$eq"
	OpNe    = "$ne"
	OpLt    = "$lt"
	OpLte   = "$lte"
	OpGt    = "$gt"
	OpGte   = "$gte"
	OpIn    = "$in"
	OpNin   = "$nin"
	OpRegex = "$regex"
	OpMod   = "$mod"
)

var comparisonNames = map[ast.OperatorKind]string{
	ast.OpNe: OpNe,
	ast.OpLt: OpLt,
	ast.OpLe: OpLte,
	ast.OpGt: OpGt,
	ast.OpGe: OpGte,
}

// Result is a compiled statement.
type Result struct {
	Model *schema.Model

	// Collection is the store-side name of Model.
	Collection string

	// Filter is empty when the statement has no WHERE clause, which
	// matches every document.
	Filter document.Object

	// Projection maps each selected field to 1. It is nil for "SELECT *".
	Projection document.Object
}

// FilterJSON returns the filter as canonical JSON.
func (r *Result) FilterJSON() ([]byte, error) {
	return document.MarshalCanonical(r.Filter)
}

// ProjectionFields returns the projected field names in canonical order,
// or nil when every field is selected.
func (r *Result) ProjectionFields() []string {
	if r.Projection == nil {
		return nil
	}
	return r.Projection.SortedKeys()
}

type options struct {
	maxDepth int
}

// Option configures Compile.
type Option func(*options)

// WithMaxDepth bounds operator nesting.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// Compile builds the document filter and projection of stmt. Field names
// are checked with resolver; pass schema.Schemaless{} for collections
// without a declared schema.
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
		return nil, fmt.Errorf("resolve collection %s: %w", table.Name, err)
	}

	v := &visitor{model: model, resolver: resolver, guard: compiler.NewGuard(o.maxDepth)}
	res := &Result{
		Model:      model,
		Collection: model.Table(),
		Filter:     document.Object{},
	}

	if !stmt.IsStar() {
		res.Projection = document.Object{}
		for _, c := range stmt.Columns {
			name, err := v.field(c)
			if err != nil {
				return nil, err
			}
			res.Projection[name] = document.Int(1)
		}
	}

	if stmt.Where != nil {
		f, err := ast.Accept[document.Object](stmt.Where, v)
		if err != nil {
			return nil, err
		}
		res.Filter = f
	}
	return res, nil
}

type visitor struct {
	model    *schema.Model
	resolver schema.Resolver
	guard    *compiler.Guard
}

var _ ast.Visitor[document.Object] = (*visitor)(nil)

func notCondition(n ast.Node) (document.Object, error) {
	return nil, compiler.NewUnsupportedOperator(fmt.Sprintf("%s used as a condition", n), n)
}

func (v *visitor) VisitIdentifier(n *ast.Identifier) (document.Object, error) {
	return notCondition(n)
}

func (v *visitor) VisitStar(n *ast.Star) (document.Object, error) {
	return notCondition(n)
}

func (v *visitor) VisitString(n *ast.StringLiteral) (document.Object, error) {
	return notCondition(n)
}

func (v *visitor) VisitInteger(n *ast.IntegerLiteral) (document.Object, error) {
	return notCondition(n)
}

func (v *visitor) VisitReal(n *ast.RealLiteral) (document.Object, error) {
	return notCondition(n)
}

func (v *visitor) VisitTruth(n *ast.Truth) (document.Object, error) {
	return notCondition(n)
}

func (v *visitor) VisitList(n *ast.ListLiteral) (document.Object, error) {
	return notCondition(n)
}

func (v *visitor) VisitRange(n *ast.RangeLiteral) (document.Object, error) {
	return notCondition(n)
}

func (v *visitor) VisitSelect(n *ast.SelectStatement) (document.Object, error) {
	return nil, compiler.NewUnsupportedOperator("sub-select", n)
}

func (v *visitor) VisitUnary(n *ast.UnaryOperator) (document.Object, error) {
	if err := v.guard.Enter(n); err != nil {
		return nil, err
	}
	defer v.guard.Leave()

	if n.Op != ast.OpNot {
		return nil, compiler.NewUnsupportedOperator(n.Op.String(), n)
	}
	operand, err := ast.Accept[document.Object](n.Operand, v)
	if err != nil {
		return nil, err
	}
	return nor(operand), nil
}

func (v *visitor) VisitBinary(n *ast.BinaryOperator) (document.Object, error) {
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

func (v *visitor) logical(n *ast.BinaryOperator) (document.Object, error) {
	l, err := ast.Accept[document.Object](n.LHS, v)
	if err != nil {
		return nil, err
	}
	r, err := ast.Accept[document.Object](n.RHS, v)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.OpAnd:
		return pair(OpAnd, l, r), nil
	case ast.OpOr:
		return pair(OpOr, l, r), nil
	}
	// (l OR r) AND NOT (l AND r)
	return pair(OpAnd, pair(OpOr, l, r), nor(pair(OpAnd, l, r))), nil
}

func (v *visitor) compare(n *ast.BinaryOperator) (document.Object, error) {
	field, err := v.field(n.LHS)
	if err != nil {
		return nil, err
	}
	value, err := v.value(n.RHS)
	if err != nil {
		return nil, err
	}
	if name, ok := comparisonNames[n.Op]; ok {
		return operator(field, name, value), nil
	}
	return document.Object{field: value}, nil
}

func (v *visitor) like(n *ast.BinaryOperator) (document.Object, error) {
	field, err := v.field(n.LHS)
	if err != nil {
		return nil, err
	}
	pattern, ok := n.RHS.(*ast.StringLiteral)
	if !ok {
		return nil, compiler.NewUnsupportedOperator(n.Op.String()+" with a non-string pattern", n)
	}
	f := operator(field, OpRegex, document.String(LikeToRegex(pattern.Value)))
	if n.Op == ast.OpNotLike {
		return nor(f), nil
	}
	return f, nil
}

func (v *visitor) is(n *ast.BinaryOperator) (document.Object, error) {
	field, err := v.field(n.LHS)
	if err != nil {
		return nil, err
	}
	truth, ok := n.RHS.(*ast.Truth)
	if !ok {
		return nil, compiler.NewUnsupportedOperator(n.Op.String()+" with a non-truth operand", n)
	}
	value := truthValue(truth)
	if n.Op == ast.OpIsNot {
		return operator(field, OpNe, value), nil
	}
	return document.Object{field: value}, nil
}

func (v *visitor) between(n *ast.BinaryOperator) (document.Object, error) {
	field, err := v.field(n.LHS)
	if err != nil {
		return nil, err
	}
	rng, ok := n.RHS.(*ast.RangeLiteral)
	if !ok {
		return nil, compiler.NewUnsupportedOperator(n.Op.String()+" without a range", n)
	}
	begin, err := v.value(rng.Begin)
	if err != nil {
		return nil, err
	}
	end, err := v.value(rng.End)
	if err != nil {
		return nil, err
	}
	f := pair(OpAnd, operator(field, OpGte, begin), operator(field, OpLte, end))
	if n.Op == ast.OpNotBetween {
		return nor(f), nil
	}
	return f, nil
}

func (v *visitor) in(n *ast.BinaryOperator) (document.Object, error) {
	field, err := v.field(n.LHS)
	if err != nil {
		return nil, err
	}
	list, ok := n.RHS.(*ast.ListLiteral)
	if !ok {
		return nil, compiler.NewUnsupportedOperator(n.Op.String()+" with a sub-select", n)
	}
	values := make(document.Array, 0, len(list.Values))
	for _, item := range list.Values {
		val, err := v.value(item)
		if err != nil {
			return nil, err
		}
		values = append(values, val)
	}
	name := OpIn
	if n.Op == ast.OpNotIn {
		name = OpNin
	}
	return operator(field, name, values), nil
}

// field turns the left side of a predicate into a document key. Only a
// bare field name can be a key.
func (v *visitor) field(n ast.Node) (string, error) {
	ident, ok := n.(*ast.Identifier)
	if !ok {
		return "", compiler.NewInvalidLeftOperand(n)
	}
	if !v.resolver.IsQueryable(v.model, ident.Name) {
		return "", compiler.NewUnmappedProperty(v.model.Name, ident.Name, ident)
	}
	if name, ok := v.model.Column(ident.Name); ok {
		return name, nil
	}
	return ident.Name, nil
}

func (v *visitor) value(n ast.Node) (document.Value, error) {
	return ast.Accept[document.Value](n, valueVisitor{})
}

// valueVisitor maps literal nodes to document values. Documents cannot
// compare two of their own fields in a filter, so an identifier on the right
// is unsupported.
type valueVisitor struct{}

var _ ast.Visitor[document.Value] = valueVisitor{}

func (valueVisitor) VisitString(n *ast.StringLiteral) (document.Value, error) {
	return document.String(n.Value), nil
}

func (valueVisitor) VisitInteger(n *ast.IntegerLiteral) (document.Value, error) {
	return document.Int(n.Value), nil
}

func (valueVisitor) VisitReal(n *ast.RealLiteral) (document.Value, error) {
	return document.NewDecimal(n.Value), nil
}

func (valueVisitor) VisitTruth(n *ast.Truth) (document.Value, error) {
	return truthValue(n), nil
}

func (valueVisitor) VisitIdentifier(n *ast.Identifier) (document.Value, error) {
	return nil, compiler.NewUnsupportedOperator("field comparison with "+n.Name, n)
}

func (valueVisitor) VisitStar(n *ast.Star) (document.Value, error) {
	return nil, compiler.NewUnsupportedOperator("* as a value", n)
}

func (valueVisitor) VisitList(n *ast.ListLiteral) (document.Value, error) {
	return nil, compiler.NewUnsupportedOperator("list as a value", n)
}

func (valueVisitor) VisitRange(n *ast.RangeLiteral) (document.Value, error) {
	return nil, compiler.NewUnsupportedOperator("range as a value", n)
}

func (valueVisitor) VisitUnary(n *ast.UnaryOperator) (document.Value, error) {
	return nil, compiler.NewUnsupportedOperator(n.Op.String()+" as a value", n)
}

func (valueVisitor) VisitBinary(n *ast.BinaryOperator) (document.Value, error) {
	return nil, compiler.NewUnsupportedOperator(n.Op.String()+" as a value", n)
}

func (valueVisitor) VisitSelect(n *ast.SelectStatement) (document.Value, error) {
	return nil, compiler.NewUnsupportedOperator("sub-select", n)
}

func truthValue(t *ast.Truth) document.Value {
	switch t.Value {
	case ast.TruthTrue:
		return document.Bool(true)
	case ast.TruthFalse:
		return document.Bool(false)
	}
	return document.Null{}
}

func pair(op string, l, r document.Object) document.Object {
	return document.Object{op: document.Array{l, r}}
}

func nor(f document.Object) document.Object {
	return document.Object{OpNor: document.Array{f}}
}

func operator(field, op string, v document.Value) document.Object {
	return document.Object{field: document.Object{op: v}}
}

// LikeToRegex converts a LIKE pattern to an anchored regular expression:
// "%" matches any run of characters, "_" exactly one, everything else
// itself. The (?s) flag lets both match newlines, as they do in SQL.
func LikeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}
