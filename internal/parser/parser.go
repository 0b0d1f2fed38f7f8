// Package parser implements the query grammar: a hand-written recursive
// descent parser over lexer tokens that builds an ast.SelectStatement.
//
// Grammar (keywords are case-insensitive):
//
//	query      := select (setOp select)* EOF
//	setOp      := UNION [ALL] | INTERSECT | EXCEPT
//	select     := SELECT [DISTINCT|ALL] projection [FROM tables [WHERE expr]]
//	projection := ('*' | column) (',' ('*' | column))*
//	tables     := name (',' name)*
//	column     := name
//	name       := ident ('.' ident)*            -- no whitespace around '.'
//	expr       := cond [(AND|&&|OR|XOR|'||') expr]
//	cond       := (NOT|'!') cond
//	            | '(' expr ')'
//	            | column cmp value
//	            | column [NOT] LIKE string
//	            | column [NOT] BETWEEN value AND value
//	            | column IS [NOT] (NULL|TRUE|FALSE|UNKNOWN)
//	            | column [NOT] IN '(' (value (',' value)* | select) ')'
//	value      := integer | real | string | TRUE | FALSE | NULL | column
//	            | '(' select ')'
//	cmp        := '<=>' | '<=' | '>=' | '!=' | '<>' | '=' | '<' | '>'
//
// AND, OR and XOR share one precedence level and chain to the right in
// source order: "a AND b OR c" is AND(a, OR(b, c)). NOT binds to the single
// condition that follows it.
//
// The parser holds no package-level mutable state; Parse may be called from
// any number of goroutines.
package parser

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"

	"github.com/Flushot/sqlparse/internal/ast"
	"github.com/Flushot/sqlparse/internal/lexer"
)

// DefaultMaxDepth bounds recursion when no WithMaxDepth option is given.
const DefaultMaxDepth = 256

// reserved words cannot be used as identifiers.
var reserved = map[string]bool{
	"select": true, "distinct": true, "all": true, "from": true, "where": true,
	"and": true, "or": true, "xor": true, "not": true,
	"like": true, "between": true, "is": true, "in": true,
	"null": true, "true": true, "false": true, "unknown": true,
	"union": true, "intersect": true, "except": true,
}

type config struct {
	maxDepth int
}

// Option configures a parse.
type Option func(*config)

// WithMaxDepth sets the nesting limit. Values below 1 restore the default.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = DefaultMaxDepth
		}
		c.maxDepth = n
	}
}

// Parse parses a complete query. It returns a *SyntaxError when the input
// does not match the grammar and a *DepthError when it nests too deeply.
// No partial tree is ever returned.
func Parse(query string, opts ...Option) (*ast.SelectStatement, error) {
	cfg := config{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &parser{
		toks:     lexer.Tokenize(query),
		maxDepth: cfg.maxDepth,
		consumed: lexer.Position{Line: 1, Col: 1},
	}
	stmt, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

// parser is the state of one parse. It is never shared.
type parser struct {
	toks     []lexer.Token
	i        int
	consumed lexer.Position // end of the last consumed token
	depth    int
	maxDepth int
}

// ---- token helpers ----

func (p *parser) tok() lexer.Token {
	return p.toks[p.i]
}

func (p *parser) peek(n int) lexer.Token {
	if i := p.i + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() lexer.Token {
	t := p.toks[p.i]
	if t.Kind != lexer.EOF {
		p.i++
		p.consumed = t.End
	}
	return t
}

// isKeyword reports whether the current token is the keyword kw.
func (p *parser) isKeyword(kw string) bool {
	return p.tok().Kind == lexer.Ident && p.tok().Is(kw)
}

func (p *parser) tryKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.tryKeyword(kw) {
		return p.errorf("keyword " + strings.ToUpper(kw))
	}
	return nil
}

func (p *parser) expect(kind lexer.Kind) (lexer.Token, error) {
	if p.tok().Kind != kind {
		return p.tok(), p.errorf(kind.String())
	}
	return p.advance(), nil
}

func (p *parser) errorf(expected string) *SyntaxError {
	return &SyntaxError{
		Line:     p.consumed.Line,
		Col:      p.consumed.Col,
		Offset:   p.consumed.Offset,
		Expected: expected,
		Found:    p.tok().String(),
	}
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return &DepthError{Limit: p.maxDepth, Line: p.tok().Pos.Line, Col: p.tok().Pos.Col}
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

// ---- statements ----

func (p *parser) parseQuery() (*ast.SelectStatement, error) {
	first, err := p.parseSelect()
	if err != nil {
		return nil, err
	}

	var ops []ast.SetOperation
	for {
		var op ast.SetOpKind
		switch {
		case p.isKeyword("union"):
			op = ast.Union
		case p.isKeyword("intersect"):
			op = ast.Intersect
		case p.isKeyword("except"):
			op = ast.Except
		}
		if op == 0 {
			break
		}
		p.advance()
		all := op == ast.Union && p.tryKeyword("all")

		var next *ast.SelectStatement
		if p.tok().Kind == lexer.LParen {
			p.advance()
			if next, err = p.parseSelect(); err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RParen); err != nil {
				return nil, err
			}
		} else if next, err = p.parseSelect(); err != nil {
			return nil, err
		}
		ops = append(ops, ast.SetOperation{Op: op, All: all, Select: next})
	}

	if p.tok().Kind != lexer.EOF {
		return nil, p.errorf(lexer.EOF.String())
	}
	if len(ops) == 0 {
		return first, nil
	}
	return &ast.SelectStatement{
		Modifier: first.Modifier,
		Columns:  first.Columns,
		Tables:   first.Tables,
		Where:    first.Where,
		SetOps:   ops,
	}, nil
}

func (p *parser) parseSelect() (*ast.SelectStatement, error) {
	if err := p.expectKeyword("select"); err != nil {
		return nil, err
	}

	modifier := ast.ModifierNone
	switch {
	case p.tryKeyword("distinct"):
		modifier = ast.ModifierDistinct
	case p.tryKeyword("all"):
		modifier = ast.ModifierAll
	}

	columns, err := p.parseProjection()
	if err != nil {
		return nil, err
	}

	var tables []*ast.Identifier
	var where ast.Node
	if p.tryKeyword("from") {
		if tables, err = p.parseTables(); err != nil {
			return nil, err
		}
		if p.tryKeyword("where") {
			if where, err = p.parseExpr(); err != nil {
				return nil, err
			}
		}
	}

	return &ast.SelectStatement{
		Modifier: modifier,
		Columns:  columns,
		Tables:   tables,
		Where:    where,
	}, nil
}

func (p *parser) parseProjection() ([]ast.Node, error) {
	var columns []ast.Node
	for {
		if p.tok().Kind == lexer.Star {
			p.advance()
			columns = append(columns, &ast.Star{})
		} else {
			col, err := p.parseName("column name or '*'")
			if err != nil {
				return nil, err
			}
			columns = append(columns, col)
		}
		if p.tok().Kind != lexer.Comma {
			return columns, nil
		}
		p.advance()
	}
}

func (p *parser) parseTables() ([]*ast.Identifier, error) {
	var tables []*ast.Identifier
	for {
		t, err := p.parseName("table name")
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
		if p.tok().Kind != lexer.Comma {
			return tables, nil
		}
		p.advance()
	}
}

// parseName parses ident ('.' ident)*. The dots must touch their neighbours;
// "a .b" ends the name after "a".
func (p *parser) parseName(expected string) (*ast.Identifier, error) {
	first := p.tok()
	if !p.isIdentifier(first) {
		return nil, p.errorf(expected)
	}
	p.advance()

	var b strings.Builder
	b.WriteString(first.Text)
	last := first
	for {
		dot, next := p.peek(0), p.peek(1)
		if dot.Kind != lexer.Dot || !last.Adjacent(dot) || !dot.Adjacent(next) || !p.isIdentifier(next) {
			break
		}
		p.advance()
		p.advance()
		b.WriteByte('.')
		b.WriteString(next.Text)
		last = next
	}
	return &ast.Identifier{Name: b.String()}, nil
}

func (p *parser) isIdentifier(t lexer.Token) bool {
	return t.Kind == lexer.Ident && !reserved[strings.ToLower(t.Text)]
}

// ---- boolean expressions ----

// parseExpr parses a condition optionally followed by a logical operator and
// the rest of the chain, giving a right-leaning tree in source order.
func (p *parser) parseExpr() (ast.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	lhs, err := p.parseCondition()
	if err != nil {
		return nil, err
	}

	op, ok := p.logicalOperator()
	if !ok {
		return lhs, nil
	}
	p.advance()

	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.BinaryOperator{Op: op, LHS: lhs, RHS: rhs}, nil
}

func (p *parser) logicalOperator() (ast.OperatorKind, bool) {
	t := p.tok()
	switch {
	case t.Is("and"), t.Is("&&"):
		return ast.OpAnd, true
	case t.Is("or"), t.Is("||"):
		return ast.OpOr, true
	case t.Is("xor"):
		return ast.OpXor, true
	}
	return 0, false
}

func (p *parser) parseCondition() (ast.Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	t := p.tok()
	if t.Is("not") || t.Is("!") {
		p.advance()
		operand, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOperator{Op: ast.OpNot, Operand: operand}, nil
	}

	if t.Kind == lexer.LParen {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return expr, nil
	}

	col, err := p.parseName("condition")
	if err != nil {
		return nil, err
	}
	return p.parsePredicate(col)
}

// parsePredicate parses what follows the column of an atomic condition.
func (p *parser) parsePredicate(col *ast.Identifier) (ast.Node, error) {
	t := p.tok()
	if t.Kind == lexer.Op {
		op, ok := ast.ComparisonOperators[t.Text]
		if !ok {
			return nil, p.errorf("comparison operator")
		}
		p.advance()
		rhs, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOperator{Op: op, LHS: col, RHS: rhs}, nil
	}

	if p.tryKeyword("is") {
		op := ast.OpIs
		if p.tryKeyword("not") {
			op = ast.OpIsNot
		}
		truth, err := p.parseTruth()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOperator{Op: op, LHS: col, RHS: truth}, nil
	}

	negate := p.tryKeyword("not")
	var op ast.OperatorKind
	var rhs ast.Node
	var err error
	switch {
	case p.tryKeyword("like"):
		op = ast.OpLike
		rhs, err = p.parseString()
	case p.tryKeyword("between"):
		op = ast.OpBetween
		rhs, err = p.parseRange()
	case p.tryKeyword("in"):
		op = ast.OpIn
		rhs, err = p.parseInOperand()
	default:
		if negate {
			return nil, p.errorf("LIKE, BETWEEN or IN")
		}
		return nil, p.errorf("comparison operator, LIKE, BETWEEN, IS or IN")
	}
	if err != nil {
		return nil, err
	}
	if negate {
		op, _ = op.Negated()
	}
	return &ast.BinaryOperator{Op: op, LHS: col, RHS: rhs}, nil
}

func (p *parser) parseTruth() (*ast.Truth, error) {
	var v ast.TruthValue
	switch {
	case p.isKeyword("null"):
		v = ast.TruthNull
	case p.isKeyword("true"):
		v = ast.TruthTrue
	case p.isKeyword("false"):
		v = ast.TruthFalse
	case p.isKeyword("unknown"):
		v = ast.TruthUnknown
	default:
		return nil, p.errorf("NULL, TRUE, FALSE or UNKNOWN")
	}
	p.advance()
	return &ast.Truth{Value: v}, nil
}

func (p *parser) parseString() (*ast.StringLiteral, error) {
	t, err := p.expect(lexer.String)
	if err != nil {
		return nil, err
	}
	return &ast.StringLiteral{Value: t.Unquote()}, nil
}

func (p *parser) parseRange() (*ast.RangeLiteral, error) {
	begin, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("and"); err != nil {
		return nil, err
	}
	end, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &ast.RangeLiteral{Begin: begin, End: end}, nil
}

// parseInOperand parses "( value, ... )" or "( SELECT ... )".
func (p *parser) parseInOperand() (ast.Node, error) {
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}

	if p.isKeyword("select") {
		sub, err := p.parseSubSelectBody()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return sub, nil
	}

	var values []ast.Node
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.tok().Kind != lexer.Comma {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return &ast.ListLiteral{Values: values}, nil
}

// parseValue parses a literal, a column, or a parenthesised sub-select.
// TRUE, FALSE and NULL are values too; UNKNOWN only follows IS.
func (p *parser) parseValue() (ast.Node, error) {
	t := p.tok()
	switch t.Kind {
	case lexer.Int:
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, p.errorf("integer within 64-bit range")
		}
		p.advance()
		return &ast.IntegerLiteral{Value: n}, nil

	case lexer.Real:
		d, _, err := apd.NewFromString(normalizeReal(t.Text))
		if err != nil {
			return nil, p.errorf("real number")
		}
		p.advance()
		return &ast.RealLiteral{Value: d}, nil

	case lexer.String:
		p.advance()
		return &ast.StringLiteral{Value: t.Unquote()}, nil

	case lexer.LParen:
		if !p.peek(1).Is("select") {
			break
		}
		p.advance()
		sub, err := p.parseSubSelectBody()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return sub, nil

	case lexer.Ident:
		if t.Is("true") || t.Is("false") || t.Is("null") {
			return p.parseTruth()
		}
		if p.isIdentifier(t) {
			return p.parseName("value")
		}
	}
	return nil, p.errorf("value")
}

func (p *parser) parseSubSelectBody() (*ast.SelectStatement, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	return p.parseSelect()
}

// normalizeReal rewrites the spellings the grammar allows but a decimal
// parser may not: a leading '+', a missing integer part (".5") and a
// trailing point ("1." or "1.e3").
func normalizeReal(s string) string {
	sign := ""
	switch {
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	case strings.HasPrefix(s, "-"):
		sign, s = "-", s[1:]
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if i := strings.IndexByte(s, '.'); i >= 0 && (i == len(s)-1 || s[i+1] == 'e' || s[i+1] == 'E') {
		s = s[:i] + s[i+1:]
	}
	return sign + s
}
