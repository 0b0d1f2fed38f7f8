package relational

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Dialect holds the spelling differences between SQL engines.
type Dialect struct {
	Name string

	// NullSafeEq and NullSafeNe spell IS / IS NOT between two values.
	NullSafeEq string
	NullSafeNe string

	// DecimalType is the type decimal literals are cast to from their text
	// form. When MaxDecimalWidth is set, the cast carries the literal's own
	// width and scale, as in DECIMAL(3,2).
	DecimalType     string
	MaxDecimalWidth int

	// DecimalColumn is the column type of decimal fields.
	DecimalColumn string

	// Collate follows each ORDER BY key, before the direction.
	Collate string
}

var (
	// SQLite renders for github.com/mattn/go-sqlite3.
	SQLite = Dialect{
		Name:        "sqlite3",
		NullSafeEq:  "IS",
		NullSafeNe:  "IS NOT",
		DecimalType:   "NUMERIC",
		DecimalColumn: "NUMERIC",
		Collate:       "COLLATE BINARY",
	}

	// DuckDB renders for github.com/duckdb/duckdb-go/v2.
	DuckDB = Dialect{
		Name:        "duckdb",
		NullSafeEq:      "IS NOT DISTINCT FROM",
		NullSafeNe:      "IS DISTINCT FROM",
		DecimalType:     "DECIMAL",
		MaxDecimalWidth: 38,
		DecimalColumn:   "DECIMAL(38,10)",
	}
)

// DialectFor returns the dialect registered under a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case SQLite.Name, "sqlite":
		return SQLite, nil
	case DuckDB.Name:
		return DuckDB, nil
	}
	return Dialect{}, fmt.Errorf("unknown SQL dialect %q", driver)
}

// Render converts a Select to parameterized SQL. Values are never
// interpolated: every literal is a "?" placeholder with its value in params,
// in placeholder order.
func Render(sel *Select, d Dialect) (string, []any, error) {
	if err := Validate(sel); err != nil {
		return "", nil, err
	}

	r := &renderer{dialect: d}
	var b strings.Builder

	b.WriteString("SELECT ")
	if sel.Distinct {
		b.WriteString("DISTINCT ")
	}
	if len(sel.Columns) == 0 {
		b.WriteString("*")
	} else {
		for i, c := range sel.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(QuoteIdent(c))
		}
	}
	b.WriteString(" FROM ")
	b.WriteString(QuoteIdent(sel.From))

	if sel.Filter != nil {
		where, err := r.expr(sel.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("render filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	if len(sel.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, c := range sel.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(QuoteIdent(c))
			if d.Collate != "" {
				b.WriteString(" ")
				b.WriteString(d.Collate)
			}
			b.WriteString(" ASC")
		}
	}

	return b.String(), r.params, nil
}

// RenderExpr renders a bare expression, as it would appear after WHERE.
func RenderExpr(e Expr, d Dialect) (string, []any, error) {
	r := &renderer{dialect: d}
	sql, err := r.expr(e)
	if err != nil {
		return "", nil, err
	}
	return sql, r.params, nil
}

// QuoteIdent double-quotes a SQL identifier. A dotted name is quoted per
// part.
func QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

type renderer struct {
	dialect Dialect
	params  []any
}

func (r *renderer) expr(e Expr) (string, error) {
	switch e := e.(type) {
	case Compare:
		return r.compare(e)
	case *Compare:
		return r.compare(*e)
	case In:
		return r.in(e)
	case *In:
		return r.in(*e)
	case Like:
		return r.like(e), nil
	case *Like:
		return r.like(*e), nil
	case IsNull:
		return r.isNull(e), nil
	case *IsNull:
		return r.isNull(*e), nil
	case And:
		return r.binary("AND", e.Left, e.Right)
	case *And:
		return r.binary("AND", e.Left, e.Right)
	case Or:
		return r.binary("OR", e.Left, e.Right)
	case *Or:
		return r.binary("OR", e.Left, e.Right)
	case Not:
		return r.not(e.Expr)
	case *Not:
		return r.not(e.Expr)
	}
	return "", fmt.Errorf("unsupported expression type: %T", e)
}

func (r *renderer) compare(c Compare) (string, error) {
	op := string(c.Op)
	switch c.Op {
	case OpIs:
		op = r.dialect.NullSafeEq
	case OpIsNot:
		op = r.dialect.NullSafeNe
	}
	right, err := r.operand(c.Right)
	if err != nil {
		return "", err
	}
	return QuoteIdent(c.Column.Name) + " " + op + " " + right, nil
}

func (r *renderer) in(in In) (string, error) {
	parts := make([]string, len(in.Values))
	for i, v := range in.Values {
		s, err := r.operand(v)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	op := " IN ("
	if in.Negated {
		op = " NOT IN ("
	}
	return QuoteIdent(in.Column.Name) + op + strings.Join(parts, ", ") + ")", nil
}

func (r *renderer) like(l Like) string {
	r.params = append(r.params, l.Pattern)
	op := " LIKE ?"
	if l.Negated {
		op = " NOT LIKE ?"
	}
	return QuoteIdent(l.Column.Name) + op
}

func (r *renderer) isNull(n IsNull) string {
	if n.Negated {
		return QuoteIdent(n.Column.Name) + " IS NOT NULL"
	}
	return QuoteIdent(n.Column.Name) + " IS NULL"
}

func (r *renderer) binary(op string, left, right Expr) (string, error) {
	l, err := r.expr(left)
	if err != nil {
		return "", err
	}
	rr, err := r.expr(right)
	if err != nil {
		return "", err
	}
	return "(" + l + " " + op + " " + rr + ")", nil
}

func (r *renderer) not(e Expr) (string, error) {
	s, err := r.expr(e)
	if err != nil {
		return "", err
	}
	return "NOT (" + s + ")", nil
}

// operand renders a column or binds a literal.
func (r *renderer) operand(o Operand) (string, error) {
	switch o := o.(type) {
	case Column:
		return QuoteIdent(o.Name), nil
	case *Column:
		return QuoteIdent(o.Name), nil
	case Literal:
		return r.literal(o.Value)
	case *Literal:
		return r.literal(o.Value)
	}
	return "", fmt.Errorf("unsupported operand type: %T", o)
}

func (r *renderer) literal(v any) (string, error) {
	switch v := v.(type) {
	case nil, bool, int64, string:
		r.params = append(r.params, v)
		return "?", nil
	case *apd.Decimal:
		typ, err := r.decimalType(v)
		if err != nil {
			return "", err
		}
		r.params = append(r.params, v.Text('f'))
		return "CAST(? AS " + typ + ")", nil
	}
	return "", fmt.Errorf("unsupported literal type: %T", v)
}

// decimalType sizes the cast of a decimal literal so it holds the literal's
// digits exactly: 0.1 is DECIMAL(1,1), 1.2e-3 is DECIMAL(4,4).
func (r *renderer) decimalType(d *apd.Decimal) (string, error) {
	if r.dialect.MaxDecimalWidth == 0 {
		return r.dialect.DecimalType, nil
	}
	if d.Form != apd.Finite {
		return "", fmt.Errorf("decimal literal %s is not finite", d)
	}
	digits := d.NumDigits()
	scale := int64(0)
	if d.Exponent < 0 {
		scale = -int64(d.Exponent)
	}
	width := max(digits+int64(d.Exponent), 0) + scale
	width = max(width, 1)
	if width > int64(r.dialect.MaxDecimalWidth) {
		return "", fmt.Errorf("decimal literal %s needs width %d, %s allows %d",
			d.Text('f'), width, r.dialect.Name, r.dialect.MaxDecimalWidth)
	}
	return fmt.Sprintf("%s(%d,%d)", r.dialect.DecimalType, width, scale), nil
}
