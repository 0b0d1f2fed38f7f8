package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"github.com/Flushot/sqlparse/internal/builder"
	"github.com/Flushot/sqlparse/internal/compiler"
	"github.com/Flushot/sqlparse/internal/docstore"
	"github.com/Flushot/sqlparse/internal/document"
	"github.com/Flushot/sqlparse/internal/querydoc"
	"github.com/Flushot/sqlparse/internal/querysql"
	"github.com/Flushot/sqlparse/internal/relational"
	"github.com/Flushot/sqlparse/internal/schema"
	"github.com/Flushot/sqlparse/internal/store"
)

// Harness runs one scenario.
type Harness struct {
	scenario *Scenario
	resolver schema.Resolver
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario that seeds data runs against a fresh in-memory database.
// Compile errors are part of the result, not returned: only a broken
// scenario setup (unreadable schema, rejected seed data) is an error.
func Run(scenario *Scenario) (*Result, error) {
	h := &Harness{
		scenario: scenario,
		resolver: schema.Schemaless{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	if scenario.Schema != "" {
		reg, err := schema.LoadDir(scenario.Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to load schema: %w", err)
		}
		h.resolver = reg
	}

	ctx := context.Background()
	result := NewResult(scenario.Target)

	var err error
	switch scenario.Target {
	case TargetSQL:
		err = h.runSQL(ctx, &result.Output)
	case TargetDoc:
		err = h.runDoc(&result.Output)
	default:
		return nil, fmt.Errorf("unknown target %q", scenario.Target)
	}
	if err != nil {
		return nil, err
	}

	for _, msg := range EvaluateExpectations(scenario, &result.Output) {
		result.AddError(msg)
	}
	h.logger.Info("scenario completed", "name", scenario.Name, "pass", result.Pass)
	return result, nil
}

func (h *Harness) dialect() relational.Dialect {
	if h.scenario.Dialect == "" {
		return relational.SQLite
	}
	d, err := relational.DialectFor(h.scenario.Dialect)
	if err != nil {
		return relational.SQLite
	}
	return d
}

func recordError(out *Output, err error) {
	out.ErrorCode = string(compiler.CodeOf(err))
	out.Error = err.Error()
}

// runSQL compiles the query and, when data is seeded, runs it on a fresh
// store. Setup failures are returned; query failures land in out.
func (h *Harness) runSQL(ctx context.Context, out *Output) error {
	b := &builder.RelationalBuilder{Resolver: h.resolver, Logger: h.logger, MaxDepth: h.scenario.MaxDepth}
	res, err := b.Build(h.scenario.Query)
	if err != nil {
		recordError(out, err)
		return nil
	}

	d := h.dialect()
	out.Source = res.Model.Table()
	out.Projection = res.Columns
	if res.Filter != nil {
		where, params, err := relational.RenderExpr(res.Filter, d)
		if err != nil {
			recordError(out, err)
			return nil
		}
		out.Filter = where
		out.Params = params
	}
	stmt, _, err := res.Render(d)
	if err != nil {
		recordError(out, err)
		return nil
	}
	out.Statement = stmt

	if len(h.scenario.Data) == 0 {
		return nil
	}
	return h.querySQL(ctx, d, res, out)
}

func (h *Harness) querySQL(ctx context.Context, d relational.Dialect, res *querysql.Result, out *Output) error {
	dsn := ":memory:"
	if d.Name == relational.DuckDB.Name {
		dsn = ""
	}
	st, err := store.Open(d.Name, dsn, store.WithLogger(h.logger))
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	for _, name := range sortedKeys(h.scenario.Data) {
		m, err := h.resolver.ResolveModel(name)
		if err != nil {
			return fmt.Errorf("data %s: %w", name, err)
		}
		if err := st.CreateTable(ctx, m); err != nil {
			return err
		}
		rows := make([]store.Row, len(h.scenario.Data[name]))
		for i, r := range h.scenario.Data[name] {
			row, err := normalizeRecord(r)
			if err != nil {
				return fmt.Errorf("data %s[%d]: %w", name, i, err)
			}
			rows[i] = row
		}
		if err := st.Insert(ctx, m, rows...); err != nil {
			return err
		}
	}

	if res.Model.Key == "" {
		return fmt.Errorf("model %s has no key to report", res.Model.Name)
	}
	found, err := st.Find(ctx, keyed(res))
	if err != nil {
		recordError(out, err)
		return nil
	}
	out.Keys = []any{}
	for _, r := range found {
		out.Keys = append(out.Keys, r[res.Model.Key])
	}
	return nil
}

// keyed returns res with its projection replaced by the model key.
func keyed(res *querysql.Result) *querysql.Result {
	k := *res
	k.Columns = []string{res.Model.Key}
	k.Distinct = false
	return &k
}

func (h *Harness) runDoc(out *Output) error {
	b := &builder.DocumentBuilder{Resolver: h.resolver, Logger: h.logger, MaxDepth: h.scenario.MaxDepth}
	res, err := b.Build(h.scenario.Query)
	if err != nil {
		recordError(out, err)
		return nil
	}

	out.Source = res.Collection
	out.Projection = res.ProjectionFields()
	filter, err := res.FilterJSON()
	if err != nil {
		recordError(out, err)
		return nil
	}
	out.Filter = string(filter)

	if len(h.scenario.Data) == 0 {
		return nil
	}
	return h.queryDoc(res, out)
}

func (h *Harness) queryDoc(res *querydoc.Result, out *Output) error {
	db := docstore.NewDatabase()
	for _, name := range sortedKeys(h.scenario.Data) {
		m, err := h.resolver.ResolveModel(name)
		if err != nil {
			return fmt.Errorf("data %s: %w", name, err)
		}
		c := db.Collection(m.Table(), m.Key)
		for i, r := range h.scenario.Data[name] {
			row, err := normalizeRecord(r)
			if err != nil {
				return fmt.Errorf("data %s[%d]: %w", name, i, err)
			}
			if _, err := c.InsertNative(row); err != nil {
				return err
			}
		}
	}

	key := res.Model.Key
	if key == "" {
		key = "id"
	}
	all := *res
	all.Projection = nil
	docs, err := db.Find(&all)
	if err != nil {
		recordError(out, err)
		return nil
	}
	out.Keys = []any{}
	for _, d := range docs {
		out.Keys = append(out.Keys, document.ToNative(d[key]))
	}
	return nil
}

// normalizeRecord converts YAML-decoded values to record values: ints to
// int64 and floats to exact decimals.
func normalizeRecord(r map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(r))
	for k, v := range r {
		n, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, int64, *apd.Decimal:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		d, _, err := apd.NewFromString(strconv.FormatFloat(x, 'f', -1, 64))
		return d, err
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
