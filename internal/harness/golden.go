package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Flushot/sqlparse/internal/document"
)

// Snapshot is the golden-file form of a scenario's output.
type Snapshot struct {
	ScenarioName string
	Query        string
	Output       Output
}

// toCanonical converts the snapshot to a document object for canonical
// JSON serialization. Empty fields are left out.
func (s *Snapshot) toCanonical() (document.Object, error) {
	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"query":         s.Query,
		"target":        s.Output.Target,
	}
	optional := map[string]string{
		"source":     s.Output.Source,
		"statement":  s.Output.Statement,
		"filter":     s.Output.Filter,
		"error_code": s.Output.ErrorCode,
	}
	for k, v := range optional {
		if v != "" {
			out[k] = v
		}
	}
	if len(s.Output.Params) > 0 {
		out["params"] = s.Output.Params
	}
	if len(s.Output.Projection) > 0 {
		fields := make([]any, len(s.Output.Projection))
		for i, f := range s.Output.Projection {
			fields[i] = f
		}
		out["projection"] = fields
	}
	if s.Output.Keys != nil {
		out["keys"] = s.Output.Keys
	}

	for k, v := range out {
		if list, ok := v.([]any); ok {
			norm := make([]any, len(list))
			for i, e := range list {
				n, err := normalizeValue(e)
				if err != nil {
					return nil, err
				}
				norm[i] = n
			}
			out[k] = norm
		}
	}

	v, err := document.FromNative(out)
	if err != nil {
		return nil, err
	}
	return v.(document.Object), nil
}

// MarshalCanonical returns the golden-file bytes of the snapshot.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	obj, err := s.toCanonical()
	if err != nil {
		return nil, err
	}
	return document.MarshalCanonical(obj)
}

// RunWithGolden executes a scenario and compares its output against the
// golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check expectations. Test failure
// (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, scenario.Query, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against the golden
// file for name.
func AssertGolden(t *testing.T, name, query string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{ScenarioName: name, Query: query, Output: result.Output}
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
