package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/Flushot/sqlparse/internal/relational"
)

// Compile targets.
const (
	TargetSQL = "sql"
	TargetDoc = "doc"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Schema is a directory of CUE model files. Relative paths are
	// resolved against the scenario file. Without a schema every model and
	// field resolves.
	Schema string `yaml:"schema,omitempty"`

	// Target is TargetSQL or TargetDoc.
	Target string `yaml:"target"`

	// Dialect selects the SQL dialect: "sqlite3" (default) or "duckdb".
	Dialect string `yaml:"dialect,omitempty"`

	Query    string `yaml:"query"`
	MaxDepth int    `yaml:"max_depth,omitempty"`

	// Data seeds records per model name before the query runs.
	Data map[string][]map[string]any `yaml:"data,omitempty"`

	ExpectError      string   `yaml:"expect_error,omitempty"`
	ExpectFilter     *string  `yaml:"expect_filter,omitempty"`
	ExpectParams     []any    `yaml:"expect_params,omitempty"`
	ExpectProjection []string `yaml:"expect_projection,omitempty"`

	// ExpectKeys lists the key values of the selected records, in order.
	ExpectKeys []any `yaml:"expect_keys,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected and a relative schema path is resolved against the file's
// directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "expect_filer".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
// Scenario names must be unique.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	sort.Strings(paths)

	seen := map[string]string{}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("scenario %q defined in both %s and %s", s.Name, prev, p)
		}
		seen[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and
// consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Query == "" {
		return fmt.Errorf("query is required")
	}

	switch s.Target {
	case TargetSQL:
		if s.Dialect != "" {
			if _, err := relational.DialectFor(s.Dialect); err != nil {
				return err
			}
		}
	case TargetDoc:
		if s.Dialect != "" {
			return fmt.Errorf("dialect applies only to the sql target")
		}
	case "":
		return fmt.Errorf("target is required")
	default:
		return fmt.Errorf("unknown target %q (want %s or %s)", s.Target, TargetSQL, TargetDoc)
	}

	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}

	if s.ExpectError != "" {
		if s.ExpectFilter != nil || s.ExpectParams != nil || s.ExpectProjection != nil || s.ExpectKeys != nil {
			return fmt.Errorf("expect_error excludes the other expectations")
		}
	}
	if s.ExpectKeys != nil && len(s.Data) == 0 {
		return fmt.Errorf("expect_keys needs data")
	}
	if s.ExpectParams != nil && s.Target != TargetSQL {
		return fmt.Errorf("expect_params applies only to the sql target")
	}
	if len(s.Data) > 0 && s.Target == TargetSQL && s.Schema == "" {
		return fmt.Errorf("data for the sql target needs a schema")
	}

	if s.Schema != "" {
		if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
			return fmt.Errorf("schema directory not found: %s", s.Schema)
		}
	}
	return nil
}
