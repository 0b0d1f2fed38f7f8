package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// First run with -update to create golden files:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"doc_nested_negation", "sql_between", "error_unmapped"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_OmitsEmptyFields(t *testing.T) {
	snap := Snapshot{
		ScenarioName: "s",
		Query:        "select * from b",
		Output:       Output{Target: TargetDoc, Source: "b", Filter: "{}"},
	}
	obj, err := snap.toCanonical()
	require.NoError(t, err)

	keys := obj.SortedKeys()
	assert.Equal(t, []string{"filter", "query", "scenario_name", "source", "target"}, keys)
}
