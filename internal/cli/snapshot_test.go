package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_QueryReadsSnapshot(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "users.snap")

	out, err := execute(t, "snapshot", "--schema", schemaDir, "testdata/users.json", snap)
	require.NoError(t, err)
	assert.Equal(t, "✓ Wrote 5 documents in 1 collection to "+snap+"\n", out)

	fromJSON, err := execute(t, "query", "-t", "doc", "--schema", schemaDir, "--data", "testdata/users.json", nestedNegation)
	require.NoError(t, err)
	fromSnap, err := execute(t, "query", "-t", "doc", "--schema", schemaDir, "--data", snap, nestedNegation)
	require.NoError(t, err)
	assert.Equal(t, fromJSON, fromSnap)
}

func TestSnapshot_JSON(t *testing.T) {
	snap := filepath.Join(t.TempDir(), "users.snap")

	out, err := execute(t, "--format", "json", "snapshot", "testdata/users.json", snap)
	require.NoError(t, err)

	var resp struct {
		Data SnapshotResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, snap, resp.Data.Path)
	assert.Equal(t, map[string]int{"users": 5}, resp.Data.Collections)
}

func TestSnapshot_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "snapshot", "testdata/missing.json", filepath.Join(dir, "x.snap"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	out, err := execute(t, "snapshot", "testdata/users.json", filepath.Join(dir, "no", "such", "dir", "x.snap"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeWriteFailed+"]")

	// A JSON file is not a snapshot.
	_, err = execute(t, "query", "-t", "doc", "--data", "testdata/bad.snap", "select * from users")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
