package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_ListsRuns(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")

	_, err := execute(t, "generate", "testdata/pi.xml", "-o", dir, "--history", db)
	require.NoError(t, err)
	_, err = execute(t, "generate", "testdata/pi.xml", "-o", dir, "--history", db, "--prefix", "motor")
	require.NoError(t, err)

	out, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] ")
	assert.Contains(t, out, "[2] ")
	assert.Contains(t, out, "prefix=nwocg blocks=10")
	assert.Contains(t, out, "prefix=motor blocks=10")
}

func TestHistory_FilterByModel(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")

	// Same records under another path and format hash the same
	copyPath := filepath.Join(dir, "copy.xml")
	data, err := os.ReadFile("testdata/pi.xml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(copyPath, data, 0644))

	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte("blocks:\n  - {id: 1, name: u, kind: Inport, port: true}\n"), 0644))

	for _, model := range []string{"testdata/pi.xml", other, copyPath} {
		_, err := execute(t, "generate", model, "-o", dir, "--history", db)
		require.NoError(t, err)
	}

	out, err := execute(t, "history", "--db", db, "--model", "testdata/pi.xml", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, "testdata/pi.xml", resp.Data.Runs[0].ModelPath)
	assert.Equal(t, copyPath, resp.Data.Runs[1].ModelPath)
	assert.Equal(t, resp.Data.Runs[0].ModelHash, resp.Data.Runs[1].ModelHash)
}

func TestHistory_EmptyDatabase(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")

	// Any recorded run creates the schema; the filter then matches nothing
	_, err := execute(t, "generate", "testdata/pi.xml", "-o", dir, "--history", db)
	require.NoError(t, err)

	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(other, []byte("blocks:\n  - {id: 1, name: u, kind: Inport, port: true}\n"), 0644))

	out, err := execute(t, "history", "--db", db, "--model", other)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}

func TestHistory_DatabaseErrors(t *testing.T) {
	_, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "history database required")

	_, err = execute(t, "history", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}
