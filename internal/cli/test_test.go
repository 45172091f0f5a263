package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a scenario for testdata/pi.xml into dir.
func writeScenario(t *testing.T, dir, name, assertions string) string {
	t.Helper()
	model, err := filepath.Abs("testdata/pi.xml")
	require.NoError(t, err)

	content := "name: " + name + "\n" +
		"description: \"PI controller\"\n" +
		"model: " + model + "\n" +
		"assertions:\n" + assertions
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const passingAssertions = `  - type: schedule_order
    blocks: [Add1, Add3, command]
  - type: delay_order
    blocks: [Unit Delay1]
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandNoScenarios(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pi", passingAssertions)

	out, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ pi")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pi", passingAssertions)
	writeScenario(t, dir, "wrong_order", `  - type: schedule_order
    blocks: [command, Add1]
`)

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_order")
	assert.Contains(t, out, "should be before")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: typo\nassertion: []\n"), 0644))

	out, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ typo.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	scenario := writeScenario(t, dir, "pi", passingAssertions)
	golden := filepath.Join(dir, "golden", "pi.golden")

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ pi (golden updated)")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), "void nwocg_generated_step()")

	// Unchanged output matches
	_, err = execute(t, "test", dir)
	require.NoError(t, err)

	// A stale golden fails
	require.NoError(t, os.WriteFile(golden, []byte("stale\n"), 0644))
	out, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
	assert.FileExists(t, scenario)
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pi_one", passingAssertions)
	writeScenario(t, dir, "pi_two", passingAssertions)
	writeScenario(t, dir, "other", `  - type: schedule_order
    blocks: [command, Add1]
`)

	out, err := execute(t, "test", dir, "--filter", "pi_*")
	require.NoError(t, err)
	assert.Contains(t, out, "2 passed, 0 failed, 2 total")
	assert.NotContains(t, out, "other")
}

func TestTestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "pi", passingAssertions)

	out, err := execute(t, "test", dir, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "pi", resp.Data.Scenarios[0].Name)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "pi.golden"),
		goldenFilePath(filepath.Join("scenarios", "pi.yaml")))
}
