package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_WritesSourceAndHeader(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "generate", "testdata/pi.xml", "--out-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Generated nwocg: 10 block(s)")
	assert.Contains(t, out, "1 delay(s)")

	source, err := os.ReadFile(filepath.Join(dir, "nwocg.c"))
	require.NoError(t, err)
	assert.Contains(t, string(source), `#include "nwocg_run.h"`)
	assert.Contains(t, string(source), "    nwocg.UnitDelay1 = nwocg.Add2;\n")

	header, err := os.ReadFile(filepath.Join(dir, "nwocg_run.h"))
	require.NoError(t, err)
	assert.Contains(t, string(header), "#ifndef NWOCG_RUN_H")
}

func TestGenerate_CustomPrefixNoHeader(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "generate", "testdata/pi.xml", "-o", dir, "--prefix", "motor", "--header=false")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "motor.c", entries[0].Name())
}

func TestGenerate_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gen", "c")

	_, err := execute(t, "generate", "testdata/pi.xml", "-o", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "nwocg.c"))
}

func TestGenerate_Stdout(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "generate", "testdata/pi.xml", "--stdout", "-o", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "void nwocg_generated_step()")
	assert.NotContains(t, out, "✓")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerate_JSON(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "generate", "testdata/pi.xml", "-o", dir, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "nwocg", resp.Data.Prefix)
	assert.Equal(t, 10, resp.Data.Stats.Blocks)
	assert.Equal(t, 3, resp.Data.Stats.ExternalPorts)
	assert.Equal(t, []string{
		filepath.Join(dir, "nwocg.c"),
		filepath.Join(dir, "nwocg_run.h"),
	}, resp.Data.Files)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		code     string
		exitCode int
	}{
		{"missing model", []string{"testdata/absent.xml"}, "E005", ExitCommandError},
		{"unsupported format", []string{"testdata/pi.txt"}, "E003", ExitCommandError},
		{"algebraic loop", []string{"testdata/loop.json"}, "E209", ExitFailure},
		{"unknown kind", []string{"testdata/unknown.yaml"}, "E220", ExitFailure},
		{"invalid prefix", []string{"testdata/pi.xml", "--prefix", "9lives"}, "E208", ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			args := append([]string{"generate", "-o", dir}, tt.args...)

			out, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, "Error ["+tt.code+"]")

			// No partial output
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestGenerate_ErrorJSON(t *testing.T) {
	out, err := execute(t, "generate", "testdata/loop.json", "-o", t.TempDir(), "--format", "json")
	require.Error(t, err)

	var resp Response[*GenerateResult]
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, StatusError, resp.Status)
	assert.Nil(t, resp.Data)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E209", resp.Error.Code)
	assert.Equal(t, "testdata/loop.json", resp.Error.Path)
	assert.Contains(t, resp.Error.Message, "s → g → s")
}

func TestGenerate_WriteFailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	// a directory where the header should go makes the header rename fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nwocg_run.h"), 0755))

	out, err := execute(t, "generate", "testdata/pi.xml", "-o", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]: writing header")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "nwocg_run.h", entries[0].Name())
	assert.True(t, entries[0].IsDir())
}

func TestGenerate_OverwritesPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "nwocg.c")
	require.NoError(t, os.WriteFile(source, []byte("stale\n"), 0644))

	_, err := execute(t, "generate", "testdata/pi.xml", "-o", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(source)
	require.NoError(t, err)
	assert.Contains(t, string(data), "void nwocg_generated_step()")

	info, err := os.Stat(source)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGenerate_ConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	cfgPath := filepath.Join(dir, "nwocg.yaml")
	cfg := "prefix: plant\noutput_dir: " + outDir + "\nheader: false\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	_, err := execute(t, "generate", "testdata/pi.xml", "--config", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "plant.c"))
	assert.NoFileExists(t, filepath.Join(outDir, "plant_run.h"))

	// Flags win over the file
	_, err = execute(t, "generate", "testdata/pi.xml", "--config", cfgPath, "--prefix", "ctl", "--header")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "ctl.c"))
	assert.FileExists(t, filepath.Join(outDir, "ctl_run.h"))
}

func TestGenerate_RecordsHistory(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")

	out, err := execute(t, "generate", "testdata/pi.xml", "-o", dir, "--history", db)
	require.NoError(t, err)
	assert.Contains(t, out, "recorded run 1")
	assert.NotContains(t, out, "unchanged")

	out, err = execute(t, "generate", "testdata/pi.xml", "-o", dir, "--history", db, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data GenerateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Data.Run)
	assert.Equal(t, int64(2), resp.Data.Run.Seq)
	assert.True(t, resp.Data.Unchanged)
	assert.NotEmpty(t, resp.Data.Run.HeaderHash)

	// A different prefix changes the artifacts
	out, err = execute(t, "generate", "testdata/pi.xml", "-o", dir, "--history", db, "--prefix", "other")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded run 3")
	assert.NotContains(t, out, "unchanged")
}
