package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "nwocg", cmd.Use)
	assert.Contains(t, cmd.Long, "step function")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"generate", "validate", "schedule", "history", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestGenerateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	genCmd, _, err := cmd.Find([]string{"generate"})
	require.NoError(t, err)

	outFlag := genCmd.Flags().Lookup("out-dir")
	require.NotNil(t, outFlag)
	assert.Equal(t, "o", outFlag.Shorthand)
	assert.Equal(t, ".", outFlag.DefValue)

	headerFlag := genCmd.Flags().Lookup("header")
	require.NotNil(t, headerFlag)
	assert.Equal(t, "true", headerFlag.DefValue)

	for _, name := range []string{"prefix", "stdout", "history"} {
		assert.NotNil(t, genCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestHistoryCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	histCmd, _, err := cmd.Find([]string{"history"})
	require.NoError(t, err)

	dbFlag := histCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
	assert.NotNil(t, histCmd.Flags().Lookup("model"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "validate", "testdata/pi.xml", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestConfigFormatApplies(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nwocg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: json\n"), 0644))

	out, err := execute(t, "validate", "testdata/pi.xml", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ok"`)

	// An explicit flag wins over the file
	out, err = execute(t, "validate", "testdata/pi.xml", "--config", cfgPath, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ testdata/pi.xml")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "validate", "testdata/pi.xml", "--config", "/nonexistent/nwocg.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
