package bench

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "calibrate")
	assert.Contains(t, names, "sleep")
	assert.Contains(t, names, "sweep")
}

func TestRootCommandGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"config", "timer-slack", "cpu", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "-1", cmd.PersistentFlags().Lookup("cpu").DefValue)
}

func TestRootCommandRejectsNegativeTimerSlack(t *testing.T) {
	_, err := execute(t, "sleep", "--timer-slack", "-1ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timer slack")
}

func TestRootCommandRejectsMissingConfig(t *testing.T) {
	_, err := execute(t, "sleep", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestRootCommandLoadsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spinTimeDivisor: 10\n"), 0o644))

	out, err := execute(t, "--config", path, "sleep", "--repetitions", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "TargetMicros"))
}

func TestCalibrateCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("calibration takes about a second")
	}

	out, err := execute(t, "calibrate", "--runs", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SpinsPerTick")
	assert.True(t, strings.HasPrefix(lines[1], "1 "))
	assert.True(t, strings.HasPrefix(lines[2], "2 "))
}

func TestCalibrateCommandRejectsInvalidRuns(t *testing.T) {
	_, err := execute(t, "calibrate", "--runs", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid runs")
}
