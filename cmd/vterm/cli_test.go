package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

// isolate points config, state and the starting directory at temp dirs.
func isolate(t *testing.T) (string, string) {
	t.Helper()
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("VTERM_HOME", home)
	for _, key := range []string{
		"VTERM_UI_BACKEND",
		"VTERM_SHELL_START_DIR",
		"VTERM_SHELL_TIMEOUT_SECONDS",
		"VTERM_HISTORY_ENABLED",
	} {
		t.Setenv(key, "")
	}
	return home, work
}

func TestVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "vterm dev\n", stdout)
}

func TestNormalizeCommand(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCLI(t, "", "normalize", "create", "folder", "Reports")
	require.NoError(t, err)
	assert.Equal(t, "mkdir Reports\n", stdout)

	stdout, _, err = executeCLI(t, "", "normalize", "--json", "delete", "folder", "build")
	require.NoError(t, err)
	var payload previewPayload
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, "rm -rf build", payload.Canonical)
	assert.Equal(t, "rm", payload.Verb)

	stdout, _, err = executeCLI(t, "", "normalize", "--rules")
	require.NoError(t, err)
	assert.Contains(t, stdout, "delete folder")
	assert.Contains(t, stdout, "rm -rf <args>")

	_, _, err = executeCLI(t, "", "normalize")
	require.Error(t, err)
}

func TestRunExecutesAndRecordsHistory(t *testing.T) {
	_, work := isolate(t)

	stdout, _, err := executeCLI(t, "", "run", "--dir", work, "create", "folder", "Reports")
	require.NoError(t, err)
	assert.Equal(t, "→ mkdir Reports\nDirectory created: Reports\n", stdout)

	info, err := os.Stat(filepath.Join(work, "Reports"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	stdout, _, err = executeCLI(t, "", "history")
	require.NoError(t, err)
	assert.Equal(t, "create folder Reports\n", stdout)

	stdout, _, err = executeCLI(t, "", "history", "reports")
	require.NoError(t, err)
	assert.Contains(t, stdout, "create folder Reports")
}

func TestRunFailureSetsExitStatus(t *testing.T) {
	_, work := isolate(t)

	stdout, _, err := executeCLI(t, "", "run", "--json", "--dir", work, "go", "to", "nowhere")
	var exit exitError
	require.True(t, errors.As(err, &exit), "expected exit error, got %v", err)
	assert.Equal(t, 1, exit.code)

	var payload resultPayload
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, []string{"No such directory: nowhere"}, payload.Output)
	assert.Equal(t, "not_found", payload.Kind)
	require.NotNil(t, payload.ParsedCommand)
	assert.Equal(t, "cd nowhere", *payload.ParsedCommand)
	assert.Equal(t, work, payload.Cwd)
}

func TestRunDryRunAndHighRiskRefusal(t *testing.T) {
	_, work := isolate(t)

	stdout, _, err := executeCLI(t, "", "run", "--dry-run", "--dir", work, "delete", "folder", "/")
	require.NoError(t, err)
	assert.Equal(t, "rm -rf /\nrisk: high\n", stdout)

	_, _, err = executeCLI(t, "", "run", "--dir", work, "delete", "folder", "/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing high-risk command")
}

func TestREPLSessionKeepsState(t *testing.T) {
	_, work := isolate(t)

	stdout, _, err := executeCLI(t, "make folder a\ngo to a\npwd\nexit\n", "--dir", work)
	require.NoError(t, err)
	assert.Contains(t, stdout, work+"$ ")
	assert.Contains(t, stdout, "Directory created: a")
	assert.Contains(t, stdout, "Changed to: "+filepath.Join(work, "a"))
	assert.Contains(t, stdout, filepath.Join(work, "a")+"$ ")
	assert.Contains(t, stdout, "Goodbye!")
}

func TestConfigSetGetAndEnvOverride(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCLI(t, "", "config", "set", "ui.backend", "plain")
	require.NoError(t, err)
	assert.Contains(t, stdout, "saved ui.backend=plain")

	stdout, _, err = executeCLI(t, "", "config", "get", "ui.backend")
	require.NoError(t, err)
	assert.Equal(t, "plain\n", stdout)

	t.Setenv("VTERM_UI_BACKEND", "huh")
	stdout, _, err = executeCLI(t, "", "config", "get", "ui.backend")
	require.NoError(t, err)
	assert.Equal(t, "huh\n", stdout)

	stdout, _, err = executeCLI(t, "", "--ui", "tview", "config", "get", "ui.backend")
	require.NoError(t, err)
	assert.Equal(t, "tview\n", stdout)

	_, _, err = executeCLI(t, "", "config", "set", "ui.backend", "neon")
	require.Error(t, err)

	stdout, _, err = executeCLI(t, "", "config", "show", "--json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"backend": "huh"`)
}

func TestStatusJSON(t *testing.T) {
	home, work := isolate(t)

	stdout, _, err := executeCLI(t, "", "status", "--json", "--dir", work)
	require.NoError(t, err)

	var payload statusPayload
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	assert.Equal(t, work, payload.Cwd)
	assert.Equal(t, filepath.Join(home, "config", "config.toml"), payload.ConfigPath)
	assert.Equal(t, filepath.Join(home, "state", "history"), payload.HistoryPath)
	assert.Equal(t, "10s", payload.Timeout)
}

func TestCompletionsMergeSources(t *testing.T) {
	got := completions([]string{"ls -la", "git status", "ls -la"})
	assert.Contains(t, got, "sysinfo")
	assert.Contains(t, got, "where am i")
	assert.Contains(t, got, "git status")

	count := 0
	for _, candidate := range got {
		if candidate == "ls -la" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
