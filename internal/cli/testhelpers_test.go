package cli

import (
	"bytes"
	"path/filepath"
	"testing"
)

func runCommand(t *testing.T, args []string) (stdout string, stderr string, err error) {
	t.Helper()
	return runApp(t, nil, args)
}

// runApp executes the root command against app, or a default app when nil.
// A config path inside t.TempDir is always passed so the user's real config
// never leaks into tests.
func runApp(t *testing.T, app *appState, args []string) (stdout string, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()
	if app != nil {
		cmd = newRootCmd(app)
	}
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.toml"), "--no-progress"}, args...))

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}
