package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootHelp(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "parse")
	assert.Contains(t, out, "backends")
}

func TestRootUnknownCommand(t *testing.T) {
	_, _, err := execute(t, "frobnicate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
