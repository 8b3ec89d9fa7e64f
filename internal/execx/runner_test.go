package execx

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLocalRunCaptured verifies that a captured command returns its stdout.
func TestLocalRunCaptured(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on a POSIX shell")
	}

	r := NewLocal()
	out, err := r.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", "echo hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

// TestLocalRunFailureIncludesStderr verifies that a failing command's
// stderr ends up in the error message, since that is often the only
// diagnostic the external tool produces.
func TestLocalRunFailureIncludesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on a POSIX shell")
	}

	r := NewLocal()
	_, err := r.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", "echo boom >&2; exit 3"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "sh -c")
}

// TestLocalRunEnvAndDir verifies env injection and working directory.
func TestLocalRunEnvAndDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on a POSIX shell")
	}

	dir := t.TempDir()
	r := NewLocal()
	out, err := r.Run(context.Background(), Cmd{
		Name: "sh",
		Args: []string{"-c", `printf '%s %s' "$PJFORGE_TEST_VAR" "$PWD"`},
		Dir:  dir,
		Env:  map[string]string{"PJFORGE_TEST_VAR": "set"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "set ")
	assert.Contains(t, out, dir)
}

// TestCommandLine verifies the informational command rendering.
func TestCommandLine(t *testing.T) {
	assert.Equal(t, "make", Cmd{Name: "make"}.CommandLine())
	assert.Equal(t, "git clone --depth 1", Cmd{Name: "git", Args: []string{"clone", "--depth", "1"}}.CommandLine())
}
