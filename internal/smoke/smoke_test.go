package smoke

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicelayer/pjforge/internal/execx"
	"github.com/voicelayer/pjforge/internal/pyenv"
)

// fakeRunner scripts the venv interpreter without needing python or a
// built pjsua2 module on the test host.
type fakeRunner struct {
	calls []execx.Cmd
	run   func(c execx.Cmd) (string, error)
}

func (f *fakeRunner) Run(_ context.Context, c execx.Cmd) (string, error) {
	f.calls = append(f.calls, c)
	if f.run == nil {
		return "", nil
	}
	return f.run(c)
}

// TestRunSuccess verifies the happy path: the interpreter prints the
// version, it matches the pin, and the library path is exposed.
func TestRunSuccess(t *testing.T) {
	fake := &fakeRunner{run: func(c execx.Cmd) (string, error) {
		return "2.14.1-release\n", nil
	}}
	py := pyenv.NewManager(fake)

	version, err := Run(context.Background(), py, "/work/venv", "/work/opt/pjsip/lib", "2.14.1")
	require.NoError(t, err)
	assert.Equal(t, "2.14.1-release", version)

	require.Len(t, fake.calls, 1)
	c := fake.calls[0]
	assert.Contains(t, c.Env["LD_LIBRARY_PATH"], "/work/opt/pjsip/lib")
	require.Len(t, c.Args, 2)
	assert.Equal(t, "-c", c.Args[0])
	// The embedded script must exercise the full endpoint lifecycle.
	for _, call := range []string{"import pjsua2", "libCreate", "libInit", "libVersion", "libDestroy"} {
		assert.Contains(t, c.Args[1], call)
	}
}

// TestRunImportFailure verifies that an interpreter error (missing or
// unloadable binding) maps to a smoke failure.
func TestRunImportFailure(t *testing.T) {
	fake := &fakeRunner{run: func(c execx.Cmd) (string, error) {
		return "", errors.New("ModuleNotFoundError: No module named 'pjsua2'")
	}}
	py := pyenv.NewManager(fake)

	_, err := Run(context.Background(), py, "/work/venv", "/lib", "2.14.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smoke test failed")
}

// TestRunVersionMismatch verifies the stale-prefix detection: a version
// that does not contain the pinned tag fails even though the library
// initialized fine.
func TestRunVersionMismatch(t *testing.T) {
	fake := &fakeRunner{run: func(c execx.Cmd) (string, error) {
		return "2.13.0\n", nil
	}}
	py := pyenv.NewManager(fake)

	version, err := Run(context.Background(), py, "/work/venv", "/lib", "2.14.1")
	require.Error(t, err)
	assert.Equal(t, "2.13.0", version, "the mismatching version should still be reported")
	assert.Contains(t, err.Error(), "does not match pinned tag")
}

// TestRunEmptyOutput verifies that silent success output is an error;
// the version print is the whole point of the check.
func TestRunEmptyOutput(t *testing.T) {
	fake := &fakeRunner{run: func(c execx.Cmd) (string, error) {
		return "   \n", nil
	}}
	py := pyenv.NewManager(fake)

	_, err := Run(context.Background(), py, "/work/venv", "/lib", "2.14.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no version string")
}

// TestParseVersion verifies last-non-empty-line extraction.
func TestParseVersion(t *testing.T) {
	assert.Equal(t, "2.14.1", ParseVersion("2.14.1\n"))
	assert.Equal(t, "2.14.1", ParseVersion("some loader warning\n2.14.1\n\n"))
	assert.Equal(t, "", ParseVersion("\n \n"))
}

// TestMatchesPin verifies version/pin matching semantics.
func TestMatchesPin(t *testing.T) {
	assert.True(t, MatchesPin("2.14.1", "2.14.1"))
	assert.True(t, MatchesPin("2.14.1-release", "2.14.1"))
	assert.False(t, MatchesPin("2.13.0", "2.14.1"))
	assert.False(t, MatchesPin("", "2.14.1"))
	assert.False(t, MatchesPin("2.14.1", ""))
}

// TestScriptSilencesLogging pins the log configuration in the embedded
// script; console output from pjsua2 would corrupt the captured version.
func TestScriptSilencesLogging(t *testing.T) {
	assert.True(t, strings.Contains(script, "logConfig.level = 0"))
	assert.True(t, strings.Contains(script, "logConfig.consoleLevel = 0"))
}
