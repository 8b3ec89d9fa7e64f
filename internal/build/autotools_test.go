package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicelayer/pjforge/internal/execx"
)

// fakeRunner records invocations and delegates results to a scripted
// callback, so build sequencing is testable without a compiler toolchain.
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

// TestConfigure verifies the configure invocation: absolute script path,
// --prefix first, the fixed flags, and CFLAGS=-fPIC.
func TestConfigure(t *testing.T) {
	srcDir := t.TempDir()
	prefix := filepath.Join(t.TempDir(), "opt", "pjsip")

	fake := &fakeRunner{}
	b := NewBuilder(fake)

	flags := []string{"--enable-shared", "--disable-video"}
	require.NoError(t, b.Configure(context.Background(), srcDir, prefix, flags))

	require.Len(t, fake.calls, 1)
	c := fake.calls[0]
	assert.Equal(t, filepath.Join(srcDir, "configure"), c.Name)
	assert.Equal(t, srcDir, c.Dir)
	require.Len(t, c.Args, 3)
	assert.Equal(t, "--prefix="+prefix, c.Args[0])
	assert.Equal(t, []string{"--enable-shared", "--disable-video"}, c.Args[1:])
	assert.Equal(t, "-fPIC", c.Env["CFLAGS"])
	assert.True(t, c.Stream)
}

// TestCompile verifies the make dep / make -jN sequence.
func TestCompile(t *testing.T) {
	srcDir := t.TempDir()
	fake := &fakeRunner{}
	b := NewBuilder(fake)

	require.NoError(t, b.Compile(context.Background(), srcDir, 4))

	require.Len(t, fake.calls, 2)
	assert.Equal(t, []string{"dep"}, fake.calls[0].Args)
	assert.Equal(t, []string{"-j4"}, fake.calls[1].Args)
	for _, c := range fake.calls {
		assert.Equal(t, "make", c.Name)
		assert.Equal(t, srcDir, c.Dir)
	}
}

// TestCompileClampsJobs verifies that a nonsensical parallelism degree
// falls back to a serial build rather than producing "make -j0".
func TestCompileClampsJobs(t *testing.T) {
	fake := &fakeRunner{}
	b := NewBuilder(fake)

	require.NoError(t, b.Compile(context.Background(), t.TempDir(), 0))
	assert.Equal(t, []string{"-j1"}, fake.calls[1].Args)
}

// TestCompileStopsAfterDepFailure verifies fail-fast ordering: a failing
// `make dep` must prevent the main compile from running.
func TestCompileStopsAfterDepFailure(t *testing.T) {
	fake := &fakeRunner{run: func(c execx.Cmd) (string, error) {
		if len(c.Args) > 0 && c.Args[0] == "dep" {
			return "", errors.New("exit status 2")
		}
		return "", nil
	}}
	b := NewBuilder(fake)

	err := b.Compile(context.Background(), t.TempDir(), 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "make dep failed")
	assert.Len(t, fake.calls, 1)
}

// TestInstallVerifiesPrefix verifies that make install success is not
// trusted blindly: the prefix must contain pjproject shared objects.
func TestInstallVerifiesPrefix(t *testing.T) {
	srcDir := t.TempDir()
	prefix := t.TempDir()

	fake := &fakeRunner{}
	b := NewBuilder(fake)

	// Empty prefix: make install "succeeded" but produced nothing.
	err := b.Install(context.Background(), srcDir, prefix)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pjproject shared libraries")

	// Populated prefix passes.
	libDir := filepath.Join(prefix, "lib")
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "libpjsua2.so.2"), []byte{}, 0o644))

	require.NoError(t, b.Install(context.Background(), srcDir, prefix))
}

// TestInstalledLibs verifies the glob-based prefix check directly.
func TestInstalledLibs(t *testing.T) {
	prefix := t.TempDir()
	libDir := filepath.Join(prefix, "lib")
	require.NoError(t, os.MkdirAll(libDir, 0o755))

	_, err := InstalledLibs(prefix)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(libDir, "libpj.so"), []byte{}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "libpjmedia.so.2.14"), []byte{}, 0o644))
	// Unrelated libraries must not satisfy the check on their own.
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "libother.so"), []byte{}, 0o644))

	libs, err := InstalledLibs(prefix)
	require.NoError(t, err)
	assert.Len(t, libs, 2)
}

// TestBuildBinding verifies the swig build invocation: correct directory
// and the venv bin dir prepended to PATH.
func TestBuildBinding(t *testing.T) {
	srcDir := t.TempDir()
	swigDir := SwigPythonDir(srcDir)
	require.NoError(t, os.MkdirAll(swigDir, 0o755))
	venvBin := filepath.Join(t.TempDir(), "venv", "bin")

	fake := &fakeRunner{}
	b := NewBuilder(fake)

	require.NoError(t, b.BuildBinding(context.Background(), srcDir, venvBin))

	require.Len(t, fake.calls, 1)
	c := fake.calls[0]
	assert.Equal(t, "make", c.Name)
	assert.Equal(t, swigDir, c.Dir)
	assert.Equal(t, venvBin, filepath.SplitList(c.Env["PATH"])[0])
}

// TestBuildBindingMissingDir verifies the guard for checkouts that do not
// contain the swig binding sources.
func TestBuildBindingMissingDir(t *testing.T) {
	fake := &fakeRunner{}
	b := NewBuilder(fake)

	err := b.BuildBinding(context.Background(), t.TempDir(), "/nonexistent/bin")
	require.Error(t, err)
	assert.Empty(t, fake.calls)
}
