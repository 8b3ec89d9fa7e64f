package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voicelayer/pjforge/internal/execx"
	"github.com/voicelayer/pjforge/internal/model"
)

// Builder compiles pjproject from a source checkout into a local prefix.
type Builder struct {
	run execx.Runner
}

// NewBuilder creates a Builder backed by the given runner.
func NewBuilder(run execx.Runner) *Builder {
	return &Builder{run: run}
}

// Configure runs ./configure in the source tree with the fixed feature
// flags plus --prefix pointing at the local install prefix.
//
// CFLAGS=-fPIC is required because the Python binding links the static
// parts of pjproject into a shared object.
func (b *Builder) Configure(ctx context.Context, srcDir, prefixDir string, flags []string) error {
	prefix, err := filepath.Abs(prefixDir)
	if err != nil {
		return model.WrapCLIError(model.ExitBuildError, "failed to resolve install prefix", err)
	}

	args := append([]string{fmt.Sprintf("--prefix=%s", prefix)}, flags...)

	// The configure script is invoked by absolute path: exec resolution
	// of relative names depends on the parent's working directory, not
	// the child's, and this sidesteps that entirely.
	if _, err := b.run.Run(ctx, execx.Cmd{
		Name:   filepath.Join(srcDir, "configure"),
		Args:   args,
		Dir:    srcDir,
		Env:    map[string]string{"CFLAGS": "-fPIC"},
		Stream: true,
	}); err != nil {
		return model.WrapCLIError(model.ExitBuildError, "configure failed", err)
	}
	return nil
}

// Compile runs the pjproject build: `make dep` resolves the generated
// dependency files, then `make -j<jobs>` compiles everything.
func (b *Builder) Compile(ctx context.Context, srcDir string, jobs int) error {
	if jobs < 1 {
		jobs = 1
	}

	if _, err := b.run.Run(ctx, execx.Cmd{
		Name:   "make",
		Args:   []string{"dep"},
		Dir:    srcDir,
		Stream: true,
	}); err != nil {
		return model.WrapCLIError(model.ExitBuildError, "make dep failed", err)
	}

	if _, err := b.run.Run(ctx, execx.Cmd{
		Name:   "make",
		Args:   []string{fmt.Sprintf("-j%d", jobs)},
		Dir:    srcDir,
		Stream: true,
	}); err != nil {
		return model.WrapCLIError(model.ExitBuildError, "make failed", err)
	}
	return nil
}

// Install runs `make install` and verifies the prefix actually received
// the pjproject shared libraries.
func (b *Builder) Install(ctx context.Context, srcDir, prefixDir string) error {
	if _, err := b.run.Run(ctx, execx.Cmd{
		Name:   "make",
		Args:   []string{"install"},
		Dir:    srcDir,
		Stream: true,
	}); err != nil {
		return model.WrapCLIError(model.ExitBuildError, "make install failed", err)
	}

	if _, err := InstalledLibs(prefixDir); err != nil {
		return err
	}
	return nil
}

// InstalledLibs returns the pjproject shared objects under <prefix>/lib.
// An empty result is an error: make install exiting zero without
// producing libraries means the feature configuration is broken.
func InstalledLibs(prefixDir string) ([]string, error) {
	pattern := filepath.Join(prefixDir, "lib", "libpj*.so*")
	libs, err := filepath.Glob(pattern)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitBuildError, "failed to scan install prefix", err)
	}
	if len(libs) == 0 {
		return nil, model.NewCLIError(model.ExitBuildError,
			fmt.Sprintf("no pjproject shared libraries found under %s after make install", filepath.Join(prefixDir, "lib")))
	}
	return libs, nil
}

// SwigPythonDir returns the directory of the swig-generated pjsua2
// Python binding inside a pjproject checkout.
func SwigPythonDir(srcDir string) string {
	return filepath.Join(srcDir, "pjsip-apps", "src", "swig", "python")
}

// BuildBinding compiles the pjsua2 Python binding.
//
// The swig makefile invokes whatever `python3` is first on PATH to probe
// include paths, so the virtual environment's bin directory is prepended:
// the binding must be built against the venv interpreter it will be
// installed into.
func (b *Builder) BuildBinding(ctx context.Context, srcDir, venvBinDir string) error {
	swigDir := SwigPythonDir(srcDir)
	if _, err := os.Stat(swigDir); err != nil {
		return model.WrapCLIError(model.ExitBindingError,
			fmt.Sprintf("swig python binding directory %s not found", swigDir), err)
	}

	path := venvBinDir + string(os.PathListSeparator) + os.Getenv("PATH")
	if _, err := b.run.Run(ctx, execx.Cmd{
		Name:   "make",
		Dir:    swigDir,
		Env:    map[string]string{"PATH": path},
		Stream: true,
	}); err != nil {
		return model.WrapCLIError(model.ExitBindingError, "pjsua2 binding build failed", err)
	}
	return nil
}
