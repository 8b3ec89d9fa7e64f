package pyenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voicelayer/pjforge/internal/execx"
	"github.com/voicelayer/pjforge/internal/model"
)

// Manager provides virtual environment operations.
type Manager struct {
	run execx.Runner
}

// NewManager creates a Manager backed by the given runner.
func NewManager(run execx.Runner) *Manager {
	return &Manager{run: run}
}

// BinDir returns the environment's executable directory.
func BinDir(venvDir string) string {
	return filepath.Join(venvDir, "bin")
}

// PythonPath returns the environment's interpreter path.
func PythonPath(venvDir string) string {
	return filepath.Join(BinDir(venvDir), "python")
}

// PipPath returns the environment's pip path.
func PipPath(venvDir string) string {
	return filepath.Join(BinDir(venvDir), "pip")
}

// ActivatePath returns the environment's activation script path.
func ActivatePath(venvDir string) string {
	return filepath.Join(BinDir(venvDir), "activate")
}

// Exists reports whether venvDir holds a virtual environment.
// The activation script is the probe: it is created last during venv
// setup, so its presence implies a usable environment.
func Exists(venvDir string) bool {
	info, err := os.Stat(ActivatePath(venvDir))
	return err == nil && !info.IsDir()
}

// Ensure creates the virtual environment unless it already exists.
// Returns skipped=true for an existing environment; re-running the
// pipeline must not create a second one.
func (m *Manager) Ensure(ctx context.Context, python, venvDir string) (skipped bool, err error) {
	if Exists(venvDir) {
		return true, nil
	}

	if _, err := m.run.Run(ctx, execx.Cmd{
		Name:   python,
		Args:   []string{"-m", "venv", venvDir},
		Stream: true,
	}); err != nil {
		return false, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to create virtual environment at %s", venvDir), err)
	}
	return false, nil
}

// UpgradeTooling upgrades pip, setuptools, and wheel inside the
// environment. Stock Debian venvs ship a pip too old to build the
// binding's source distribution.
func (m *Manager) UpgradeTooling(ctx context.Context, venvDir string) error {
	if _, err := m.run.Run(ctx, execx.Cmd{
		Name:   PipPath(venvDir),
		Args:   []string{"install", "--upgrade", "pip", "setuptools", "wheel"},
		Stream: true,
	}); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to upgrade venv packaging tooling", err)
	}
	return nil
}

// InstallForce pip-installs the package in dir into the environment,
// reinstalling over any previously installed version. Used for the
// binding so a rebuilt module always replaces the stale one.
func (m *Manager) InstallForce(ctx context.Context, venvDir, dir string) error {
	if _, err := m.run.Run(ctx, execx.Cmd{
		Name:   PipPath(venvDir),
		Args:   []string{"install", "--force-reinstall", dir},
		Stream: true,
	}); err != nil {
		return model.WrapCLIError(model.ExitBindingError,
			fmt.Sprintf("failed to install %s into the virtual environment", dir), err)
	}
	return nil
}

// RunPython executes the environment's interpreter with the pjproject
// library directory on LD_LIBRARY_PATH, which is the process-level
// equivalent of the patched activation hook. Output is captured.
func (m *Manager) RunPython(ctx context.Context, venvDir, libDir string, args ...string) (string, error) {
	env := map[string]string{}
	if libDir != "" {
		ldPath := libDir
		if existing := os.Getenv("LD_LIBRARY_PATH"); existing != "" {
			ldPath = ldPath + string(os.PathListSeparator) + existing
		}
		env["LD_LIBRARY_PATH"] = ldPath
	}

	return m.run.Run(ctx, execx.Cmd{
		Name: PythonPath(venvDir),
		Args: args,
		Env:  env,
	})
}
