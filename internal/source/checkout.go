package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voicelayer/pjforge/internal/execx"
	"github.com/voicelayer/pjforge/internal/model"
)

// Manager provides source checkout operations by invoking the git CLI.
type Manager struct {
	run execx.Runner
}

// NewManager creates a source Manager backed by the given runner.
func NewManager(run execx.Runner) *Manager {
	return &Manager{run: run}
}

// Ensure makes sure dir holds a checkout of repoURL at the pinned tag.
//
// Returns skipped=true when the directory already exists and is checked
// out at the tag. A directory at any other ref is an error: the original
// pipeline would have left it in place and built stale sources, which is
// exactly the failure mode worth catching.
func (m *Manager) Ensure(ctx context.Context, repoURL, tag, dir string) (skipped bool, err error) {
	if dirExists(dir) {
		current, err := m.CheckedOutTag(ctx, dir)
		if err != nil {
			return false, model.WrapCLIError(model.ExitSourceError,
				fmt.Sprintf("existing source tree %s is not at a release tag; remove it with `pjforge clean --source`", dir), err)
		}
		if current != tag {
			return false, model.NewCLIError(model.ExitSourceError,
				fmt.Sprintf("existing source tree %s is at tag %s, want %s; remove it with `pjforge clean --source`", dir, current, tag))
		}
		return true, nil
	}

	if err := m.Clone(ctx, repoURL, tag, dir); err != nil {
		return false, err
	}
	return false, nil
}

// Clone shallow-clones the pinned tag into dir.
//
// --depth 1 keeps the checkout small; the pipeline never needs history.
// --branch accepts tags as well as branches, so an unknown tag surfaces
// here as a clone failure with git's own diagnostic.
func (m *Manager) Clone(ctx context.Context, repoURL, tag, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return model.WrapCLIError(model.ExitSourceError, "failed to create checkout parent directory", err)
	}

	_, err := m.run.Run(ctx, execx.Cmd{
		Name:   "git",
		Args:   []string{"clone", "--depth", "1", "--branch", tag, repoURL, dir},
		Stream: true,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitSourceError,
			fmt.Sprintf("failed to clone %s at tag %s", repoURL, tag), err)
	}
	return nil
}

// CheckedOutTag returns the release tag the checkout in dir points at.
// A detached HEAD that is not exactly at a tag (or a plain branch
// checkout) is an error.
func (m *Manager) CheckedOutTag(ctx context.Context, dir string) (string, error) {
	out, err := m.run.Run(ctx, execx.Cmd{
		Name: "git",
		Args: []string{"-C", dir, "describe", "--tags", "--exact-match", "HEAD"},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
