// Package apt installs the Debian package prerequisites of the build.
//
// This package wraps the apt-get and dpkg-query CLIs. The idempotency
// guard is dpkg-query based: packages whose installation status is
// already "install ok installed" are filtered out before apt-get is
// invoked, so a fully provisioned host re-runs the stage as a no-op
// without requiring root.
//
// No non-Debian package manager is supported; that matches the scope of
// the pipeline, which targets Debian/Ubuntu build hosts only.
package apt

import (
	"context"
	"fmt"
	"strings"

	"github.com/voicelayer/pjforge/internal/execx"
	"github.com/voicelayer/pjforge/internal/model"
)

// installedStatus is dpkg's status line for a fully installed package.
const installedStatus = "install ok installed"

// Installer provides package installation by invoking apt-get/dpkg-query.
type Installer struct {
	run execx.Runner
}

// NewInstaller creates an Installer backed by the given runner.
func NewInstaller(run execx.Runner) *Installer {
	return &Installer{run: run}
}

// Missing returns the subset of pkgs that dpkg does not report as
// installed, preserving the input order.
//
// dpkg-query exits non-zero for unknown packages; any query failure is
// treated as "not installed" rather than an error, because the authoritative
// answer comes from the apt-get install that follows.
func (i *Installer) Missing(ctx context.Context, pkgs []string) []string {
	var missing []string
	for _, pkg := range pkgs {
		out, err := i.run.Run(ctx, execx.Cmd{
			Name: "dpkg-query",
			Args: []string{"-W", "-f=${Status}", pkg},
		})
		if err != nil || !IsInstalledStatus(out) {
			missing = append(missing, pkg)
		}
	}
	return missing
}

// Install installs the given packages with apt-get. When update is true,
// the package index is refreshed first. Both commands stream their output
// to the terminal; apt progress is the only feedback on slow hosts.
//
// DEBIAN_FRONTEND=noninteractive suppresses debconf prompts, which would
// otherwise hang an unattended run.
func (i *Installer) Install(ctx context.Context, pkgs []string, update bool) error {
	if len(pkgs) == 0 {
		return nil
	}

	env := map[string]string{"DEBIAN_FRONTEND": "noninteractive"}

	if update {
		if _, err := i.run.Run(ctx, execx.Cmd{
			Name:   "apt-get",
			Args:   []string{"update"},
			Env:    env,
			Stream: true,
		}); err != nil {
			return model.WrapCLIError(model.ExitAptError, "apt-get update failed", err)
		}
	}

	args := append([]string{"install", "-y"}, pkgs...)
	if _, err := i.run.Run(ctx, execx.Cmd{
		Name:   "apt-get",
		Args:   args,
		Env:    env,
		Stream: true,
	}); err != nil {
		return model.WrapCLIError(model.ExitAptError,
			fmt.Sprintf("apt-get install failed for %s", strings.Join(pkgs, " ")), err)
	}
	return nil
}

// IsInstalledStatus reports whether a dpkg-query status string describes
// a fully installed package. States like "deinstall ok config-files"
// (removed but not purged) do not count.
func IsInstalledStatus(status string) bool {
	return strings.TrimSpace(status) == installedStatus
}
