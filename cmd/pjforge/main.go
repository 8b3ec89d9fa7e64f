// Package main is the entry point for the pjforge CLI.
//
// This binary provisions a host for running pjsua2-based voice applications:
// it installs Debian build prerequisites, creates an isolated Python virtual
// environment, builds a pinned release of pjproject from source into a local
// prefix, installs the swig-generated pjsua2 binding into the environment,
// and verifies the result with a smoke test. It delegates all functionality
// to the internal/cli package, which defines cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release process. During development, they default to "dev",
// "none", and "unknown" respectively.
package main

import (
	"github.com/voicelayer/pjforge/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
// They provide binary identification for the --version flag output.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package. This decouples
	// the build system (ldflags) from the CLI framework (cobra).
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
