// Package cli: clean.go implements the "pjforge clean" command.
//
// The pipeline has no automatic rollback: a failed run leaves partial
// state on disk and a re-run resumes from it. Clean is the explicit
// reset, removing the generated directories so the next run starts from
// scratch. Selection flags allow removing a single artifact, which is
// the documented recovery path for a stale checkout (clean --source).
package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voicelayer/pjforge/internal/config"
	"github.com/voicelayer/pjforge/internal/model"
)

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	source bool // --source: remove the pjproject checkout
	prefix bool // --prefix: remove the install prefix
	venv   bool // --venv: remove the virtual environment
}

// NewCleanCommand creates the "clean" cobra command.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove generated provisioning state",
		Long: `Remove the directories the pipeline generates. With no flags all three
(source checkout, install prefix, virtual environment) are removed;
selection flags restrict removal to a subset.

Examples:
  pjforge clean
  pjforge clean --source`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(flags)
		},
	}

	cmd.Flags().BoolVar(&flags.source, "source", false, "Remove the pjproject source checkout")
	cmd.Flags().BoolVar(&flags.prefix, "prefix", false, "Remove the install prefix")
	cmd.Flags().BoolVar(&flags.venv, "venv", false, "Remove the virtual environment")

	return cmd
}

func runClean(flags *cleanFlags) error {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}

	// No selection flags means everything.
	all := !flags.source && !flags.prefix && !flags.venv

	targets := CleanTargets(cfg, flags.source || all, flags.prefix || all, flags.venv || all)
	for _, dir := range targets {
		slog.Info("removing", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return model.WrapCLIError(model.ExitGeneralError,
				fmt.Sprintf("failed to remove %s", dir), err)
		}
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string][]string{"removed": targets}, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Removed %d director(ies)\n", len(targets))
	}
	return nil
}

// CleanTargets returns the directories selected for removal, in a fixed
// order. Split out for unit testing.
func CleanTargets(cfg *config.Config, source, prefix, venv bool) []string {
	var targets []string
	if source {
		targets = append(targets, cfg.SourceDir)
	}
	if prefix {
		targets = append(targets, cfg.PrefixDir)
	}
	if venv {
		targets = append(targets, cfg.VenvDir)
	}
	return targets
}
