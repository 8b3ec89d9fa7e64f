// Package cli: up.go implements the "pjforge up" command.
//
// The up command is the primary user-facing operation: it runs the full
// provisioning pipeline in fixed order. Stages are fail-fast (the first
// non-zero tool exit aborts the run) and idempotent where the original
// pipeline was: re-running resumes from the partial state on disk rather
// than rolling anything back.
//
// Orchestration steps:
//  1. Install missing Debian build prerequisites
//  2. Verify the host toolchain
//  3. Create the virtual environment and upgrade its packaging tooling
//  4. Clone the pinned pjproject release tag
//  5. configure / make dep / make -j / make install into the local prefix
//  6. Patch the venv activation hook with the library search path
//  7. Build and force-reinstall the pjsua2 binding
//  8. Smoke-test the result and print the report
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voicelayer/pjforge/internal/apt"
	"github.com/voicelayer/pjforge/internal/build"
	"github.com/voicelayer/pjforge/internal/config"
	"github.com/voicelayer/pjforge/internal/execx"
	"github.com/voicelayer/pjforge/internal/model"
	"github.com/voicelayer/pjforge/internal/pyenv"
	"github.com/voicelayer/pjforge/internal/smoke"
	"github.com/voicelayer/pjforge/internal/source"
)

// upFlags holds the flag values for the up command.
type upFlags struct {
	skipApt   bool // --skip-apt: do not touch system packages
	skipSmoke bool // --skip-smoke: provision without verification
	jobs      int  // --jobs: override make parallelism
}

// NewUpCommand creates the "up" cobra command.
func NewUpCommand() *cobra.Command {
	flags := &upFlags{}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Run the full provisioning pipeline",
		Long: `Run the full provisioning pipeline: system packages, virtual environment,
pinned pjproject checkout, build, activation hook, pjsua2 binding, and
smoke test.

The pinned release tag defaults to ` + config.DefaultVersion + ` and can be overridden with
the PJSIP_VERSION environment variable or a config file.

Examples:
  pjforge up
  PJSIP_VERSION=2.15.1 pjforge up
  pjforge up --skip-apt --jobs 2`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runUp(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.skipApt, "skip-apt", false, "Skip the system package stage (requires prerequisites to be present)")
	cmd.Flags().BoolVar(&flags.skipSmoke, "skip-smoke", false, "Skip the final smoke test")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 0, "Make parallelism (default: number of CPUs)")

	return cmd
}

// runUp is the main orchestration function for the up command.
func runUp(ctx context.Context, flags *upFlags) error {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}
	if flags.jobs > 0 {
		cfg.Jobs = flags.jobs
	}

	slog.Info("provisioning pjsua2 runtime",
		"version", cfg.Version, "root", cfg.Root, "jobs", cfg.Jobs)

	run := execx.NewLocal()
	installer := apt.NewInstaller(run)
	py := pyenv.NewManager(run)
	src := source.NewManager(run)
	builder := build.NewBuilder(run)

	report := &model.ProvisionReport{
		Version:   cfg.Version,
		Root:      cfg.Root,
		VenvDir:   cfg.VenvDir,
		PrefixDir: cfg.PrefixDir,
		SourceDir: cfg.SourceDir,
	}

	// Stage 1: system packages.
	if flags.skipApt {
		report.Record(model.StageApt, model.StatusSkipped, "--skip-apt", 0)
	} else {
		slog.Info("stage: installing system packages", "stage", model.StageApt)
		start := time.Now()

		missing := installer.Missing(ctx, cfg.AptPackages)
		if len(missing) == 0 {
			report.Record(model.StageApt, model.StatusSkipped, "all packages already installed", 0)
		} else {
			slog.Debug("installing missing packages", "packages", strings.Join(missing, " "))
			if err := installer.Install(ctx, missing, cfg.AptUpdate); err != nil {
				report.Record(model.StageApt, model.StatusFailed, "", time.Since(start))
				return err
			}
			report.Record(model.StageApt, model.StatusDone,
				fmt.Sprintf("installed %d package(s)", len(missing)), time.Since(start))
		}
	}

	// Host toolchain pre-flight. Runs after the apt stage so packages
	// installed a moment ago can satisfy it.
	if err := build.CheckTools(build.RequiredTools()); err != nil {
		return err
	}

	// Stage 2: virtual environment.
	slog.Info("stage: preparing virtual environment", "stage", model.StageVenv, "dir", cfg.VenvDir)
	start := time.Now()
	venvSkipped, err := py.Ensure(ctx, cfg.Python, cfg.VenvDir)
	if err != nil {
		report.Record(model.StageVenv, model.StatusFailed, "", time.Since(start))
		return err
	}
	// Packaging tooling is upgraded on every run; pip upgrades are
	// themselves idempotent and a stale pip breaks the binding install.
	if err := py.UpgradeTooling(ctx, cfg.VenvDir); err != nil {
		report.Record(model.StageVenv, model.StatusFailed, "", time.Since(start))
		return err
	}
	if venvSkipped {
		report.Record(model.StageVenv, model.StatusDone, "environment already existed, tooling upgraded", time.Since(start))
	} else {
		report.Record(model.StageVenv, model.StatusDone, "", time.Since(start))
	}

	// Stage 3: source checkout.
	slog.Info("stage: fetching pjproject source", "stage", model.StageSource, "tag", cfg.Version)
	start = time.Now()
	srcSkipped, err := src.Ensure(ctx, cfg.RepoURL, cfg.Version, cfg.SourceDir)
	if err != nil {
		report.Record(model.StageSource, model.StatusFailed, "", time.Since(start))
		return err
	}
	if srcSkipped {
		report.Record(model.StageSource, model.StatusSkipped,
			fmt.Sprintf("already cloned at tag %s", cfg.Version), 0)
	} else {
		report.Record(model.StageSource, model.StatusDone, "", time.Since(start))
	}

	// Stage 4: build and install into the local prefix.
	slog.Info("stage: building pjproject", "stage", model.StageBuild, "prefix", cfg.PrefixDir, "jobs", cfg.Jobs)
	start = time.Now()
	if err := buildAndInstall(ctx, builder, cfg); err != nil {
		report.Record(model.StageBuild, model.StatusFailed, "", time.Since(start))
		return err
	}
	report.Record(model.StageBuild, model.StatusDone, "", time.Since(start))

	// Stage 5: activation hook.
	slog.Info("stage: patching activation hook", "stage", model.StageActivate, "libDir", cfg.LibDir())
	patched, err := pyenv.PatchActivate(cfg.VenvDir, cfg.LibDir())
	if err != nil {
		report.Record(model.StageActivate, model.StatusFailed, "", 0)
		return err
	}
	if patched {
		report.Record(model.StageActivate, model.StatusDone, "", 0)
	} else {
		report.Record(model.StageActivate, model.StatusSkipped, "hook already patched", 0)
	}

	// Stage 6: pjsua2 binding.
	slog.Info("stage: building pjsua2 binding", "stage", model.StageBinding)
	start = time.Now()
	if err := builder.BuildBinding(ctx, cfg.SourceDir, pyenv.BinDir(cfg.VenvDir)); err != nil {
		report.Record(model.StageBinding, model.StatusFailed, "", time.Since(start))
		return err
	}
	if err := py.InstallForce(ctx, cfg.VenvDir, build.SwigPythonDir(cfg.SourceDir)); err != nil {
		report.Record(model.StageBinding, model.StatusFailed, "", time.Since(start))
		return err
	}
	report.Record(model.StageBinding, model.StatusDone, "", time.Since(start))

	// Stage 7: smoke test.
	if flags.skipSmoke {
		report.Record(model.StageSmoke, model.StatusSkipped, "--skip-smoke", 0)
	} else {
		slog.Info("stage: running smoke test", "stage", model.StageSmoke)
		start = time.Now()
		version, err := smoke.Run(ctx, py, cfg.VenvDir, cfg.LibDir(), cfg.Version)
		if err != nil {
			report.Record(model.StageSmoke, model.StatusFailed, version, time.Since(start))
			return err
		}
		report.ReportedVersion = version
		report.Record(model.StageSmoke, model.StatusDone, version, time.Since(start))
	}

	printUpResult(report)
	return nil
}

// buildAndInstall runs the autotools sequence for the main library.
func buildAndInstall(ctx context.Context, builder *build.Builder, cfg *config.Config) error {
	if err := builder.Configure(ctx, cfg.SourceDir, cfg.PrefixDir, cfg.ConfigureFlags); err != nil {
		return err
	}
	if err := builder.Compile(ctx, cfg.SourceDir, cfg.Jobs); err != nil {
		return err
	}
	return builder.Install(ctx, cfg.SourceDir, cfg.PrefixDir)
}

// printUpResult outputs the provisioning report in text or JSON format.
func printUpResult(report *model.ProvisionReport) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Provisioned pjsua2 %s\n", report.Version)
	fmt.Printf("  Venv:    %s\n", report.VenvDir)
	fmt.Printf("  Prefix:  %s\n", report.PrefixDir)
	fmt.Printf("  Source:  %s\n", report.SourceDir)
	if report.ReportedVersion != "" {
		fmt.Printf("  Library: %s\n", report.ReportedVersion)
	}
	fmt.Println()
	fmt.Println("  Stages:")
	for _, line := range FormatStageLines(report.Stages) {
		fmt.Printf("    %s\n", line)
	}
	fmt.Println()
	fmt.Printf("Activate with: source %s\n", pyenv.ActivatePath(report.VenvDir))
}

// FormatStageLines renders stage results as aligned text lines.
// Split out from printUpResult so the formatting is unit-testable.
func FormatStageLines(stages []model.StageResult) []string {
	lines := make([]string, 0, len(stages))
	for _, s := range stages {
		line := fmt.Sprintf("%-10s %s", s.Stage, s.Status)
		if s.Status == model.StatusDone && s.Duration > 0 {
			line = fmt.Sprintf("%s (%s)", line, s.Duration.Round(time.Millisecond))
		}
		if s.Detail != "" {
			line = fmt.Sprintf("%s (%s)", line, s.Detail)
		}
		lines = append(lines, line)
	}
	return lines
}
