// Package cli: status.go implements the "pjforge status" command.
//
// Status inspects the filesystem state the pipeline produces and reports
// how far provisioning has progressed. All state is re-derived from the
// artifacts themselves (venv directory, checkout tag, prefix contents,
// activation hook marker); there is no state file to get out of sync.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/voicelayer/pjforge/internal/build"
	"github.com/voicelayer/pjforge/internal/config"
	"github.com/voicelayer/pjforge/internal/execx"
	"github.com/voicelayer/pjforge/internal/pyenv"
	"github.com/voicelayer/pjforge/internal/source"
)

// ComponentStatus is one row of status output.
type ComponentStatus struct {
	// Component names the artifact being inspected.
	Component string `json:"component"`

	// Ready reports whether the artifact is in its provisioned state.
	Ready bool `json:"ready"`

	// Detail carries the inspected value (path, tag, library count) or
	// the reason the artifact is not ready.
	Detail string `json:"detail,omitempty"`
}

// NewStatusCommand creates the "status" cobra command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show provisioning state",
		Long: `Inspect the virtual environment, source checkout, install prefix,
activation hook, and installed binding, and report what is provisioned.

Examples:
  pjforge status
  pjforge status --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context())
		},
	}
}

// runStatus gathers component states and renders them.
func runStatus(ctx context.Context) error {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return err
	}

	components := gatherStatus(ctx, cfg)

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(components, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Component", "Ready", "Detail"})
	for _, c := range components {
		table.Append([]string{c.Component, FormatReady(c.Ready), c.Detail})
	}
	table.Render()
	return nil
}

// gatherStatus inspects each pipeline artifact in pipeline order.
func gatherStatus(ctx context.Context, cfg *config.Config) []ComponentStatus {
	run := execx.NewLocal()
	py := pyenv.NewManager(run)
	src := source.NewManager(run)

	var components []ComponentStatus

	// Virtual environment.
	venvReady := pyenv.Exists(cfg.VenvDir)
	components = append(components, ComponentStatus{
		Component: "venv",
		Ready:     venvReady,
		Detail:    cfg.VenvDir,
	})

	// Source checkout and its tag.
	srcStatus := ComponentStatus{Component: "source"}
	if tag, err := src.CheckedOutTag(ctx, cfg.SourceDir); err == nil {
		srcStatus.Ready = tag == cfg.Version
		srcStatus.Detail = fmt.Sprintf("tag %s (want %s)", tag, cfg.Version)
	} else {
		srcStatus.Detail = "not cloned"
	}
	components = append(components, srcStatus)

	// Install prefix.
	prefixStatus := ComponentStatus{Component: "prefix"}
	if libs, err := build.InstalledLibs(cfg.PrefixDir); err == nil {
		prefixStatus.Ready = true
		prefixStatus.Detail = fmt.Sprintf("%d shared librar(ies) in %s", len(libs), cfg.LibDir())
	} else {
		prefixStatus.Detail = "not built"
	}
	components = append(components, prefixStatus)

	// Activation hook marker.
	hookStatus := ComponentStatus{Component: "activate hook"}
	if venvReady {
		if patched, err := pyenv.HasLibPathBlock(cfg.VenvDir); err == nil && patched {
			hookStatus.Ready = true
			hookStatus.Detail = "library path exported"
		} else {
			hookStatus.Detail = "not patched"
		}
	} else {
		hookStatus.Detail = "no environment"
	}
	components = append(components, hookStatus)

	// Installed binding: a real import is the only honest probe.
	bindingStatus := ComponentStatus{Component: "pjsua2 binding"}
	if venvReady {
		if _, err := py.RunPython(ctx, cfg.VenvDir, cfg.LibDir(), "-c", "import pjsua2"); err == nil {
			bindingStatus.Ready = true
			bindingStatus.Detail = "importable"
		} else {
			bindingStatus.Detail = "not importable"
		}
	} else {
		bindingStatus.Detail = "no environment"
	}
	components = append(components, bindingStatus)

	return components
}

// FormatReady renders a readiness flag for the status table.
func FormatReady(ready bool) string {
	if ready {
		return "yes"
	}
	return "no"
}
