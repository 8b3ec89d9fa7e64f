// Package cli: doctor.go implements the "pjforge doctor" command.
//
// Doctor probes the host for every external tool the pipeline invokes
// and reports the result as a table (or JSON). It exists so a user can
// fix the host before a long build run, and so --skip-apt users can see
// what the apt stage would have provided.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/voicelayer/pjforge/internal/build"
)

// NewDoctorCommand creates the "doctor" cobra command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the host has the tools the pipeline needs",
		Long: `Probe PATH for every external tool the provisioning pipeline invokes
(apt-get, git, make, compilers, swig, python3) and report the result.

Exits non-zero if any required tool is missing.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

// runDoctor probes the tool manifest and renders the result.
func runDoctor() error {
	statuses := build.ProbeTools(build.RequiredTools())

	if IsJSONOutput() {
		printDoctorJSON(statuses)
	} else {
		printDoctorTable(statuses)
	}

	// The table is printed even on failure; the error then carries the
	// exit code and a one-line summary of what is missing.
	return build.CheckTools(build.RequiredTools())
}

// doctorJSON is the JSON output structure for a single tool probe.
type doctorJSON struct {
	Tool     string `json:"tool"`
	Found    bool   `json:"found"`
	Optional bool   `json:"optional"`
	Path     string `json:"path,omitempty"`
	Purpose  string `json:"purpose"`
}

func printDoctorJSON(statuses []build.ToolStatus) {
	out := make([]doctorJSON, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, doctorJSON{
			Tool:     st.Requirement.Name,
			Found:    st.Found,
			Optional: st.Requirement.Optional,
			Path:     st.Path,
			Purpose:  st.Requirement.Purpose,
		})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

func printDoctorTable(statuses []build.ToolStatus) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Tool", "Status", "Path", "Purpose"})

	for _, st := range statuses {
		table.Append([]string{
			FormatToolName(st.Requirement),
			FormatToolStatus(st),
			st.Path,
			st.Requirement.Purpose,
		})
	}
	table.Render()
}

// FormatToolName renders a requirement name including its alternatives,
// e.g. "gcc (or cc)".
func FormatToolName(req build.ToolRequirement) string {
	if len(req.Alternatives) == 0 {
		return req.Name
	}
	return fmt.Sprintf("%s (or %s)", req.Name, strings.Join(req.Alternatives, ", "))
}

// FormatToolStatus renders a probe outcome for the table: "ok",
// "MISSING", or "missing (optional)".
func FormatToolStatus(st build.ToolStatus) string {
	if st.Found {
		return "ok"
	}
	if st.Requirement.Optional {
		return "missing (optional)"
	}
	return "MISSING"
}
