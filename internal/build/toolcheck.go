// Package build drives the pjproject compilation: host tool pre-flight,
// configure with the fixed feature set, make, and installation into the
// local prefix, plus the swig Python binding build.
//
// The package implements the classic autotools sequence (configure →
// make dep → make -j → make install) by shelling out through the execx
// runner. There is no build-system logic of its own; failure handling is
// fail-fast with the failing tool's output as the diagnostic.
package build

import (
	"fmt"
	"strings"

	"github.com/voicelayer/pjforge/internal/execx"
	"github.com/voicelayer/pjforge/internal/model"
)

// ToolRequirement describes one host tool the pipeline needs.
type ToolRequirement struct {
	// Name is the executable probed on PATH.
	Name string

	// Alternatives are other executables that satisfy the requirement
	// (e.g. cc for gcc). The requirement is met if any candidate resolves.
	Alternatives []string

	// Purpose is shown in doctor output and error messages.
	Purpose string

	// Optional tools produce a warning row in doctor output instead of
	// a failure.
	Optional bool
}

// Candidates returns the probe order: the primary name, then alternatives.
func (r ToolRequirement) Candidates() []string {
	return append([]string{r.Name}, r.Alternatives...)
}

// RequiredTools returns the host tools the full pipeline invokes.
// apt-get is listed even though the apt stage can be skipped, because a
// default `pjforge up` needs it before anything else.
func RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: "apt-get", Purpose: "install Debian build prerequisites"},
		{Name: "git", Purpose: "clone the pinned pjproject release"},
		{Name: "make", Purpose: "drive the pjproject build"},
		{Name: "gcc", Alternatives: []string{"cc"}, Purpose: "compile C sources"},
		{Name: "g++", Alternatives: []string{"c++"}, Purpose: "compile the pjsua2 C++ binding"},
		{Name: "swig", Purpose: "generate the Python binding wrapper"},
		{Name: "python3", Purpose: "create the virtual environment"},
		{Name: "pkg-config", Optional: true, Purpose: "locate optional codec libraries"},
	}
}

// ToolStatus is one doctor row: a requirement plus its resolution.
type ToolStatus struct {
	Requirement ToolRequirement

	// Path is the resolved executable path, empty when not found.
	Path string

	// Found reports whether any candidate resolved.
	Found bool
}

// ProbeTools resolves each requirement against PATH.
func ProbeTools(reqs []ToolRequirement) []ToolStatus {
	statuses := make([]ToolStatus, 0, len(reqs))
	for _, req := range reqs {
		st := ToolStatus{Requirement: req}
		for _, cand := range req.Candidates() {
			if path, err := execx.LookPath(cand); err == nil {
				st.Path = path
				st.Found = true
				break
			}
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// CheckTools verifies that all non-optional requirements resolve.
// Returns a CLIError carrying ExitMissingTool naming every missing tool,
// so the user fixes the host in one pass instead of one failure at a time.
func CheckTools(reqs []ToolRequirement) error {
	var missing []string
	for _, st := range ProbeTools(reqs) {
		if !st.Found && !st.Requirement.Optional {
			missing = append(missing, st.Requirement.Name)
		}
	}
	if len(missing) > 0 {
		return model.NewCLIError(model.ExitMissingTool,
			fmt.Sprintf("missing required tools: %s (install them or run `pjforge up` without --skip-apt)", strings.Join(missing, ", ")))
	}
	return nil
}
