// Package smoke verifies a provisioned environment end to end.
//
// The check runs the virtual environment's interpreter with the pjproject
// library directory exposed to the dynamic linker and exercises the
// pjsua2 endpoint lifecycle: import, libCreate, libInit, read the library
// version, libDestroy. Any raised exception fails the stage; a version
// string that does not contain the pinned tag fails it too, catching the
// "stale prefix from a previous pin" case.
package smoke

import (
	"context"
	"fmt"
	"strings"

	"github.com/voicelayer/pjforge/internal/model"
	"github.com/voicelayer/pjforge/internal/pyenv"
)

// script is the verification program run by the venv interpreter.
// pjsua2 logging is silenced so the captured stdout is exactly the
// version string.
const script = `import pjsua2 as pj
ep = pj.Endpoint()
ep.libCreate()
cfg = pj.EpConfig()
cfg.logConfig.level = 0
cfg.logConfig.consoleLevel = 0
ep.libInit(cfg)
print(ep.libVersion().full)
ep.libDestroy()
`

// Run executes the smoke test and returns the library version reported
// by the binding.
func Run(ctx context.Context, py *pyenv.Manager, venvDir, libDir, pinnedTag string) (string, error) {
	out, err := py.RunPython(ctx, venvDir, libDir, "-c", script)
	if err != nil {
		return "", model.WrapCLIError(model.ExitSmokeError, "pjsua2 smoke test failed", err)
	}

	version := ParseVersion(out)
	if version == "" {
		return "", model.NewCLIError(model.ExitSmokeError, "smoke test printed no version string")
	}
	if !MatchesPin(version, pinnedTag) {
		return version, model.NewCLIError(model.ExitSmokeError,
			fmt.Sprintf("reported library version %q does not match pinned tag %s", version, pinnedTag))
	}
	return version, nil
}

// ParseVersion extracts the version string from the interpreter output.
// The script prints exactly one line, but pip or the loader may emit
// warnings first, so the last non-empty line wins.
func ParseVersion(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// MatchesPin reports whether the version reported by the library contains
// the pinned tag's numeric content. pjsua2 reports forms like "2.14.1"
// or "2.14.1-release"; both must satisfy a pin of "2.14.1".
func MatchesPin(version, pinnedTag string) bool {
	if version == "" || pinnedTag == "" {
		return false
	}
	return strings.Contains(version, pinnedTag)
}
