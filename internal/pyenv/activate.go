package pyenv

import (
	"fmt"
	"os"
	"strings"

	"github.com/voicelayer/pjforge/internal/model"
)

// Marker comments delimiting the block pjforge appends to bin/activate.
// The begin marker doubles as the idempotency guard: if it is present,
// the hook is considered patched and is never appended to again.
const (
	BeginMarker = "# >>> pjforge lib path >>>"
	EndMarker   = "# <<< pjforge lib path <<<"
)

// LibPathBlock renders the activation hook addition: an LD_LIBRARY_PATH
// export that prepends the local install prefix's library directory,
// preserving any pre-existing value.
func LibPathBlock(libDir string) string {
	return fmt.Sprintf("\n%s\nexport LD_LIBRARY_PATH=%q\n%s\n",
		BeginMarker,
		libDir+"${LD_LIBRARY_PATH:+:$LD_LIBRARY_PATH}",
		EndMarker)
}

// HasLibPathBlock reports whether the environment's activation script
// already carries the pjforge block.
func HasLibPathBlock(venvDir string) (bool, error) {
	data, err := os.ReadFile(ActivatePath(venvDir))
	if err != nil {
		return false, fmt.Errorf("failed to read activation script: %w", err)
	}
	return strings.Contains(string(data), BeginMarker), nil
}

// PatchActivate appends the LD_LIBRARY_PATH block to the environment's
// activation script. Returns patched=false without modifying anything
// when the marker is already present.
func PatchActivate(venvDir, libDir string) (patched bool, err error) {
	present, err := HasLibPathBlock(venvDir)
	if err != nil {
		return false, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("cannot patch activation hook in %s", venvDir), err)
	}
	if present {
		return false, nil
	}

	f, err := os.OpenFile(ActivatePath(venvDir), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return false, model.WrapCLIError(model.ExitGeneralError, "failed to open activation script", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(LibPathBlock(libDir)); err != nil {
		return false, model.WrapCLIError(model.ExitGeneralError, "failed to append to activation script", err)
	}
	return true, nil
}
