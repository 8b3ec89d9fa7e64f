// Package execx provides the process-execution layer shared by all
// pipeline stages.
//
// Every stage of the pipeline is an invocation of an external tool
// (apt-get, git, configure/make, pip, python). Centralizing execution
// behind the Runner interface keeps the per-stage packages small and lets
// tests substitute a fake runner, so stage logic is testable on hosts
// that have no apt or swig installed.
//
// Two output modes are supported:
//   - captured (default): stdout is returned, stderr is folded into the
//     error message on failure. Used for short query commands
//     (dpkg-query, git rev-parse, python -c).
//   - streamed: stdout/stderr are connected to the user's terminal.
//     Used for long-running build commands (make, apt-get install) whose
//     progress output is the user interface.
package execx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Cmd describes a single external command invocation.
type Cmd struct {
	// Name is the program to run, resolved via PATH unless it contains
	// a path separator.
	Name string

	// Args are the program arguments, excluding the program name.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds additional environment variables appended to the current
	// process environment. Later entries override inherited ones.
	Env map[string]string

	// Stream connects the command's stdout/stderr to the terminal
	// instead of capturing them.
	Stream bool
}

// CommandLine returns a shell-like rendering of the command for error
// messages and logs. It is informational only and performs no quoting.
func (c Cmd) CommandLine() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Runner executes external commands. The production implementation is
// Local; tests provide fakes that record invocations and script results.
type Runner interface {
	// Run executes the command and returns its captured stdout.
	// For streamed commands the returned string is empty.
	// A non-zero exit produces an error that includes the command line
	// and, for captured commands, the trimmed stderr output.
	Run(ctx context.Context, c Cmd) (string, error)
}

// Local runs commands on the local host via os/exec.
//
// It is stateless; the struct exists as a receiver so callers hold a
// Runner value rather than calling package functions, which is what makes
// fake injection possible in tests.
type Local struct{}

// NewLocal creates a Local runner.
func NewLocal() *Local {
	return &Local{}
}

// Run implements Runner.
func (l *Local) Run(ctx context.Context, c Cmd) (string, error) {
	// #nosec G204 -- command names and arguments are constructed internally
	// from configuration, not from untrusted input.
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	if len(c.Env) > 0 {
		env := os.Environ()
		for k, v := range c.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	if c.Stream {
		// Build tools write progress to both streams; pass them through
		// untouched so the user sees compiler output in real time.
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("%s (dir=%s): %w", c.CommandLine(), displayDir(c.Dir), err)
		}
		return "", nil
	}

	// Capture stdout and stderr separately so we can include stderr
	// in error messages while returning stdout on success.
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := fmt.Sprintf("%s failed", c.CommandLine())
		if s := strings.TrimSpace(stderr.String()); s != "" {
			msg = fmt.Sprintf("%s: %s", msg, s)
		}
		return "", fmt.Errorf("%s: %w", msg, err)
	}

	return stdout.String(), nil
}

// displayDir renders a working directory for error messages.
func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

// LookPath reports the resolved path of a tool, or an error if it is not
// installed. Thin wrapper kept here so stage packages do not import
// os/exec just for tool probing.
func LookPath(tool string) (string, error) {
	return exec.LookPath(tool)
}
