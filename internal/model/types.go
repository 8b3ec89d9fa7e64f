package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Stage identifies one step of the provisioning pipeline. Stages always
// execute in the fixed order returned by PipelineStages; there is no
// dependency graph because every stage depends on all previous ones.
type Stage string

const (
	// StageApt installs Debian build prerequisites via apt-get.
	StageApt Stage = "apt"

	// StageVenv creates the Python virtual environment and upgrades its
	// packaging tooling (pip, setuptools, wheel).
	StageVenv Stage = "venv"

	// StageSource clones the pinned release tag of pjproject.
	StageSource Stage = "source"

	// StageBuild configures and compiles pjproject, installing headers,
	// shared libraries, and binaries into the local prefix.
	StageBuild Stage = "build"

	// StageActivate appends the LD_LIBRARY_PATH export block to the virtual
	// environment's activation script.
	StageActivate Stage = "activate"

	// StageBinding builds the swig-generated pjsua2 Python module and
	// force-reinstalls it into the virtual environment.
	StageBinding Stage = "binding"

	// StageSmoke imports the binding and exercises the pjsua2 endpoint
	// lifecycle to prove the toolchain output actually works.
	StageSmoke Stage = "smoke"
)

// String returns the string representation of Stage.
// This satisfies fmt.Stringer for human-readable CLI output.
func (s Stage) String() string {
	return string(s)
}

// IsValid checks whether the Stage value is one of the pipeline stages.
func (s Stage) IsValid() bool {
	switch s {
	case StageApt, StageVenv, StageSource, StageBuild, StageActivate, StageBinding, StageSmoke:
		return true
	default:
		return false
	}
}

// PipelineStages returns all stages in execution order.
// The order is part of the contract: each stage assumes every earlier
// stage has completed (e.g. the binding build requires both the compiled
// library and the virtual environment).
func PipelineStages() []Stage {
	return []Stage{
		StageApt,
		StageVenv,
		StageSource,
		StageBuild,
		StageActivate,
		StageBinding,
		StageSmoke,
	}
}

// StageStatus represents the outcome of a single pipeline stage.
// A stage that has not run yet is "pending"; guards (directory exists,
// marker present, nothing to install) produce "skipped".
type StageStatus string

const (
	// StatusPending indicates the stage has not been attempted.
	StatusPending StageStatus = "pending"

	// StatusDone indicates the stage ran and completed successfully.
	StatusDone StageStatus = "done"

	// StatusSkipped indicates an idempotency guard decided there was
	// nothing to do (e.g. the virtual environment already exists).
	StatusSkipped StageStatus = "skipped"

	// StatusFailed indicates the stage's external tool exited non-zero.
	// The pipeline aborts at the first failed stage.
	StatusFailed StageStatus = "failed"
)

// String returns the string representation of StageStatus.
func (s StageStatus) String() string {
	return string(s)
}

// StageResult records the outcome of one pipeline stage for reporting.
type StageResult struct {
	// Stage identifies which pipeline step this result belongs to.
	Stage Stage `json:"stage"`

	// Status is the stage outcome (done, skipped, failed).
	Status StageStatus `json:"status"`

	// Detail is an optional human-readable note, e.g. "already cloned at
	// tag 2.14.1" for skipped stages or the failing tool for failed ones.
	Detail string `json:"detail,omitempty"`

	// Duration is how long the stage took. Zero for skipped stages.
	Duration time.Duration `json:"-"`
}

// ProvisionReport aggregates the results of a full pipeline run.
// It is the payload behind the "up" command's text and JSON output.
type ProvisionReport struct {
	// Version is the pinned pjproject release tag that was provisioned.
	Version string `json:"version"`

	// Root is the work root under which all artifacts live.
	Root string `json:"root"`

	// VenvDir is the virtual environment directory.
	VenvDir string `json:"venvDir"`

	// PrefixDir is the local install prefix holding headers, shared
	// libraries, and binaries.
	PrefixDir string `json:"prefixDir"`

	// SourceDir is the pjproject checkout directory.
	SourceDir string `json:"sourceDir"`

	// ReportedVersion is the version string the smoke test read back from
	// the compiled library. Empty when the smoke stage was skipped.
	ReportedVersion string `json:"reportedVersion,omitempty"`

	// Stages holds per-stage outcomes in execution order.
	Stages []StageResult `json:"stages"`
}

// Record appends a stage result to the report.
func (r *ProvisionReport) Record(stage Stage, status StageStatus, detail string, d time.Duration) {
	r.Stages = append(r.Stages, StageResult{
		Stage:    stage,
		Status:   status,
		Detail:   detail,
		Duration: d,
	})
}

// versionTagRegex matches pjproject release tags: two or three dot-separated
// numeric components (e.g. "2.14", "2.14.1").
var versionTagRegex = regexp.MustCompile(`^\d+\.\d+(\.\d+)?$`)

// ValidateVersionTag checks that the pinned version tag looks like a
// pjproject release tag. This catches typos before any network access;
// whether the tag actually exists upstream is only known at clone time.
func ValidateVersionTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("version tag must not be empty")
	}
	if !versionTagRegex.MatchString(tag) {
		return fmt.Errorf("invalid version tag %q: expected a numeric release tag like 2.14.1", tag)
	}
	return nil
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine which pipeline stage failed.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration file or environment
	// overrides could not be loaded or failed validation.
	ExitConfigError ExitCode = 2

	// ExitAptError indicates a package-manager operation failed.
	ExitAptError ExitCode = 3

	// ExitSourceError indicates a Git operation failed (unknown tag,
	// network failure, or a stale checkout at the wrong tag).
	ExitSourceError ExitCode = 4

	// ExitBuildError indicates configure/make/make install failed.
	ExitBuildError ExitCode = 5

	// ExitBindingError indicates the pjsua2 binding build or its pip
	// installation into the virtual environment failed.
	ExitBindingError ExitCode = 6

	// ExitSmokeError indicates the smoke test failed: the binding is not
	// importable, endpoint initialization raised, or the reported version
	// does not match the pinned tag.
	ExitSmokeError ExitCode = 7

	// ExitMissingTool indicates a required host tool (git, make, swig, ...)
	// is not present on PATH.
	ExitMissingTool ExitCode = 8
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ParseStage converts a string to a Stage.
// Returns an error if the string does not name a pipeline stage.
func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToLower(s))
	if !stage.IsValid() {
		return "", fmt.Errorf("invalid stage: %q (valid: apt, venv, source, build, activate, binding, smoke)", s)
	}
	return stage, nil
}
