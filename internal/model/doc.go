// Package model defines the domain types and value objects for the
// pjforge CLI.
//
// This package contains pure data structures with no external dependencies.
// The pipeline entities (Stage, StageResult, ProvisionReport) describe the
// fixed sequence of provisioning stages and their outcomes; all actual state
// lives on the filesystem (virtual environment, source checkout, install
// prefix) and is re-derived from it at runtime, so there are no state files.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
