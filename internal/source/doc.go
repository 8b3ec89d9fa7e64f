// Package source manages the pjproject source checkout.
//
// This package wraps the Git CLI (via the execx runner) to shallow-clone
// the pinned release tag and to verify an existing checkout. We shell out
// to `git` rather than using a Go Git library because the pipeline's only
// requirements are clone-by-tag and tag inspection, and the system git is
// already a hard prerequisite of the build itself.
//
// Idempotency contract: an existing checkout directory is never re-cloned.
// If it is checked out at the pinned tag the stage is skipped; if it is at
// any other ref the stage fails with instructions to run `pjforge clean
// --source`, rather than silently building the wrong version.
package source
