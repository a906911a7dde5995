// Package errdefs defines the error categories shared across the analysis
// pipeline. Callers classify failures with errors.Is.
package errdefs

import "errors"

var (
	// ErrValidation marks malformed parameters, unsupported workload
	// kinds, or unknown backend names. Never follows an external call.
	ErrValidation = errors.New("validation error")

	// ErrExtraction marks a failed or timed-out log source call.
	ErrExtraction = errors.New("log extraction failed")

	// ErrBackendUnavailable marks an analysis engine that could not be
	// reached or found.
	ErrBackendUnavailable = errors.New("analysis backend unavailable")

	// ErrBackendTimeout marks an analysis call that exceeded its
	// mode-specific budget.
	ErrBackendTimeout = errors.New("analysis backend timed out")

	// ErrBackendResponse marks a non-success signal from the analysis
	// engine.
	ErrBackendResponse = errors.New("analysis backend returned an error")

	// ErrStorage marks a failed history append, read, or delete.
	ErrStorage = errors.New("history storage failed")

	// ErrNotFound marks a missing history entry.
	ErrNotFound = errors.New("not found")
)
