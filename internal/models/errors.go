package models

import "errors"

// Failure taxonomy shared by the core packages. Components surface these
// untranslated; only the outermost layer decides whether to retry,
// re-prompt, or report.
var (
	// ErrDataUnavailable means the dataset could not be fetched or
	// parsed. Fatal to startup; the caller must retry the load.
	ErrDataUnavailable = errors.New("dataset unavailable")

	// ErrPermissionDenied means access to a device sensor was refused.
	// Recoverable by re-prompting the user.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrPositionUnavailable is a transient position-sensor failure.
	ErrPositionUnavailable = errors.New("position unavailable")

	// ErrTimeout means a position fix did not arrive within its budget.
	ErrTimeout = errors.New("position request timed out")

	// ErrNoPosition means the engine was asked to select a target before
	// any fix was obtained. A sequencing error, surfaced rather than
	// silently retried.
	ErrNoPosition = errors.New("no position known yet")

	// ErrNoResultsInRadius is a valid empty query result; the user can
	// widen the radius or relax the category filter.
	ErrNoResultsInRadius = errors.New("no bars within radius")
)
