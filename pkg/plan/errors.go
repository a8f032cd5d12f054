package plan

import "errors"

var (
	// ErrNotFound is returned when a project, stage, task or row id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrDerivedRow is returned for updates aimed at a row whose values are
	// computed from its children (stage rows).
	ErrDerivedRow = errors.New("row values are derived from its tasks")
)
