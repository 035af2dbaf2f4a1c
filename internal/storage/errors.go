package storage

import "errors"

// Sentinel errors shared by every store backend. Callers match them with
// errors.Is; backends wrap them with the offending key.
var (
	// ErrNotFound means no run, trade set or mint record matched the lookup.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey means a run ID or (run, signature, mint) trade key was
	// already archived. Runs are immutable once written.
	ErrDuplicateKey = errors.New("duplicate key: archived runs are immutable")

	// ErrInvalidInput means a record failed validation before it was written.
	ErrInvalidInput = errors.New("invalid input")
)
