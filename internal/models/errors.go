package models

import "errors"

// Error kinds surfaced by the core. Operations wrap them with detail via
// fmt.Errorf("%w: ...") and callers match them with errors.Is.
var (
	// ErrBadInput marks malformed or empty caller input.
	ErrBadInput = errors.New("bad input")

	// ErrUnauthorized covers missing, invalid or mismatched credentials and
	// authorization policy violations alike.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict marks a uniqueness violation on create.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks a lookup or scoped mutation that matched no row.
	ErrNotFound = errors.New("not found")
)
