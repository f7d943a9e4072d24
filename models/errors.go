package models

import "errors"

// Error kinds surfaced by the messaging core. Controllers translate these
// into the wire contract: a single error string for not-found and
// permission failures, a 500 for integrity failures.
var (
	// ErrNotFound is returned when a token or id does not resolve to a
	// live row.
	ErrNotFound = errors.New("record not found")

	// ErrPermissionDenied is returned when the acting user does not own
	// the resource being mutated.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDataIntegrity marks conditions that indicate incompatible data,
	// not user error: a current status missing from the vocabulary, or a
	// token resolving to more than one row. Never retried, never swallowed.
	ErrDataIntegrity = errors.New("data integrity violation")
)
