package model

import "errors"

// Stable error kinds surfaced to API callers. Packages wrap these with
// fmt.Errorf("...: %w", ...) so handlers can classify with errors.Is.
var (
	// ErrValidation marks a malformed or incomplete request. It is
	// raised before any state mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNoCapacity means no healthy substation currently has enough
	// available capacity for the requested power.
	ErrNoCapacity = errors.New("no substation available")

	// ErrStationRejected means the chosen substation's authoritative
	// admission check refused the request after selection.
	ErrStationRejected = errors.New("substation rejected request")

	// ErrCommunication marks a timeout or unreachable peer on an
	// inter-node call.
	ErrCommunication = errors.New("communication error with substation")

	// ErrNotFound marks an unknown request or session id.
	ErrNotFound = errors.New("not found")
)
