// Package errs holds the sentinel errors shared by all services.
// Callers discriminate with errors.Is; services wrap them with
// fmt.Errorf("...: %w", ...) so the category survives the wrapping.
package errs

import "errors"

var (
	// ErrNotFound signals that a client, process, job or report
	// does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput signals a rejected request: unknown or inactive
	// page codes, duplicate codes, or client data that cannot satisfy
	// the requested pages. Detected before any mutation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict signals a concurrent-modification problem that could
	// not be resolved by serialization.
	ErrConflict = errors.New("conflict")
)
