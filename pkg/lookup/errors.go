package lookup

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks requests rejected before any lookup ran.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPrivateAddr marks syntactically valid addresses that carry no
	// public location data (private, loopback, link-local, unspecified).
	ErrPrivateAddr = errors.New("non-public address")

	// ErrNotFound means the databases hold no data for the input.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports which input field failed and why.
// It unwraps to ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
