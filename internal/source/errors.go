package source

import (
	"errors"
	"fmt"
)

// FetchError wraps a network/timeout/parse failure from an adapter.
// Fetch errors are retryable.
type FetchError struct {
	Source string
	Target Target
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed for %s: %v", e.Source, e.Target.SecurityCode, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError marks a record with a malformed or missing natural key.
// Not retryable: the record is rejected and reported.
type ValidationError struct {
	Kind   Kind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s record: %s", e.Kind, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
