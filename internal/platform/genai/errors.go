package genai

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when the generator has no API credentials.
// Retrying cannot succeed without operator intervention, so callers surface
// this as a terminal configuration problem rather than offering a retry.
var ErrNotConfigured = errors.New("genai: generator is not configured (missing API key)")

// TransientError covers rate limiting, upstream outages, and timeouts.
// Callers may offer the user a retry.
type TransientError struct {
	Status  int // HTTP status, 0 for network-level failures
	Message string
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("genai: transient upstream error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("genai: transient error: %s", e.Message)
}

// ParseError means the generator responded but the body could not be decoded
// into the expected section structure. Treated like a transient failure for
// user-facing purposes.
type ParseError struct {
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("genai: failed to decode generator response: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	var te *TransientError
	var pe *ParseError
	return errors.As(err, &te) || errors.As(err, &pe)
}
