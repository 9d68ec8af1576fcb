package keypool

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials is returned when a pool was constructed with zero
	// credentials. There is nothing to rotate to, so callers must not retry.
	ErrNoCredentials = errors.New("keypool: no credentials configured")

	// ErrAllQuarantined is returned instead of the least-recently-failed
	// fallback when a pool is configured with HardFail and every credential
	// is quarantined inside its cooldown window.
	ErrAllQuarantined = errors.New("keypool: all credentials quarantined")

	// ErrRetryExhausted marks a RetryError; match with errors.Is.
	ErrRetryExhausted = errors.New("keypool: retry attempts exhausted")
)

// RetryError is returned by Execute when every attempt failed with a
// temporary error. It wraps the last underlying failure for diagnostics.
type RetryError struct {
	Service  string
	Attempts int
	Last     error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("keypool: %s: exhausted %d attempts: %v", e.Service, e.Attempts, e.Last)
}

func (e *RetryError) Unwrap() []error {
	return []error{ErrRetryExhausted, e.Last}
}
