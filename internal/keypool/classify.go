package keypool

import (
	"errors"
	"net"
	"strings"
)

// throttlePatterns are matched case-insensitively against error text when
// no structured status is available. They cover the wording the wrapped
// providers use for overload and quota exhaustion.
var throttlePatterns = []string{
	"rate limit",
	"too many requests",
	"quota",
	"overloaded",
	"capacity",
	"429",
	"internal server error",
	"bad gateway",
	"service unavailable",
	"gateway timeout",
	"connection reset",
	"connection refused",
}

type temporaryError struct{ err error }

func (e *temporaryError) Error() string { return e.err.Error() }
func (e *temporaryError) Unwrap() error { return e.err }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Temporary marks err as retryable regardless of what classification
// would otherwise decide. Returns nil if err is nil.
func Temporary(err error) error {
	if err == nil {
		return nil
	}
	return &temporaryError{err: err}
}

// Permanent marks err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsTemporary reports whether err should trigger quarantine and rotation.
// Explicit Temporary/Permanent wrappers win; otherwise an HTTPStatus()
// carried by the error decides (429 and 5xx are temporary), and finally
// the error text is matched against known throttle wording.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}

	var tmp *temporaryError
	if errors.As(err, &tmp) {
		return true
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}

	var statusErr interface{ HTTPStatus() int }
	if errors.As(err, &statusErr) {
		code := statusErr.HTTPStatus()
		return code == 429 || code >= 500
	}

	// Transport-level failures are server-side faults as far as
	// classification is concerned.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	text := strings.ToLower(err.Error())
	for _, pattern := range throttlePatterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}

	return false
}
