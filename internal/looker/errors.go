package looker

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError wraps Looker authentication failures with context
type AuthError struct {
	Op         string // Operation: "login", "query"
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("looker %s auth error (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("looker %s auth error: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("looker %s auth error: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// QueryError wraps Looker query execution failures with context
type QueryError struct {
	QueryID    string
	StatusCode int
	Message    string
	Err        error
}

func (e *QueryError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("looker query error (status %d): %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("looker query error: %v", e.Err)
	}
	return fmt.Sprintf("looker query error: %s", e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Sentinel errors
var (
	// ErrTransport marks network-level failures (DNS, TLS, timeouts)
	// as distinct from API responses.
	ErrTransport = errors.New("looker transport error")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("looker session closed")
)

// IsAuthError returns true if the error is an authentication failure
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// isAuthStatus reports whether an HTTP status indicates the access
// token was rejected rather than the query itself being bad.
func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized
}
