package eventclient

import "errors"

var (
	// ErrEndpointNotConfigured is returned by every query operation while no
	// event server is set.
	ErrEndpointNotConfigured = errors.New("event server endpoint not configured")

	// ErrInvalidProvider is returned by SetServer when the supplied endpoint
	// does not satisfy the Provider contract.
	ErrInvalidProvider = errors.New("invalid event server provider")
)

// ValidationError reports malformed caller input. The request is never
// dispatched.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// APIError reports a success=false response. Message carries the
// server-provided error text verbatim.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }
