package relay

import (
	"errors"
	"fmt"
)

// ErrInvalidEndpoint is matched by every *ValidationError.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// TransportError reports a backend request that never produced a response:
// connection refused, DNS failure, timeout or cancellation.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("API request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseReadError reports a backend that answered but whose body could not
// be read to the end.
type ResponseReadError struct {
	Err error
}

func (e *ResponseReadError) Error() string {
	return fmt.Sprintf("Failed to read response: %v", e.Err)
}

func (e *ResponseReadError) Unwrap() error { return e.Err }

// ValidationError rejects an endpoint before any request is sent.
type ValidationError struct {
	Endpoint string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid endpoint %q: %s", e.Endpoint, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidEndpoint }

// IsTransient reports whether err came from the backend round trip rather
// than from local validation. Callers decide whether to retry.
func IsTransient(err error) bool {
	var transport *TransportError
	var read *ResponseReadError
	return errors.As(err, &transport) || errors.As(err, &read)
}
