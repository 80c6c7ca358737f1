package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidResponse is returned when a successful response carries a body that
// cannot be decoded.
var ErrInvalidResponse = errors.New("Server returned invalid response")

// NetworkError wraps a transport failure; the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Message is the server's message when it sent one.
type APIError struct {
	StatusCode      int
	Message         string
	ConflictOrderID string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
