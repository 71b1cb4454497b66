package api

import (
	"errors"
	"fmt"
	nethttp "net/http"
)

// FetchError is a network or HTTP failure from the dashboard API.
// StatusCode is 0 when no response was received.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Unauthorized reports whether the backend rejected the bearer token.
func (e *FetchError) Unauthorized() bool {
	return e.StatusCode == nethttp.StatusUnauthorized || e.StatusCode == nethttp.StatusForbidden
}

// IsFetchError reports whether err is or wraps a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// ErrOperationRejected is wrapped when the backend answers {success:false}.
var ErrOperationRejected = errors.New("operation rejected by server")
