package echoclient

import (
	"errors"
	"fmt"
)

// ErrConnectivity wraps every transport-level failure.
var ErrConnectivity = errors.New("echoclient: backend unreachable")

// StatusError is a non-2xx reply from the echo API.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! Status: %d", e.StatusCode)
}

// IsStatus returns true if err (or any wrapped error) is a StatusError with the given status code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == code
	}
	return false
}
