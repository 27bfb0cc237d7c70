package hatena

import (
	"errors"
	"fmt"
)

// HTTPError is returned when an upstream API answers with a non-2xx status.
type HTTPError struct {
	API        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API error: %d %s", e.API, e.StatusCode, e.Status)
}

// IsHTTPError reports whether err wraps an *HTTPError and returns it.
func IsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}
