package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTimeout       = errors.New("fetch timed out")
	ErrEmptyResponse = errors.New("empty response body")
)

// HTTPError is a non-2xx answer from the proxy or the target page.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Permanent reports whether the page is gone and retrying cannot help.
func (e *HTTPError) Permanent() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// NetworkError wraps transport failures other than timeouts.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
