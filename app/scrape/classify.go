package scrape

import (
	"errors"
	"net/http"

	"github.com/lysyi3m/listing-comb/app/fetch"
)

// ClassifyFetchError maps a fetch failure to an outcome.
func ClassifyFetchError(err error) Outcome {
	if errors.Is(err, fetch.ErrTimeout) {
		return Timeout
	}
	if errors.Is(err, fetch.ErrEmptyResponse) {
		return TransientError
	}

	var httpErr *fetch.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.Permanent():
			return PermanentError
		case httpErr.StatusCode == http.StatusUnauthorized:
			// The proxy rejected our credential.
			return PermanentError
		case httpErr.StatusCode == http.StatusForbidden, httpErr.StatusCode == http.StatusTooManyRequests:
			return Blocked
		}
		return TransientError
	}

	return TransientError
}
