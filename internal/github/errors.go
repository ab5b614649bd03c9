package github

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v73/github"
)

// Sentinel error kinds surfaced to the orchestrator. Auth and not-found are
// terminal for a run; rate limiting is retriable, but the retry policy
// belongs to the caller, not this package.
var (
	ErrUnauthorized = errors.New("github: authentication failed")
	ErrNotFound     = errors.New("github: resource not found")
	ErrRateLimited  = errors.New("github: rate limited")
	ErrTooLarge     = errors.New("github: blob too large for the contents API")
)

// Retriable reports whether a later attempt against the hosting API could
// plausibly succeed without operator intervention.
func Retriable(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrTooLarge) {
		return false
	}
	return true
}

// classifyError maps go-github errors onto the package's error kinds,
// keeping the raw error in the chain for logging.
func classifyError(err error, resp *github.Response) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	// the contents API rejects blobs over 1 MB with a 403 carrying a
	// too_large error code; that is a size condition, not an auth failure
	if isTooLargeResponse(err) {
		return fmt.Errorf("%w: %v", ErrTooLarge, err)
	}

	if resp != nil {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}

func isTooLargeResponse(err error) bool {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) {
		return false
	}
	for _, e := range ghErr.Errors {
		if e.Code == "too_large" {
			return true
		}
	}
	return false
}
