package interpret

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRateLimited is matched by errors.Is when the provider rejected the
	// call for quota or rate reasons.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoFrames is returned when none of the frames carries image data.
	ErrNoFrames = errors.New("no valid frames to send")
	// ErrEmptyResponse is returned when the model answered with nothing.
	ErrEmptyResponse = errors.New("empty response from model")
)

// APIError is a non-success answer from an interpretation provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error: %d - %s", e.Provider, e.StatusCode, e.Message)
}

// RateLimited reports whether the error signals quota exhaustion.
func (e *APIError) RateLimited() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return strings.Contains(e.Message, "RESOURCE_EXHAUSTED") || strings.Contains(strings.ToLower(e.Message), "quota")
}

func (e *APIError) Unwrap() error {
	if e.RateLimited() {
		return ErrRateLimited
	}
	return nil
}

// IsRateLimited reports whether err, or anything it wraps, is a rate limit.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
