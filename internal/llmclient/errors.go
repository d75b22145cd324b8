package llmclient

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrEmptyResponse is returned when the provider answers with no text.
var ErrEmptyResponse = errors.New("llmclient: empty response from provider")

// ProviderError is a non-success answer from a provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	// RetryAfter is the provider-advertised wait before the next attempt.
	RetryAfter time.Duration
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether repeating the request may succeed.
func (e *ProviderError) Retryable() bool {
	switch {
	case e.StatusCode == 408, e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == 0:
		return true
	}
	return false
}

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
