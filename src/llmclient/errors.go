package llmclient

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common error variables
var (
	// ErrNoBaseURL indicates the endpoint base URL is missing
	ErrNoBaseURL = errors.New("base URL is required")

	// ErrEmptyResponse indicates the API returned a completion with no choices
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrStreamClosed indicates the stream has been closed
	ErrStreamClosed = errors.New("stream closed")

	// ErrRateLimited indicates rate limiting
	ErrRateLimited = errors.New("rate limited")

	// ErrConnection indicates the endpoint could not be reached
	ErrConnection = errors.New("connection to language model failed")

	// ErrTruncatedStream indicates the stream ended before its terminal marker
	ErrTruncatedStream = errors.New("stream ended before terminal marker")
)

// APIError represents an error response from the completions API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Code       string
	Param      string
	RequestID  string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// Is lets rate-limit responses match ErrRateLimited.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.IsRateLimit()
}

// IsRetryable returns true if the error is retryable.
func (e *APIError) IsRetryable() bool {
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	switch e.Code {
	case "timeout", "connection_error", "server_error":
		return true
	}
	return false
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "rate_limit_exceeded"
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.Code == "invalid_api_key"
}

// ConnectionError wraps a transport-level failure reaching the endpoint.
type ConnectionError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is lets connection failures match ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// UserMessage renders an error from the client into a line suitable for a
// user-visible error event, without transport internals.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsRateLimit() {
			return fmt.Sprintf("Rate limit error: %s", apiErr.Message)
		}
		return fmt.Sprintf("Language model returned an API error: %s", apiErr.Message)
	}
	if errors.Is(err, ErrConnection) {
		return fmt.Sprintf("Failed to connect to language model: %v", err)
	}
	return fmt.Sprintf("Unhandled error: %v", err)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	// Dial and reset failures are worth another attempt.
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// GetRetryDelay returns the appropriate retry delay for an error.
func GetRetryDelay(err error, attempt int, base time.Duration) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsRateLimit() && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}

	// Linear backoff scaled by attempt number, capped at a minute.
	delay := base * time.Duration(attempt)
	if delay > time.Minute {
		delay = time.Minute
	}
	return delay
}
