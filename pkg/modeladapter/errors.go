package modeladapter

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrBackendUnavailable wraps every transport or inference failure. Backends
// never retry.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Unavailable wraps err so that errors.Is(err, ErrBackendUnavailable) holds.
func Unavailable(backend string, err error) error {
	return fmt.Errorf("%s: %w: %w", backend, ErrBackendUnavailable, err)
}

// ConfigError reports a missing or invalid setting detected while
// constructing a backend.
type ConfigError struct {
	Backend string
	Field   string
	Reason  string
	Hint    string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: invalid configuration: %s %s", e.Backend, e.Field, e.Reason)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// RateLimitError is returned when the API responds with HTTP 429 (Too Many Requests).
// It carries an optional RetryAfter duration parsed from the Retry-After header.
// It is surfaced to the caller as a backend failure; nothing retries it.
type RateLimitError struct {
	RetryAfter time.Duration
	Body       string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %s", e.RetryAfter, e.Body)
	}
	return fmt.Sprintf("rate limited: %s", e.Body)
}

// Unwrap makes rate limiting count as ErrBackendUnavailable.
func (e *RateLimitError) Unwrap() error { return ErrBackendUnavailable }

// ParseRetryAfter parses the Retry-After header value as either seconds (integer)
// or an HTTP-date (RFC 7231). Returns zero if unparseable or if the date is in the past.
func ParseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(val); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
