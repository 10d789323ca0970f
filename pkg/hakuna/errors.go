package hakuna

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Error kinds. An *APIError unwraps to exactly one of these.
var (
	ErrAuth        = errors.New("authentication failed")
	ErrRateLimited = errors.New("rate limited")
	ErrTransient   = errors.New("transient failure")
	ErrConflict    = errors.New("timer already running")
	ErrNotRunning  = errors.New("timer not running")
	ErrRequest     = errors.New("request rejected")

	ErrMissingToken = errors.New("missing API token")
)

// APIError describes a failed call to the Hakuna API.
type APIError struct {
	// Kind is one of the package sentinels.
	Kind error

	// StatusCode is the HTTP status, 0 when no response was received.
	StatusCode int

	Method string
	Path   string

	// Message is the server-provided error message, if any.
	Message string

	// RetryAfter is the server's hint on 429 responses.
	RetryAfter time.Duration

	// Err is the underlying transport or decode error, if any.
	Err error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "hakuna: %s %s: %v", e.Method, e.Path, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.RetryAfter > 0 {
		fmt.Fprintf(&b, " (retry after %s)", e.RetryAfter)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause, so
// errors.Is(err, ErrTransient) and errors.Is(err, context.DeadlineExceeded)
// both hold for a timed-out request.
func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// RetryAfter returns the Retry-After hint carried by err, or 0.
func RetryAfter(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}

// Outcome returns a short, stable name for the kind of err. It is the
// vocabulary used in capture events and log attributes.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotRunning):
		return "not_running"
	case errors.Is(err, ErrRequest):
		return "request"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "error"
	}
}

// classify maps an HTTP status to an error kind. ok is false for 2xx.
func classify(method string, status int, message string) (kind error, ok bool) {
	switch {
	case status >= 200 && status < 300:
		return nil, false
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuth, true
	case status == http.StatusTooManyRequests:
		return ErrRateLimited, true
	case status >= 500:
		return ErrTransient, true
	case method == http.MethodPost && status == http.StatusConflict:
		return ErrConflict, true
	case method == http.MethodPost && status == http.StatusUnprocessableEntity &&
		strings.Contains(strings.ToLower(message), "running"):
		return ErrConflict, true
	case (method == http.MethodPut || method == http.MethodDelete) && status == http.StatusNotFound:
		return ErrNotRunning, true
	default:
		return ErrRequest, true
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP date. Unparseable or
// past values yield 0.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}
