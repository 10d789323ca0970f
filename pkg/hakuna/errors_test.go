package hakuna

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"30", 30 * time.Second},
		{" 5 ", 5 * time.Second},
		{"-4", 0},
		{"soon", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRetryAfter(tt.in, now))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		method string
		status int
		msg    string
		want   error
	}{
		{http.MethodGet, 401, "", ErrAuth},
		{http.MethodPost, 403, "", ErrAuth},
		{http.MethodGet, 429, "", ErrRateLimited},
		{http.MethodGet, 500, "", ErrTransient},
		{http.MethodPut, 503, "", ErrTransient},
		{http.MethodPost, 409, "", ErrConflict},
		{http.MethodPost, 422, "Timer is already running", ErrConflict},
		{http.MethodPost, 422, "task_id missing", ErrRequest},
		{http.MethodPut, 404, "", ErrNotRunning},
		{http.MethodDelete, 404, "", ErrNotRunning},
		{http.MethodGet, 404, "", ErrRequest},
		{http.MethodGet, 400, "", ErrRequest},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %d", tt.method, tt.status), func(t *testing.T) {
			kind, failed := classify(tt.method, tt.status, tt.msg)
			assert.True(t, failed)
			assert.Equal(t, tt.want, kind)
		})
	}

	_, failed := classify(http.MethodGet, 204, "")
	assert.False(t, failed)
}

func TestAPIErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("refresh: %w", &APIError{
		Kind:   ErrTransient,
		Method: http.MethodGet,
		Path:   "/timer",
		Err:    context.DeadlineExceeded,
	})

	assert.True(t, errors.Is(err, ErrTransient))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, ErrAuth))
	assert.Equal(t, "transient", Outcome(err))
	assert.Contains(t, err.Error(), "GET /timer")
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Kind: ErrRateLimited, StatusCode: 429, Method: "GET", Path: "/overview", Message: "slow down", RetryAfter: 30 * time.Second}
	assert.Equal(t, "hakuna: GET /overview: rate limited (HTTP 429): slow down (retry after 30s)", err.Error())
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", Outcome(nil))
	assert.Equal(t, "conflict", Outcome(&APIError{Kind: ErrConflict}))
	assert.Equal(t, "not_running", Outcome(&APIError{Kind: ErrNotRunning}))
	assert.Equal(t, "request", Outcome(&APIError{Kind: ErrRequest}))
	assert.Equal(t, "error", Outcome(errors.New("other")))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "", errorMessage(nil))
	assert.Equal(t, "nope", errorMessage([]byte(`{"message":"nope"}`)))
	assert.Equal(t, "bad", errorMessage([]byte(`{"error":"bad"}`)))
	assert.Equal(t, "Internal Server Error", errorMessage([]byte("Internal Server Error\n")))
}
