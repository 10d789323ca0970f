package hakuna

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hakuna-bridge/hakuna-go/pkg/log"
	"github.com/hakuna-bridge/hakuna-go/pkg/version"
)

// Defaults.
const (
	DefaultBaseURL = "https://app.hakuna.ch/api/v1"
	DefaultTimeout = 10 * time.Second

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 1 << 20
)

// Config configures a Client.
type Config struct {
	// BaseURL of the API, without trailing slash.
	// Default: https://app.hakuna.ch/api/v1
	BaseURL string

	// Token is the personal API token. Required.
	Token string

	// Timeout bounds every call, including reading the body.
	// Default: 10 seconds.
	Timeout time.Duration

	// Location is used to interpret the timer's local date and start time.
	// Default: time.Local.
	Location *time.Location

	// HTTPClient performs the requests. Default: a new http.Client.
	HTTPClient *http.Client

	// UserAgent is sent with every request. Default: hakuna-bridge/<version>.
	UserAgent string

	// ProtocolLogger receives one capture event per exchange. Nil disables.
	ProtocolLogger log.Logger

	// Logger for operational messages. Nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration without a token.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		Timeout:  DefaultTimeout,
		Location: time.Local,
	}
}

// Client talks to the Hakuna API. It is safe for concurrent use.
// The token is fixed for the lifetime of the client.
type Client struct {
	config  Config
	http    *http.Client
	capture log.Logger
	logger  *slog.Logger

	// For testing
	timeNow   func() time.Time
	requestID func() string
}

// New creates a client for token with the default configuration.
func New(token string) (*Client, error) {
	cfg := DefaultConfig()
	cfg.Token = token
	return NewWithConfig(cfg)
}

// NewWithConfig creates a client. Zero fields take their defaults.
func NewWithConfig(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		config:    cfg,
		http:      hc,
		capture:   log.OrNoop(cfg.ProtocolLogger),
		logger:    logger,
		timeNow:   time.Now,
		requestID: uuid.NewString,
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Location returns the zone used to interpret timer start times.
func (c *Client) Location() *time.Location {
	return c.config.Location
}

// GetTimer returns the current timer. A stopped timer is reported as a
// zero Timer (Running() == false), whether the server answers 200 with a
// null date or 404.
func (c *Client) GetTimer(ctx context.Context) (Timer, error) {
	var t Timer
	err := c.do(ctx, http.MethodGet, "/timer", nil, &t)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return Timer{}, nil
		}
		return Timer{}, err
	}
	return t, nil
}

// StartTimer starts the remote timer. It fails with ErrConflict when a
// timer is already running.
func (c *Client) StartTimer(ctx context.Context, req StartTimerRequest) (Timer, error) {
	var t Timer
	if err := c.do(ctx, http.MethodPost, "/timer", req, &t); err != nil {
		return Timer{}, err
	}
	return t, nil
}

// StopTimer stops the running timer and returns the created time entry.
// It fails with ErrNotRunning when no timer is active.
func (c *Client) StopTimer(ctx context.Context) (TimeEntry, error) {
	var e TimeEntry
	if err := c.do(ctx, http.MethodPut, "/timer", nil, &e); err != nil {
		return TimeEntry{}, err
	}
	return e, nil
}

// CancelTimer discards the running timer without creating an entry.
// It fails with ErrNotRunning when no timer is active.
func (c *Client) CancelTimer(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/timer", nil, nil)
}

// GetOverview returns the overtime and vacation balances.
func (c *Client) GetOverview(ctx context.Context) (Overview, error) {
	var o Overview
	if err := c.do(ctx, http.MethodGet, "/overview", nil, &o); err != nil {
		return Overview{}, err
	}
	return o, nil
}

// Ping checks connectivity and the token.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil)
}

// Tasks lists all tasks, archived ones included.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Projects lists all projects, archived ones included.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Presence returns today's presence of the users the token can see.
func (c *Client) Presence(ctx context.Context) ([]Presence, error) {
	var presence []Presence
	if err := c.do(ctx, http.MethodGet, "/presence", nil, &presence); err != nil {
		return nil, err
	}
	return presence, nil
}

// Users returns the users the token's owner may manage. Accounts without
// supervisor rights get ErrAuth (403).
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// do performs one round trip. body is JSON-encoded when non-nil; out is
// decoded from 2xx responses with a non-empty body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reqID := c.requestID()
	start := c.timeNow()
	status := 0
	defer func() {
		c.record(ctx, reqID, method, path, status, c.timeNow().Sub(start), err)
	}()

	var reader io.Reader
	if body != nil {
		buf, mErr := json.Marshal(body)
		if mErr != nil {
			return &APIError{Kind: ErrRequest, Method: method, Path: path, Err: mErr}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return &APIError{Kind: ErrRequest, Method: method, Path: path, Err: err}
	}
	req.Header.Set("X-Auth-Token", c.config.Token)
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Accept-Version", version.APIVersion)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Kind: ErrTransient, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &APIError{Kind: ErrTransient, StatusCode: status, Method: method, Path: path, Err: err}
	}

	msg := errorMessage(data)
	if kind, failed := classify(method, status, msg); failed {
		apiErr := &APIError{Kind: kind, StatusCode: status, Method: method, Path: path, Message: msg}
		if kind == ErrRateLimited {
			apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), c.timeNow())
		}
		return apiErr
	}

	if out == nil || status == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Kind: ErrTransient, StatusCode: status, Method: method, Path: path,
			Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// record emits the capture event for one exchange.
func (c *Client) record(ctx context.Context, reqID, method, path string, status int, latency time.Duration, err error) {
	outcome := Outcome(err)
	ev := log.Event{
		Timestamp: c.timeNow(),
		CycleID:   log.CycleIDFrom(ctx),
		Layer:     log.LayerAPI,
		Category:  log.CategoryExchange,
		RequestID: reqID,
		Exchange: &log.ExchangeEvent{
			Method:     method,
			Path:       path,
			StatusCode: status,
			Latency:    latency,
			Outcome:    outcome,
			RetryAfter: RetryAfter(err),
		},
	}
	c.capture.Log(ev)

	if err != nil {
		c.logger.Debug("hakuna request failed",
			"method", method,
			"path", path,
			"status", status,
			"outcome", outcome,
			"request_id", reqID,
			"error", err)
	}
}

// errorMessage extracts a human readable message from an error body.
func errorMessage(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
		return ""
	}
	s := string(data)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
