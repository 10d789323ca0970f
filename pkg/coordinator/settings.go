package coordinator

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
	"github.com/hakuna-bridge/hakuna-go/pkg/log"
)

// Interval bounds.
const (
	DefaultInterval = 5 * time.Minute
	MinInterval     = 60 * time.Second
)

// Request budget defaults. The remote allows 100 requests per minute per
// token.
const (
	DefaultRequestsPerMinute = 100
	DefaultBurst             = 20

	// refreshCost is the number of requests one refresh issues.
	refreshCost = 2
)

// Coordinator errors.
var (
	ErrClosed          = errors.New("coordinator closed")
	ErrInvalidInterval = fmt.Errorf("interval must be at least %s", MinInterval)
	ErrMissingToken    = hakuna.ErrMissingToken
)

// Settings is the host-facing configuration surface.
type Settings struct {
	// Token is the personal API token. Required.
	Token string

	// Interval between scheduled refreshes. Zero selects DefaultInterval;
	// anything below MinInterval is rejected.
	Interval time.Duration
}

// withDefaults validates s and fills the default interval.
func (s Settings) withDefaults() (Settings, error) {
	s.Token = strings.TrimSpace(s.Token)
	if s.Token == "" {
		return s, ErrMissingToken
	}
	if s.Interval == 0 {
		s.Interval = DefaultInterval
	}
	if s.Interval < MinInterval {
		return s, fmt.Errorf("%w: got %s", ErrInvalidInterval, s.Interval)
	}
	return s, nil
}

// Validate reports whether s would be accepted by New or Reconfigure.
func (s Settings) Validate() error {
	_, err := s.withDefaults()
	return err
}

// ErrorSink receives failure notifications for the host.
type ErrorSink interface {
	// SoftFailure is called for every failed refresh that leaves the
	// snapshot stale but keeps polling.
	SoftFailure(err error)

	// ReauthRequired is called once when the token is rejected. Polling
	// stays stopped until Reconfigure.
	ReauthRequired(err error)
}

// SinkFuncs adapts two functions to an ErrorSink. Nil fields are skipped.
type SinkFuncs struct {
	OnSoftFailure    func(error)
	OnReauthRequired func(error)
}

// SoftFailure calls OnSoftFailure.
func (f SinkFuncs) SoftFailure(err error) {
	if f.OnSoftFailure != nil {
		f.OnSoftFailure(err)
	}
}

// ReauthRequired calls OnReauthRequired.
func (f SinkFuncs) ReauthRequired(err error) {
	if f.OnReauthRequired != nil {
		f.OnReauthRequired(err)
	}
}

var _ ErrorSink = SinkFuncs{}

// Options are the host-provided collaborators and tuning knobs.
type Options struct {
	// Client is the template for API clients. Its Token is replaced by
	// Settings.Token; BaseURL, Location, HTTPClient and UserAgent are kept.
	Client hakuna.Config

	// Timeout bounds every API call. Default: hakuna.DefaultTimeout.
	Timeout time.Duration

	// Scheduler delivers periodic ticks. Default: TickerScheduler.
	Scheduler Scheduler

	// ErrorSink receives soft and fatal failure notifications. Nil drops them.
	ErrorSink ErrorSink

	// RequestsPerMinute and Burst size the local request budget.
	RequestsPerMinute int
	Burst             int

	// CatalogTTL bounds how long tasks and projects are cached.
	CatalogTTL time.Duration

	// MaxSubscribers bounds concurrent subscriptions.
	MaxSubscribers int

	// ProtocolLogger receives capture events from every layer. Nil disables.
	ProtocolLogger log.Logger

	// Logger for operational messages. Nil discards.
	Logger *slog.Logger

	// Clock returns the current time. Default: time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Client:            hakuna.DefaultConfig(),
		Timeout:           hakuna.DefaultTimeout,
		RequestsPerMinute: DefaultRequestsPerMinute,
		Burst:             DefaultBurst,
	}
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = hakuna.DefaultTimeout
	}
	if o.Scheduler == nil {
		o.Scheduler = TickerScheduler{}
	}
	if o.ErrorSink == nil {
		o.ErrorSink = SinkFuncs{}
	}
	if o.RequestsPerMinute <= 0 {
		o.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if o.Burst < refreshCost {
		o.Burst = DefaultBurst
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Client.Location == nil {
		o.Client.Location = time.Local
	}
	return o
}

// ThrottleError is returned when a refresh is refused locally, either
// because the request budget is spent or because a server Retry-After
// window is still open. It matches hakuna.ErrRateLimited.
type ThrottleError struct {
	Reason     string
	RetryAfter time.Duration
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("rate limited locally: %s (retry after %s)", e.Reason, e.RetryAfter.Round(time.Second))
}

// Unwrap returns hakuna.ErrRateLimited.
func (e *ThrottleError) Unwrap() error {
	return hakuna.ErrRateLimited
}

// RetryAfter returns the retry hint of a local or remote rate limit, or 0.
func RetryAfter(err error) time.Duration {
	var te *ThrottleError
	if errors.As(err, &te) {
		return te.RetryAfter
	}
	return hakuna.RetryAfter(err)
}
