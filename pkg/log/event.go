package log

import (
	"strings"
	"time"
)

// Event represents a capture event recorded at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// CycleID correlates events of one refresh cycle or one action (UUID).
	CycleID string `cbor:"2,keyasint,omitempty"`

	// Layer where the event was captured.
	Layer Layer `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// RequestID is the X-Request-Id sent with an API exchange.
	RequestID string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Exchange    *ExchangeEvent    `cbor:"10,keyasint,omitempty"` // API layer
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"` // Timer/health state
	Snapshot    *SnapshotEvent    `cbor:"12,keyasint,omitempty"` // Coordinator publication
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerAPI is the HTTP client talking to the Hakuna service.
	LayerAPI Layer = 0
	// LayerTimer is the timer state machine.
	LayerTimer Layer = 1
	// LayerCoordinator is the polling coordinator.
	LayerCoordinator Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerAPI:
		return "API"
	case LayerTimer:
		return "TIMER"
	case LayerCoordinator:
		return "COORDINATOR"
	default:
		return "UNKNOWN"
	}
}

// ParseLayer parses a layer name case-insensitively.
func ParseLayer(s string) (Layer, bool) {
	switch strings.ToLower(s) {
	case "api":
		return LayerAPI, true
	case "timer":
		return LayerTimer, true
	case "coordinator", "coord":
		return LayerCoordinator, true
	default:
		return 0, false
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryExchange indicates an HTTP request/response pair.
	CategoryExchange Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategorySnapshot indicates a published snapshot.
	CategorySnapshot Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryExchange:
		return "EXCHANGE"
	case CategoryState:
		return "STATE"
	case CategorySnapshot:
		return "SNAPSHOT"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(s) {
	case "exchange":
		return CategoryExchange, true
	case "state":
		return CategoryState, true
	case "snapshot":
		return CategorySnapshot, true
	case "error":
		return CategoryError, true
	default:
		return 0, false
	}
}

// ExchangeEvent captures one HTTP round trip with the Hakuna API.
type ExchangeEvent struct {
	// Method is the HTTP method.
	Method string `cbor:"1,keyasint"`

	// Path is the request path relative to the base URL.
	Path string `cbor:"2,keyasint"`

	// StatusCode is the HTTP status (0 when no response was received).
	StatusCode int `cbor:"3,keyasint,omitempty"`

	// Latency is the time from sending the request to reading the body.
	Latency time.Duration `cbor:"4,keyasint"`

	// Outcome is the classification of the exchange ("ok", "auth",
	// "rate_limited", "transient", "conflict", "not_running", "request").
	Outcome string `cbor:"5,keyasint"`

	// RetryAfter is the server's Retry-After hint on 429 responses.
	RetryAfter time.Duration `cbor:"6,keyasint,omitempty"`
}

// StateChangeEvent captures timer and health transitions.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityTimer indicates a timer state change.
	StateEntityTimer StateEntity = 0
	// StateEntityHealth indicates a coordinator health change.
	StateEntityHealth StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityTimer:
		return "TIMER"
	case StateEntityHealth:
		return "HEALTH"
	default:
		return "UNKNOWN"
	}
}

// SnapshotEvent captures the content of a published snapshot.
type SnapshotEvent struct {
	Seq               uint64    `cbor:"1,keyasint"`
	Running           bool      `cbor:"2,keyasint"`
	StartedAt         time.Time `cbor:"3,keyasint,omitempty"`
	Project           string    `cbor:"4,keyasint,omitempty"`
	Task              string    `cbor:"5,keyasint,omitempty"`
	OvertimeMinutes   int       `cbor:"6,keyasint"`
	VacationRemaining float64   `cbor:"7,keyasint"`
	VacationTaken     float64   `cbor:"8,keyasint"`
	Stale             bool      `cbor:"9,keyasint,omitempty"`
	AuthFailed        bool      `cbor:"10,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Kind is the error classification (same vocabulary as ExchangeEvent.Outcome).
	Kind string `cbor:"2,keyasint,omitempty"`

	// Message is the error text.
	Message string `cbor:"3,keyasint"`

	// Context describes the operation that failed.
	Context string `cbor:"4,keyasint,omitempty"`
}
