package subscription

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hakuna-bridge/hakuna-go/pkg/snapshot"
)

// Subscription errors.
var (
	ErrTooManySubscribers   = errors.New("maximum subscribers reached")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrClosed               = errors.New("subscription manager closed")
)

// DefaultMaxSubscribers bounds concurrent subscriptions.
const DefaultMaxSubscribers = 64

// Config holds subscription manager configuration.
type Config struct {
	// MaxSubscribers is the maximum number of subscriptions allowed.
	MaxSubscribers int

	// SkipUnchanged suppresses delivery of a snapshot whose Seq was
	// already delivered to the subscriber.
	SkipUnchanged bool
}

// DefaultConfig returns the default subscription configuration.
func DefaultConfig() Config {
	return Config{
		MaxSubscribers: DefaultMaxSubscribers,
		SkipUnchanged:  true,
	}
}

// Notification carries one snapshot to a subscriber.
type Notification struct {
	// SubscriptionID identifies the subscription.
	SubscriptionID string

	// Snapshot is the published value.
	Snapshot snapshot.Snapshot

	// IsPriming indicates this is the initial notification.
	IsPriming bool

	// Timestamp is when the notification was generated.
	Timestamp time.Time
}

// Subscription represents an active subscription.
type Subscription struct {
	mu sync.Mutex

	// ID is the unique subscription identifier (UUID).
	ID string

	// C receives notifications. It is closed on Unsubscribe or when the
	// manager closes.
	C <-chan Notification

	ch      chan Notification
	manager *Manager
	created time.Time

	active    bool
	delivered bool
	lastSeq   uint64

	sent     atomic.Uint64
	replaced atomic.Uint64
}

func newSubscription(id string, m *Manager, now time.Time) *Subscription {
	ch := make(chan Notification, 1)
	return &Subscription{
		ID:      id,
		C:       ch,
		ch:      ch,
		manager: m,
		created: now,
		active:  true,
	}
}

// Unsubscribe stops delivery and closes C. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s.manager != nil {
		_ = s.manager.Unsubscribe(s.ID)
		return
	}
	s.deactivate()
}

// IsActive reports whether the subscription still receives notifications.
func (s *Subscription) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Created returns when the subscription was established.
func (s *Subscription) Created() time.Time {
	return s.created
}

// Stats returns how many notifications were queued and how many of those
// were replaced by a newer one before the consumer took them.
func (s *Subscription) Stats() (sent, replaced uint64) {
	return s.sent.Load(), s.replaced.Load()
}

// deliver queues n, replacing an untaken older notification.
// Returns false if nothing was queued.
func (s *Subscription) deliver(n Notification, skipUnchanged bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}
	if s.delivered {
		if n.Snapshot.Seq < s.lastSeq {
			return false
		}
		if skipUnchanged && n.Snapshot.Seq == s.lastSeq && !n.IsPriming {
			return false
		}
	}

	// This is the only sender and holds mu, so after draining the slot
	// the send cannot block.
	select {
	case s.ch <- n:
	default:
		select {
		case <-s.ch:
			s.replaced.Add(1)
		default:
		}
		select {
		case s.ch <- n:
		default:
			return false
		}
	}

	s.delivered = true
	s.lastSeq = n.Snapshot.Seq
	s.sent.Add(1)
	return true
}

// deactivate closes the channel once.
func (s *Subscription) deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	close(s.ch)
}
