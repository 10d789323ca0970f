package subscription

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hakuna-bridge/hakuna-go/pkg/snapshot"
)

// Manager fans published snapshots out to subscribers.
type Manager struct {
	mu sync.RWMutex

	config Config

	subscriptions map[string]*Subscription
	current       snapshot.Snapshot
	closed        bool

	onNotification func(Notification)

	// For testing
	timeNow func() time.Time
	newID   func() string
}

// NewManager creates a new subscription manager with default configuration.
func NewManager() *Manager {
	return NewManagerWithConfig(DefaultConfig())
}

// NewManagerWithConfig creates a new subscription manager with custom configuration.
func NewManagerWithConfig(config Config) *Manager {
	if config.MaxSubscribers <= 0 {
		config.MaxSubscribers = DefaultMaxSubscribers
	}
	return &Manager{
		config:        config,
		subscriptions: make(map[string]*Subscription),
		timeNow:       time.Now,
		newID:         uuid.NewString,
	}
}

// Subscribe creates a subscription primed with the current snapshot.
func (m *Manager) Subscribe() (*Subscription, error) {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if len(m.subscriptions) >= m.config.MaxSubscribers {
		m.mu.Unlock()
		return nil, ErrTooManySubscribers
	}

	now := m.timeNow()
	sub := newSubscription(m.newID(), m, now)
	m.subscriptions[sub.ID] = sub

	priming := Notification{
		SubscriptionID: sub.ID,
		Snapshot:       m.current,
		IsPriming:      true,
		Timestamp:      now,
	}
	sub.deliver(priming, m.config.SkipUnchanged)
	onNotify := m.onNotification

	m.mu.Unlock()

	if onNotify != nil {
		onNotify(priming)
	}
	return sub, nil
}

// Publish replaces the current snapshot and notifies all subscribers.
// A snapshot older than the current one (lower Seq) is ignored.
func (m *Manager) Publish(snap snapshot.Snapshot) {
	m.mu.Lock()

	if m.closed || snap.Seq < m.current.Seq {
		m.mu.Unlock()
		return
	}
	m.current = snap

	now := m.timeNow()
	var sent []Notification
	for id, sub := range m.subscriptions {
		n := Notification{SubscriptionID: id, Snapshot: snap, Timestamp: now}
		if sub.deliver(n, m.config.SkipUnchanged) {
			sent = append(sent, n)
		}
	}
	onNotify := m.onNotification

	m.mu.Unlock()

	if onNotify != nil {
		for _, n := range sent {
			onNotify(n)
		}
	}
}

// Current returns the last published snapshot.
func (m *Manager) Current() snapshot.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Unsubscribe removes a subscription and closes its channel.
func (m *Manager) Unsubscribe(subscriptionID string) error {
	m.mu.Lock()
	sub, exists := m.subscriptions[subscriptionID]
	if exists {
		delete(m.subscriptions, subscriptionID)
	}
	m.mu.Unlock()

	if !exists {
		return ErrSubscriptionNotFound
	}
	sub.deactivate()
	return nil
}

// Get returns a subscription by ID.
func (m *Manager) Get(subscriptionID string) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, exists := m.subscriptions[subscriptionID]
	if !exists {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// Count returns the number of active subscriptions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// OnNotification sets a callback invoked after every queued notification.
// It runs on the publishing goroutine and must not block.
func (m *Manager) OnNotification(fn func(Notification)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onNotification = fn
}

// Close closes every subscription and rejects new ones. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	subs := m.subscriptions
	m.subscriptions = make(map[string]*Subscription)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.deactivate()
	}
}

// Closed reports whether Close was called.
func (m *Manager) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
