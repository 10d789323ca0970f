package log

import "sync"

// MemoryLogger keeps events in memory. It backs the interactive console's
// "trace" command and is handy in tests that assert on captured events.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemoryLogger creates a MemoryLogger holding at most limit events.
// Older events are dropped first. A limit of 0 keeps everything.
func NewMemoryLogger(limit int) *MemoryLogger {
	return &MemoryLogger{limit: limit}
}

// Log appends the event.
func (m *MemoryLogger) Log(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	if m.limit > 0 && len(m.events) > m.limit {
		m.events = append(m.events[:0], m.events[len(m.events)-m.limit:]...)
	}
}

// Events returns a copy of the retained events, oldest first.
func (m *MemoryLogger) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Select returns the retained events matching f.
func (m *MemoryLogger) Select(f Filter) []Event {
	var out []Event
	for _, ev := range m.Events() {
		if f.Matches(ev) {
			out = append(out, ev)
		}
	}
	return out
}

var _ Logger = (*MemoryLogger)(nil)
