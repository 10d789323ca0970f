package log

import (
	"context"
	"testing"
	"time"
)

// mockLogger records events for testing
type mockLogger struct {
	events []Event
}

func (m *mockLogger) Log(event Event) {
	m.events = append(m.events, event)
}

func TestMultiLoggerCallsAll(t *testing.T) {
	mock1 := &mockLogger{}
	mock2 := &mockLogger{}

	multi := NewMultiLogger(mock1, nil, mock2)
	if multi.Len() != 2 {
		t.Errorf("Len: got %d, want 2 (nil skipped)", multi.Len())
	}

	multi.Log(Event{Timestamp: time.Now(), CycleID: "cycle-9", Layer: LayerTimer, Category: CategoryState})

	for i, mock := range []*mockLogger{mock1, mock2} {
		if len(mock.events) != 1 {
			t.Errorf("logger %d: got %d events, want 1", i, len(mock.events))
			continue
		}
		if mock.events[0].CycleID != "cycle-9" {
			t.Errorf("logger %d: CycleID = %q", i, mock.events[0].CycleID)
		}
	}
}

func TestMultiLoggerEmptyList(t *testing.T) {
	// Should not panic with empty logger list
	NewMultiLogger().Log(Event{Timestamp: time.Now()})
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	m := &mockLogger{}
	if OrNoop(m) != Logger(m) {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
	NoopLogger{}.Log(Event{})
}

func TestCycleIDContext(t *testing.T) {
	ctx := WithCycleID(context.Background(), "cycle-42")
	if got := CycleIDFrom(ctx); got != "cycle-42" {
		t.Errorf("CycleIDFrom = %q, want cycle-42", got)
	}
	if got := CycleIDFrom(context.Background()); got != "" {
		t.Errorf("CycleIDFrom(empty) = %q", got)
	}
}
