package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hakuna-bridge/hakuna-go/pkg/log"
)

// createTestLogFile writes events to a capture file in a temp dir.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.hlog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

var ts = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

func sampleEvents() []log.Event {
	return []log.Event{
		{
			Timestamp: ts,
			CycleID:   "abc12345-6789-0123-4567-890abcdef012",
			Layer:     log.LayerAPI,
			Category:  log.CategoryExchange,
			RequestID: "req-1",
			Exchange: &log.ExchangeEvent{
				Method: "GET", Path: "/timer", StatusCode: 200,
				Latency: 42 * time.Millisecond, Outcome: "ok",
			},
		},
		{
			Timestamp: ts.Add(time.Millisecond),
			CycleID:   "abc12345-6789-0123-4567-890abcdef012",
			Layer:     log.LayerAPI,
			Category:  log.CategoryExchange,
			Exchange: &log.ExchangeEvent{
				Method: "GET", Path: "/overview", StatusCode: 429,
				Latency: 10 * time.Millisecond, Outcome: "rate_limited", RetryAfter: 30 * time.Second,
			},
		},
		{
			Timestamp: ts.Add(2 * time.Millisecond),
			CycleID:   "abc12345-6789-0123-4567-890abcdef012",
			Layer:     log.LayerCoordinator,
			Category:  log.CategoryError,
			Error:     &log.ErrorEventData{Layer: log.LayerCoordinator, Kind: "rate_limited", Message: "too many requests", Context: "refresh"},
		},
		{
			Timestamp: ts.Add(3 * time.Millisecond),
			CycleID:   "abc12345-6789-0123-4567-890abcdef012",
			Layer:     log.LayerCoordinator,
			Category:  log.CategorySnapshot,
			Snapshot:  &log.SnapshotEvent{Seq: 2, OvertimeMinutes: 125, VacationRemaining: 12.5, VacationTaken: 3, Stale: true},
		},
		{
			Timestamp:   ts.Add(time.Minute),
			CycleID:     "ffff0000-1111-2222-3333-444455556666",
			Layer:       log.LayerTimer,
			Category:    log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityTimer, OldState: "IDLE", NewState: "RUNNING", Reason: "start"},
		},
	}
}

func TestFormatExchangeEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[1])
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.124456Z",
		"[cycle:abc12345]",
		"API Exchange",
		"GET /overview",
		"Status: 429 (rate_limited)",
		"Latency: 10.000ms",
		"Retry-After: 30s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestFormatSnapshotEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[3])
	output := buf.String()

	for _, want := range []string{"COORDINATOR Snapshot", "Seq: 2 (stale)", "Timer: idle", "Overtime: 02:05", "12.5 left"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestFormatStateAndErrorEvents(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, sampleEvents()[4])
	formatEvent(&buf, sampleEvents()[2])
	output := buf.String()

	for _, want := range []string{"IDLE -> RUNNING", "Reason: start", "Kind: rate_limited", "Context: refresh"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestShortenID(t *testing.T) {
	tests := map[string]string{
		"":                "-",
		"abc":             "abc",
		"abcdefgh-ijklmn": "abcdefgh",
	}
	for in, want := range tests {
		if got := shortenID(in); got != want {
			t.Errorf("shortenID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRunViewWithFilter(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	layer := log.LayerAPI
	var buf bytes.Buffer
	if err := RunView(path, log.Filter{Layer: &layer}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()
	if n := strings.Count(output, "API Exchange"); n != 2 {
		t.Errorf("expected 2 exchanges, got %d:\n%s", n, output)
	}
	if strings.Contains(output, "Snapshot") {
		t.Error("expected snapshot to be filtered out")
	}
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView(filepath.Join(t.TempDir(), "nope.hlog"), log.Filter{}, &buf); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLayerFlag("Coordinator"); err != nil || l != log.LayerCoordinator {
		t.Errorf("ParseLayerFlag = %v, %v", l, err)
	}
	if _, err := ParseLayerFlag("wire"); err == nil {
		t.Error("expected error for unknown layer")
	}
	if c, err := ParseCategoryFlag("SNAPSHOT"); err != nil || c != log.CategorySnapshot {
		t.Errorf("ParseCategoryFlag = %v, %v", c, err)
	}
	if _, err := ParseCategoryFlag("frame"); err == nil {
		t.Error("expected error for unknown category")
	}
}
