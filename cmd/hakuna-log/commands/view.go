// Package commands implements the hakuna-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/hakuna-bridge/hakuna-go/pkg/log"
	"github.com/hakuna-bridge/hakuna-go/pkg/snapshot"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [cycle:id] LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")

	var typeLabel string
	switch {
	case event.Exchange != nil:
		typeLabel = "Exchange"
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Snapshot != nil:
		typeLabel = "Snapshot"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [cycle:%s] %s %s\n", ts, shortenID(event.CycleID), event.Layer, typeLabel)

	switch {
	case event.Exchange != nil:
		formatExchangeDetails(w, event)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Snapshot != nil:
		formatSnapshotDetails(w, event.Snapshot)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenID returns the first 8 characters of an ID, or "-" when empty.
func shortenID(id string) string {
	switch {
	case id == "":
		return "-"
	case len(id) >= 8:
		return id[:8]
	default:
		return id
	}
}

func formatExchangeDetails(w io.Writer, event log.Event) {
	x := event.Exchange
	fmt.Fprintf(w, "  %s %s\n", x.Method, x.Path)
	if x.StatusCode != 0 {
		fmt.Fprintf(w, "  Status: %d (%s)\n", x.StatusCode, x.Outcome)
	} else {
		fmt.Fprintf(w, "  Status: no response (%s)\n", x.Outcome)
	}
	fmt.Fprintf(w, "  Latency: %s\n", formatDuration(x.Latency))
	if x.RetryAfter > 0 {
		fmt.Fprintf(w, "  Retry-After: %s\n", x.RetryAfter)
	}
	if event.RequestID != "" {
		fmt.Fprintf(w, "  RequestID: %s\n", event.RequestID)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	if err.Kind != "" {
		fmt.Fprintf(w, "  Kind: %s\n", err.Kind)
	}
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

func formatSnapshotDetails(w io.Writer, s *log.SnapshotEvent) {
	fmt.Fprintf(w, "  Seq: %d", s.Seq)
	switch {
	case s.AuthFailed:
		fmt.Fprint(w, " (stale, auth failed)")
	case s.Stale:
		fmt.Fprint(w, " (stale)")
	}
	fmt.Fprintln(w)
	if s.Running {
		fmt.Fprintf(w, "  Timer: running since %s", s.StartedAt.Format(time.RFC3339))
		if s.Project != "" || s.Task != "" {
			fmt.Fprintf(w, " [%s / %s]", s.Project, s.Task)
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, "  Timer: idle")
	}
	fmt.Fprintf(w, "  Overtime: %s  Vacation: %s left, %s taken\n",
		snapshot.FormatOvertime(s.OvertimeMinutes),
		snapshot.FormatDays(s.VacationRemaining),
		snapshot.FormatDays(s.VacationTaken))
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseLayerFlag parses a layer string from a command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	l, ok := log.ParseLayer(s)
	if !ok {
		return 0, fmt.Errorf("invalid layer: %s (must be api, timer, or coordinator)", s)
	}
	return l, nil
}

// ParseCategoryFlag parses a category string from a command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(s)
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be exchange, state, snapshot, or error)", s)
	}
	return c, nil
}

// RunView executes the view command.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}
