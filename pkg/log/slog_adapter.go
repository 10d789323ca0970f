package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger.
// Useful for development when you want to see API traffic in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}

	if event.CycleID != "" {
		attrs = append(attrs, slog.String("cycle_id", event.CycleID))
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", event.RequestID))
	}

	switch {
	case event.Exchange != nil:
		attrs = append(attrs,
			slog.String("method", event.Exchange.Method),
			slog.String("path", event.Exchange.Path),
			slog.Int("status", event.Exchange.StatusCode),
			slog.Duration("latency", event.Exchange.Latency),
			slog.String("outcome", event.Exchange.Outcome),
		)
		if event.Exchange.RetryAfter > 0 {
			attrs = append(attrs, slog.Duration("retry_after", event.Exchange.RetryAfter))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Snapshot != nil:
		attrs = append(attrs,
			slog.Uint64("seq", event.Snapshot.Seq),
			slog.Bool("running", event.Snapshot.Running),
			slog.Int("overtime_min", event.Snapshot.OvertimeMinutes),
			slog.Bool("stale", event.Snapshot.Stale),
		)
		if event.Snapshot.AuthFailed {
			attrs = append(attrs, slog.Bool("auth_failed", true))
		}
		if event.Snapshot.Task != "" {
			attrs = append(attrs, slog.String("task", event.Snapshot.Task))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
		if event.Error.Kind != "" {
			attrs = append(attrs, slog.String("error_kind", event.Error.Kind))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "capture", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
