package coordinator

import (
	"context"
	"time"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
	"github.com/hakuna-bridge/hakuna-go/pkg/log"
	"github.com/hakuna-bridge/hakuna-go/pkg/snapshot"
	"github.com/hakuna-bridge/hakuna-go/pkg/timer"
)

func (c *Coordinator) recordSnapshot(ctx context.Context, prev, next snapshot.Snapshot, now time.Time) {
	cycle := log.CycleIDFrom(ctx)

	if next.Err != nil {
		c.capture.Log(log.Event{
			Timestamp: now,
			CycleID:   cycle,
			Layer:     log.LayerCoordinator,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerCoordinator,
				Kind:    hakuna.Outcome(next.Err),
				Message: next.Err.Error(),
				Context: "refresh",
			},
		})
	}

	if next.Loaded() && (!prev.Loaded() || prev.Timer.Running != next.Timer.Running) {
		ev := &log.StateChangeEvent{
			Entity:   log.StateEntityTimer,
			NewState: timer.StateOf(next.Timer).String(),
			Reason:   "refresh",
		}
		if prev.Loaded() {
			ev.OldState = timer.StateOf(prev.Timer).String()
		}
		c.capture.Log(log.Event{
			Timestamp:   now,
			CycleID:     cycle,
			Layer:       log.LayerCoordinator,
			Category:    log.CategoryState,
			StateChange: ev,
		})
	}

	c.capture.Log(log.Event{
		Timestamp: now,
		CycleID:   cycle,
		Layer:     log.LayerCoordinator,
		Category:  log.CategorySnapshot,
		Snapshot: &log.SnapshotEvent{
			Seq:               next.Seq,
			Running:           next.Timer.Running,
			StartedAt:         next.Timer.StartedAt,
			Project:           next.Timer.Project,
			Task:              next.Timer.Task,
			OvertimeMinutes:   next.Overview.OvertimeMinutes,
			VacationRemaining: next.Overview.VacationDaysRemaining,
			VacationTaken:     next.Overview.VacationDaysTaken,
			Stale:             next.Stale,
			AuthFailed:        next.AuthFailed,
		},
	})
}

func (c *Coordinator) recordHealth(ctx context.Context, from, to Health, now time.Time) {
	c.logger.Info("coordinator health changed", "from", from, "to", to)
	c.capture.Log(log.Event{
		Timestamp: now,
		CycleID:   log.CycleIDFrom(ctx),
		Layer:     log.LayerCoordinator,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityHealth,
			OldState: from.String(),
			NewState: to.String(),
		},
	})
}
