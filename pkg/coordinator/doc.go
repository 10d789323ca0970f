// Package coordinator keeps one current snapshot of the remote Hakuna timer
// and balances, refreshed on a fixed interval, and mediates timer actions.
//
// # Refresh
//
// A refresh fetches the timer and the overview concurrently and publishes
// a new snapshot only when both succeed. Concurrent refresh requests share
// one flight: a scheduled tick, a host "refresh now" and a post-action
// refresh that overlap issue a single pair of requests.
//
// Failures are classified. A rejected token is fatal: the snapshot is
// marked AuthFailed, the schedule stops and the ErrorSink is told once
// that the token must be re-entered. Everything else is soft: the previous
// values stay visible with Stale set and the next tick retries at the
// same interval.
//
// # Actions
//
// StartTimer, StopTimer and CancelTimer run through a timer.Machine that
// evaluates preconditions on a settled snapshot only. Each action that
// reached the remote is followed by a refresh that never joins a flight
// started before the action completed.
//
// # Usage
//
//	c, err := coordinator.New(coordinator.Settings{Token: token}, coordinator.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	sub, _ := c.Subscribe()
//	go func() {
//	    for n := range sub.C {
//	        render(n.Snapshot)
//	    }
//	}()
//
//	if _, err := c.StartPolling(ctx); err != nil {
//	    slog.Warn("first refresh failed", "error", err)
//	}
package coordinator
