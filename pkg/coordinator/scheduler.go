package coordinator

import (
	"sync"
	"time"
)

// Scheduler is the host's periodic callback primitive.
type Scheduler interface {
	// Schedule calls fn every interval until stop is called. stop must be
	// safe to call more than once and must not wait for a running fn.
	Schedule(interval time.Duration, fn func()) (stop func())
}

// TickerScheduler runs fn from a time.Ticker goroutine. Ticks that arrive
// while fn still runs are dropped.
type TickerScheduler struct{}

// Schedule starts the ticker goroutine.
func (TickerScheduler) Schedule(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()
	return sync.OnceFunc(func() { close(done) })
}

var _ Scheduler = TickerScheduler{}
