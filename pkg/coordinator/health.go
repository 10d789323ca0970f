package coordinator

import "github.com/hakuna-bridge/hakuna-go/pkg/snapshot"

// Health summarizes the coordinator's condition.
type Health uint8

const (
	// HealthHealthy means the last refresh succeeded.
	HealthHealthy Health = iota

	// HealthDegraded means nothing was loaded yet or the last refresh
	// failed softly.
	HealthDegraded

	// HealthAuthFailed means the token was rejected. Polling is stopped.
	HealthAuthFailed

	// HealthClosed means the coordinator was closed.
	HealthClosed
)

// String returns the health name.
func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "HEALTHY"
	case HealthDegraded:
		return "DEGRADED"
	case HealthAuthFailed:
		return "AUTH_FAILED"
	case HealthClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

func healthOf(snap snapshot.Snapshot, closed bool) Health {
	switch {
	case closed:
		return HealthClosed
	case snap.AuthFailed:
		return HealthAuthFailed
	case snap.Stale || !snap.Loaded():
		return HealthDegraded
	default:
		return HealthHealthy
	}
}
