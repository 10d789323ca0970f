package log

import "context"

type cycleKey struct{}

// WithCycleID returns a context carrying the refresh cycle or action ID.
// Components that emit capture events copy it into Event.CycleID.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleKey{}, id)
}

// CycleIDFrom returns the cycle ID stored in ctx, or "".
func CycleIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(cycleKey{}).(string)
	return id
}
