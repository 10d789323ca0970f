package coordinator

import (
	"context"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
	"github.com/hakuna-bridge/hakuna-go/pkg/timer"
)

// clientProxy forwards timer.API calls to the coordinator's current client,
// so a Reconfigure takes effect for the machine without rebuilding it.
// Every call is charged to the request budget but never refused.
type clientProxy struct {
	c *Coordinator
}

func (p clientProxy) client() *hakuna.Client {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	p.c.limiter.ReserveN(p.c.timeNow(), 1)
	return p.c.client
}

func (p clientProxy) GetTimer(ctx context.Context) (hakuna.Timer, error) {
	return p.client().GetTimer(ctx)
}

func (p clientProxy) StartTimer(ctx context.Context, req hakuna.StartTimerRequest) (hakuna.Timer, error) {
	return p.client().StartTimer(ctx, req)
}

func (p clientProxy) StopTimer(ctx context.Context) (hakuna.TimeEntry, error) {
	return p.client().StopTimer(ctx)
}

func (p clientProxy) CancelTimer(ctx context.Context) error {
	return p.client().CancelTimer(ctx)
}

func (p clientProxy) Tasks(ctx context.Context) ([]hakuna.Task, error) {
	return p.client().Tasks(ctx)
}

func (p clientProxy) Projects(ctx context.Context) ([]hakuna.Project, error) {
	return p.client().Projects(ctx)
}

var _ timer.API = clientProxy{}
