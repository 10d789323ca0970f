package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
	"github.com/hakuna-bridge/hakuna-go/pkg/log"
	"github.com/hakuna-bridge/hakuna-go/pkg/snapshot"
	"github.com/hakuna-bridge/hakuna-go/pkg/subscription"
	"github.com/hakuna-bridge/hakuna-go/pkg/timer"
)

// flightKey is the single singleflight key: all refreshes coalesce.
const flightKey = "refresh"

// Coordinator owns the current snapshot and the in-flight refresh.
type Coordinator struct {
	mu sync.Mutex

	settings Settings
	opts     Options
	client   *hakuna.Client
	machine  *timer.Machine
	subs     *subscription.Manager
	limiter  *rate.Limiter
	group    singleflight.Group
	capture  log.Logger
	logger   *slog.Logger

	snap   snapshot.Snapshot
	seq    uint64
	health Health

	// epoch counts completed mutations and reconfigurations. A flight
	// remembers the epoch it started in.
	epoch uint64

	// generation counts clients; results fetched by a replaced client are
	// dropped.
	generation uint64

	// inflight is set by the first joiner before the flight goroutine
	// runs, so Settled never misses a requested refresh.
	inflight      *flightMark
	authErr       error
	cooldownUntil time.Time
	polling       bool
	stopSchedule  func()
	closed        bool

	// ctx is cancelled by Close and parents every flight.
	ctx    context.Context
	cancel context.CancelFunc

	onHealthChange func(from, to Health)

	// For testing
	timeNow func() time.Time
	joined  func()
}

// flightMark is closed when the refresh it marks has committed. A mark no
// flight claimed is released by the joiner that created it.
type flightMark struct {
	done    chan struct{}
	claimed bool
}

type flightResult struct {
	snap  snapshot.Snapshot
	epoch uint64
}

// New creates a coordinator. No request is made until StartPolling,
// Refresh or an action.
func New(settings Settings, opts Options) (*Coordinator, error) {
	s, err := settings.withDefaults()
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	c := &Coordinator{
		settings: s,
		opts:     opts,
		capture:  log.OrNoop(opts.ProtocolLogger),
		logger:   opts.Logger,
		health:   HealthDegraded,
		timeNow:  opts.Clock,
		subs: subscription.NewManagerWithConfig(subscription.Config{
			MaxSubscribers: opts.MaxSubscribers,
		}),
		limiter: rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60), opts.Burst),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.client, err = c.newClient(s.Token)
	if err != nil {
		c.cancel()
		return nil, err
	}

	c.machine = timer.NewMachineWithConfig(clientProxy{c}, c, timer.Config{
		CatalogTTL:     opts.CatalogTTL,
		Location:       opts.Client.Location,
		ProtocolLogger: opts.ProtocolLogger,
		Logger:         opts.Logger,
	})
	c.machine.AfterTransition(c.afterTransition)
	return c, nil
}

func (c *Coordinator) newClient(token string) (*hakuna.Client, error) {
	cfg := c.opts.Client
	cfg.Token = token
	cfg.Timeout = c.opts.Timeout
	cfg.ProtocolLogger = c.opts.ProtocolLogger
	cfg.Logger = c.opts.Logger
	return hakuna.NewWithConfig(cfg)
}

// Snapshot returns the current snapshot.
func (c *Coordinator) Snapshot() snapshot.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe returns a subscription primed with the current snapshot.
func (c *Coordinator) Subscribe() (*subscription.Subscription, error) {
	return c.subs.Subscribe()
}

// Subscriptions returns the subscription manager.
func (c *Coordinator) Subscriptions() *subscription.Manager {
	return c.subs
}

// Health returns the current health.
func (c *Coordinator) Health() Health {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.health
}

// Interval returns the configured refresh interval.
func (c *Coordinator) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Interval
}

// Settings returns the active settings.
func (c *Coordinator) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Client returns the current API client. It changes on Reconfigure.
func (c *Coordinator) Client() *hakuna.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client
}

// Machine returns the timer state machine.
func (c *Coordinator) Machine() *timer.Machine {
	return c.machine
}

// OnHealthChange sets the callback for health transitions.
func (c *Coordinator) OnHealthChange(fn func(from, to Health)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHealthChange = fn
}

// StartPolling starts the schedule and performs the first refresh.
func (c *Coordinator) StartPolling(ctx context.Context) (snapshot.Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return snapshot.Snapshot{}, ErrClosed
	}
	c.polling = true
	if c.stopSchedule == nil && c.authErr == nil {
		c.startScheduleLocked()
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}

func (c *Coordinator) startScheduleLocked() {
	gen := c.generation
	c.stopSchedule = c.opts.Scheduler.Schedule(c.settings.Interval, func() { c.tick(gen) })
	c.logger.Debug("refresh schedule started", "interval", c.settings.Interval)
}

func (c *Coordinator) stopScheduleLocked() {
	if c.stopSchedule != nil {
		c.stopSchedule()
		c.stopSchedule = nil
		c.logger.Debug("refresh schedule stopped")
	}
}

func (c *Coordinator) tick(gen uint64) {
	c.mu.Lock()
	active := !c.closed && gen == c.generation && c.stopSchedule != nil
	c.mu.Unlock()
	if !active {
		return
	}
	if _, err := c.Refresh(c.ctx); err != nil {
		c.logger.Debug("scheduled refresh failed", "error", err)
	}
}

// Refresh returns the result of the in-flight refresh, starting one if
// none is running. All concurrent callers share one pair of requests.
// On failure the returned snapshot is the stale one that was published.
func (c *Coordinator) Refresh(ctx context.Context) (snapshot.Snapshot, error) {
	res, err := c.join(ctx)
	return res.snap, err
}

// ForceRefresh is the host's "refresh now". Inside a Retry-After window of
// an earlier 429 it fails with a *ThrottleError without a request.
func (c *Coordinator) ForceRefresh(ctx context.Context) (snapshot.Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return snapshot.Snapshot{}, ErrClosed
	}
	now := c.timeNow()
	if now.Before(c.cooldownUntil) {
		snap, wait := c.snap, c.cooldownUntil.Sub(now)
		c.mu.Unlock()
		return snap, &ThrottleError{Reason: "server asked to retry later", RetryAfter: wait}
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}

// refreshSince returns the first flight result that started at or after
// epoch want, waiting out older flights.
func (c *Coordinator) refreshSince(ctx context.Context, want uint64) (snapshot.Snapshot, error) {
	for {
		res, err := c.join(ctx)
		if res.epoch >= want || errors.Is(err, ErrClosed) || ctx.Err() != nil {
			return res.snap, err
		}
	}
}

func (c *Coordinator) join(ctx context.Context) (flightResult, error) {
	c.mu.Lock()
	mark := c.inflight
	if mark == nil {
		mark = &flightMark{done: make(chan struct{})}
		c.inflight = mark
	}
	c.mu.Unlock()
	defer c.releaseMark(mark)

	ch := c.group.DoChan(flightKey, c.flight)
	if c.joined != nil {
		c.joined()
	}
	select {
	case r := <-ch:
		res, _ := r.Val.(flightResult)
		return res, r.Err
	case <-ctx.Done():
		return flightResult{snap: c.Snapshot()}, ctx.Err()
	}
}

// releaseMark drops a mark created for a flight that was already
// finishing when it was joined.
func (c *Coordinator) releaseMark(mark *flightMark) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mark.claimed || c.inflight != mark {
		return
	}
	c.inflight = nil
	close(mark.done)
}

func (c *Coordinator) flight() (any, error) {
	c.mu.Lock()
	mark := c.inflight
	if mark == nil || mark.claimed {
		mark = &flightMark{done: make(chan struct{})}
		c.inflight = mark
	}
	mark.claimed = true
	defer func() {
		c.mu.Lock()
		if c.inflight == mark {
			c.inflight = nil
		}
		c.mu.Unlock()
		close(mark.done)
	}()

	res := flightResult{snap: c.snap, epoch: c.epoch}
	if c.closed {
		c.mu.Unlock()
		return res, ErrClosed
	}
	if c.authErr != nil {
		// The token was rejected; only Reconfigure resumes requests.
		err := c.authErr
		c.mu.Unlock()
		return res, err
	}
	gen := c.generation
	client := c.client
	budgetErr := c.reserveLocked(c.timeNow())
	c.mu.Unlock()

	ctx := log.WithCycleID(c.ctx, uuid.NewString())

	var (
		t   hakuna.Timer
		o   hakuna.Overview
		err = budgetErr
	)
	if err == nil {
		t, o, err = fetch(ctx, client)
	}
	res.snap, err = c.commit(ctx, gen, t, o, err)
	return res, err
}

// reserveLocked takes one refresh worth of tokens from the budget.
func (c *Coordinator) reserveLocked(now time.Time) error {
	r := c.limiter.ReserveN(now, refreshCost)
	if !r.OK() {
		return &ThrottleError{Reason: "request budget too small"}
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &ThrottleError{Reason: "request budget exhausted", RetryAfter: delay}
	}
	return nil
}

// fetch loads the timer and the overview concurrently. Either both
// succeed or the first error is returned.
func fetch(ctx context.Context, client *hakuna.Client) (t hakuna.Timer, o hakuna.Overview, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = client.GetTimer(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		o, err = client.GetOverview(gctx)
		return err
	})
	err = g.Wait()
	return t, o, err
}

// commit merges a refresh outcome into a new snapshot and publishes it.
// Results for a closed coordinator or a replaced client are dropped.
func (c *Coordinator) commit(ctx context.Context, gen uint64, t hakuna.Timer, o hakuna.Overview, err error) (snapshot.Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		snap := c.snap
		c.mu.Unlock()
		return snap, ErrClosed
	}
	if gen != c.generation {
		snap := c.snap
		c.mu.Unlock()
		return snap, nil
	}

	now := c.timeNow()
	prev := c.snap
	next := prev
	var fatal, soft bool

	switch {
	case err == nil:
		next = snapshot.Snapshot{
			Timer:     snapshot.TimerFrom(t, c.opts.Client.Location),
			Overview:  snapshot.OverviewFrom(o),
			FetchedAt: now,
		}
		c.cooldownUntil = time.Time{}

	case errors.Is(err, hakuna.ErrAuth):
		next.Stale = true
		next.AuthFailed = true
		next.Err = err
		fatal = c.authErr == nil
		c.authErr = err
		c.stopScheduleLocked()

	default:
		next.Stale = true
		next.AuthFailed = false
		next.Err = err
		soft = true
		if ra := hakuna.RetryAfter(err); ra > 0 {
			c.cooldownUntil = now.Add(ra)
		}
	}

	c.seq++
	next.Seq = c.seq
	c.snap = next

	fromHealth := c.health
	toHealth := healthOf(next, false)
	c.health = toHealth
	onHealth := c.onHealthChange
	c.mu.Unlock()

	c.recordSnapshot(ctx, prev, next, now)
	c.subs.Publish(next)

	if toHealth != fromHealth {
		c.recordHealth(ctx, fromHealth, toHealth, now)
		if onHealth != nil {
			onHealth(fromHealth, toHealth)
		}
	}

	switch {
	case fatal:
		c.logger.Warn("API token rejected, polling stopped until reconfiguration", "error", err)
		c.opts.ErrorSink.ReauthRequired(err)
	case soft:
		c.logger.Info("refresh failed, keeping stale snapshot", "error", err, "outcome", hakuna.Outcome(err))
		c.opts.ErrorSink.SoftFailure(err)
	case err != nil:
		// Auth already reported.
	default:
		c.logger.Debug("snapshot refreshed",
			"seq", next.Seq,
			"running", next.Timer.Running,
			"overtime", next.Overview.Overtime())
	}
	return next, err
}

// Settled waits for the in-flight refresh, if any, and returns the
// snapshot it produced. Timer transitions read state only through it.
func (c *Coordinator) Settled(ctx context.Context) (snapshot.Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return snapshot.Snapshot{}, ErrClosed
	}
	mark := c.inflight
	c.mu.Unlock()

	if mark != nil {
		select {
		case <-mark.done:
		case <-ctx.Done():
			return snapshot.Snapshot{}, ctx.Err()
		case <-c.ctx.Done():
			return snapshot.Snapshot{}, ErrClosed
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return snapshot.Snapshot{}, ErrClosed
	}
	return c.snap, nil
}

// StartTimer starts the remote timer, see timer.Machine.Start.
func (c *Coordinator) StartTimer(ctx context.Context, opts timer.StartOptions) (timer.Result, error) {
	return c.machine.Start(ctx, opts)
}

// StopTimer stops the remote timer, see timer.Machine.Stop.
func (c *Coordinator) StopTimer(ctx context.Context) (timer.Result, error) {
	return c.machine.Stop(ctx)
}

// CancelTimer discards the remote timer, see timer.Machine.Cancel.
func (c *Coordinator) CancelTimer(ctx context.Context) (timer.Result, error) {
	return c.machine.Cancel(ctx)
}

// afterTransition re-syncs the snapshot after an action reached the remote.
func (c *Coordinator) afterTransition(ctx context.Context, _ timer.Result, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	gen := c.generation
	c.epoch++
	want := c.epoch
	c.mu.Unlock()

	if errors.Is(err, hakuna.ErrAuth) {
		_, _ = c.commit(ctx, gen, hakuna.Timer{}, hakuna.Overview{}, err)
		return
	}
	if _, rerr := c.refreshSince(ctx, want); rerr != nil {
		c.logger.Debug("post-action refresh failed", "error", rerr)
	}
}

// Reconfigure replaces the token and interval, clears a rejected-token
// condition, restarts the schedule if polling and refreshes immediately.
// The refresh never joins a flight started with the previous settings.
func (c *Coordinator) Reconfigure(ctx context.Context, settings Settings) (snapshot.Snapshot, error) {
	s, err := settings.withDefaults()
	if err != nil {
		return c.Snapshot(), err
	}
	client, err := c.newClient(s.Token)
	if err != nil {
		return c.Snapshot(), err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return snapshot.Snapshot{}, ErrClosed
	}
	c.stopScheduleLocked()
	c.settings = s
	c.client = client
	c.generation++
	c.epoch++
	want := c.epoch
	c.authErr = nil
	c.cooldownUntil = time.Time{}
	if c.polling {
		c.startScheduleLocked()
	}
	c.mu.Unlock()

	c.machine.Catalog().Invalidate()
	c.logger.Info("coordinator reconfigured", "interval", s.Interval)

	return c.refreshSince(ctx, want)
}

// Close cancels the in-flight refresh and discards its result, stops the
// schedule and closes all subscriptions. It is idempotent.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopScheduleLocked()
	c.cancel()
	from := c.health
	c.health = HealthClosed
	onHealth := c.onHealthChange
	c.mu.Unlock()

	c.subs.Close()
	c.recordHealth(context.Background(), from, HealthClosed, c.timeNow())
	if onHealth != nil {
		onHealth(from, HealthClosed)
	}
	c.logger.Info("coordinator closed")
	return nil
}

var _ timer.Source = (*Coordinator)(nil)
