package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
	"github.com/hakuna-bridge/hakuna-go/pkg/log"
	"github.com/hakuna-bridge/hakuna-go/pkg/snapshot"
)

// API is the subset of the Hakuna client the machine uses.
type API interface {
	CatalogAPI
	GetTimer(ctx context.Context) (hakuna.Timer, error)
	StartTimer(ctx context.Context, req hakuna.StartTimerRequest) (hakuna.Timer, error)
	StopTimer(ctx context.Context) (hakuna.TimeEntry, error)
	CancelTimer(ctx context.Context) error
}

// Source provides the settled snapshot transitions are evaluated against.
type Source interface {
	// Settled waits for any in-flight refresh and returns the snapshot.
	Settled(ctx context.Context) (snapshot.Snapshot, error)
}

// Config configures a Machine.
type Config struct {
	// CatalogTTL bounds how long tasks and projects are cached.
	// Default: 1 hour.
	CatalogTTL time.Duration

	// Location interprets the remote timer's local start time.
	// Default: time.Local.
	Location *time.Location

	// ProtocolLogger receives state change and error events. Nil disables.
	ProtocolLogger log.Logger

	// Logger for operational messages. Nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the default machine configuration.
func DefaultConfig() Config {
	return Config{
		CatalogTTL: DefaultCatalogTTL,
		Location:   time.Local,
	}
}

// Machine executes timer transitions against the remote service.
type Machine struct {
	// mu serializes transitions.
	mu sync.Mutex

	api     API
	source  Source
	catalog *Catalog
	config  Config
	capture log.Logger
	logger  *slog.Logger

	hookMu          sync.RWMutex
	afterTransition func(context.Context, Result, error)
	onStateChange   func(from, to State, reason string)

	// For testing
	timeNow func() time.Time
}

// NewMachine creates a machine with the default configuration.
func NewMachine(api API, source Source) *Machine {
	return NewMachineWithConfig(api, source, DefaultConfig())
}

// NewMachineWithConfig creates a machine.
func NewMachineWithConfig(api API, source Source, config Config) *Machine {
	if config.CatalogTTL <= 0 {
		config.CatalogTTL = DefaultCatalogTTL
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Machine{
		api:     api,
		source:  source,
		catalog: NewCatalog(api, config.CatalogTTL),
		config:  config,
		capture: log.OrNoop(config.ProtocolLogger),
		logger:  logger,
		timeNow: time.Now,
	}
}

// Catalog returns the machine's task and project catalog.
func (m *Machine) Catalog() *Catalog {
	return m.catalog
}

// AfterTransition sets the hook run after every transition that reached
// the remote timer, with the transition's result and error. It runs before
// the next transition may start.
func (m *Machine) AfterTransition(fn func(ctx context.Context, r Result, err error)) {
	m.hookMu.Lock()
	defer m.hookMu.Unlock()
	m.afterTransition = fn
}

// OnStateChange sets the callback for state changes caused by transitions.
func (m *Machine) OnStateChange(fn func(from, to State, reason string)) {
	m.hookMu.Lock()
	defer m.hookMu.Unlock()
	m.onStateChange = fn
}

// State returns the state of the settled snapshot.
func (m *Machine) State(ctx context.Context) (State, error) {
	snap, err := m.source.Settled(ctx)
	if err != nil {
		return StateIdle, err
	}
	return StateOf(snap.Timer), nil
}

// Start starts the remote timer.
//
// When the settled snapshot says Running, the remote is asked first: if it
// still runs, ErrAlreadyRunning is returned; otherwise the start proceeds.
// A conflict from the remote is reconciled by adopting the remote timer.
func (m *Machine) Start(ctx context.Context, opts StartOptions) (Result, error) {
	return m.transition(ctx, "start", func(ctx context.Context, from State) (Result, error) {
		res := Result{From: from, To: from}

		if from == StateRunning {
			res.Remote = true
			remote, err := m.api.GetTimer(ctx)
			if err != nil {
				return res, err
			}
			if remote.Running() {
				res.Timer = snapshot.TimerFrom(remote, m.config.Location)
				return res, ErrAlreadyRunning
			}
			// Stopped elsewhere since the last refresh.
			res.From, res.To = StateIdle, StateIdle
			res.Reconciled = true
		}

		req, err := m.catalog.Resolve(ctx, opts)
		if err != nil {
			return res, err
		}

		res.Remote = true
		started, err := m.api.StartTimer(ctx, req)
		switch {
		case err == nil:
			res.To = StateRunning
			res.Timer = snapshot.TimerFrom(started, m.config.Location)
			m.fillNames(ctx, &res.Timer)
			return res, nil

		case errors.Is(err, hakuna.ErrConflict):
			remote, gErr := m.api.GetTimer(ctx)
			if gErr != nil {
				return res, gErr
			}
			if !remote.Running() {
				// Conflict and idle at once: the remote changed twice.
				return res, err
			}
			res.To = StateRunning
			res.Timer = snapshot.TimerFrom(remote, m.config.Location)
			res.Reconciled = true
			return res, nil

		default:
			return res, err
		}
	})
}

// Stop stops the remote timer and returns the created time entry in
// Result.Entry. A remote that is not running is reconciled to Idle.
func (m *Machine) Stop(ctx context.Context) (Result, error) {
	return m.transition(ctx, "stop", func(ctx context.Context, from State) (Result, error) {
		res := Result{From: from, To: from, Remote: true}
		entry, err := m.api.StopTimer(ctx)
		switch {
		case err == nil:
			res.To = StateIdle
			res.Entry = &entry
			return res, nil
		case errors.Is(err, hakuna.ErrNotRunning):
			res.To = StateIdle
			res.Reconciled = from == StateRunning
			return res, nil
		default:
			return res, err
		}
	})
}

// Cancel discards the remote timer without creating an entry. A remote
// that is not running is reconciled to Idle.
func (m *Machine) Cancel(ctx context.Context) (Result, error) {
	return m.transition(ctx, "cancel", func(ctx context.Context, from State) (Result, error) {
		res := Result{From: from, To: from, Remote: true}
		err := m.api.CancelTimer(ctx)
		switch {
		case err == nil:
			res.To = StateIdle
			return res, nil
		case errors.Is(err, hakuna.ErrNotRunning):
			res.To = StateIdle
			res.Reconciled = from == StateRunning
			return res, nil
		default:
			return res, err
		}
	})
}

// transition runs one serialized action.
func (m *Machine) transition(ctx context.Context, action string, fn func(context.Context, State) (Result, error)) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if log.CycleIDFrom(ctx) == "" {
		ctx = log.WithCycleID(ctx, uuid.NewString())
	}

	snap, err := m.source.Settled(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", action, err)
	}
	from := StateOf(snap.Timer)

	res, err := fn(ctx, from)
	if err != nil {
		m.logger.Debug("timer transition failed", "action", action, "from", from, "error", err)
		m.recordError(ctx, action, err)
	} else {
		m.logger.Info("timer transition",
			"action", action,
			"from", res.From,
			"to", res.To,
			"reconciled", res.Reconciled)
	}

	if from != res.To {
		reason := action
		if res.Reconciled {
			reason += " (reconciled)"
		}
		m.recordState(ctx, from, res.To, reason)
	}

	if res.Remote && !errors.Is(err, ErrAlreadyRunning) {
		m.hookMu.RLock()
		hook := m.afterTransition
		m.hookMu.RUnlock()
		if hook != nil {
			hook(ctx, res, err)
		}
	}

	if err != nil {
		return res, fmt.Errorf("%s: %w", action, err)
	}
	return res, nil
}

// fillNames adds catalog names when the start response carried only IDs.
func (m *Machine) fillNames(ctx context.Context, t *snapshot.TimerInfo) {
	if t.TaskID != 0 && t.Task == fmt.Sprintf("#%d", t.TaskID) {
		if tasks, err := m.catalog.Tasks(ctx); err == nil {
			for _, task := range tasks {
				if task.ID == t.TaskID {
					t.Task = task.Name
				}
			}
		}
	}
	if t.ProjectID != 0 && t.Project == fmt.Sprintf("#%d", t.ProjectID) {
		if projects, err := m.catalog.Projects(ctx); err == nil {
			for _, p := range projects {
				if p.ID == t.ProjectID {
					t.Project = p.Name
				}
			}
		}
	}
}

func (m *Machine) recordState(ctx context.Context, from, to State, reason string) {
	m.capture.Log(log.Event{
		Timestamp: m.timeNow(),
		CycleID:   log.CycleIDFrom(ctx),
		Layer:     log.LayerTimer,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityTimer,
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})

	m.hookMu.RLock()
	cb := m.onStateChange
	m.hookMu.RUnlock()
	if cb != nil {
		cb(from, to, reason)
	}
}

func (m *Machine) recordError(ctx context.Context, action string, err error) {
	m.capture.Log(log.Event{
		Timestamp: m.timeNow(),
		CycleID:   log.CycleIDFrom(ctx),
		Layer:     log.LayerTimer,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTimer,
			Kind:    hakuna.Outcome(err),
			Message: err.Error(),
			Context: action,
		},
	})
}
