package timer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
	"github.com/hakuna-bridge/hakuna-go/pkg/log"
	"github.com/hakuna-bridge/hakuna-go/pkg/snapshot"
	"github.com/hakuna-bridge/hakuna-go/pkg/timer"
	"github.com/hakuna-bridge/hakuna-go/pkg/timer/mocks"
)

var (
	idleSnap    = snapshot.Snapshot{Seq: 1, FetchedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	runningSnap = snapshot.Snapshot{
		Seq:       2,
		FetchedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Timer:     snapshot.TimerInfo{Running: true, StartedAt: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), Task: "Dev"},
	}
	remoteRunning = hakuna.Timer{Date: "2026-03-02", StartTime: "07:45", Task: &hakuna.Ref{ID: 2, Name: "Dev"}}
	notRunning    = &hakuna.APIError{Kind: hakuna.ErrNotRunning, StatusCode: 404}
	conflict      = &hakuna.APIError{Kind: hakuna.ErrConflict, StatusCode: 409}
)

type hookCall struct {
	res timer.Result
	err error
}

func newMachine(t *testing.T, snap snapshot.Snapshot) (*timer.Machine, *mocks.MockAPI, *[]hookCall) {
	t.Helper()
	api := mocks.NewMockAPI(t)
	source := mocks.NewMockSource(t)
	source.EXPECT().Settled(mock.Anything).Return(snap, nil).Maybe()

	cfg := timer.DefaultConfig()
	cfg.Location = time.UTC
	m := timer.NewMachineWithConfig(api, source, cfg)

	calls := &[]hookCall{}
	m.AfterTransition(func(_ context.Context, r timer.Result, err error) {
		*calls = append(*calls, hookCall{r, err})
	})
	return m, api, calls
}

func TestStartFromIdle(t *testing.T) {
	m, api, hooks := newMachine(t, idleSnap)
	api.EXPECT().Tasks(mock.Anything).Return([]hakuna.Task{{ID: 2, Name: "Dev", Default: true}}, nil).Once()
	api.EXPECT().StartTimer(mock.Anything, mock.MatchedBy(func(req hakuna.StartTimerRequest) bool {
		return req.TaskID != nil && *req.TaskID == 2 && req.ProjectID == nil
	})).Return(remoteRunning, nil).Once()

	res, err := m.Start(context.Background(), timer.StartOptions{})
	require.NoError(t, err)

	assert.Equal(t, timer.StateIdle, res.From)
	assert.Equal(t, timer.StateRunning, res.To)
	assert.True(t, res.Timer.Running)
	assert.Equal(t, time.Date(2026, 3, 2, 7, 45, 0, 0, time.UTC), res.Timer.StartedAt)
	assert.False(t, res.Reconciled)
	assert.True(t, res.Remote)
	assert.True(t, res.Changed())
	require.Len(t, *hooks, 1)
	assert.NoError(t, (*hooks)[0].err)
}

func TestStartConflictReconciles(t *testing.T) {
	m, api, hooks := newMachine(t, idleSnap)
	taskID := "2"
	api.EXPECT().StartTimer(mock.Anything, mock.Anything).Return(hakuna.Timer{}, conflict).Once()
	api.EXPECT().GetTimer(mock.Anything).Return(remoteRunning, nil).Once()

	res, err := m.Start(context.Background(), timer.StartOptions{Task: taskID})
	require.NoError(t, err)

	assert.Equal(t, timer.StateRunning, res.To)
	assert.True(t, res.Reconciled)
	assert.Equal(t, time.Date(2026, 3, 2, 7, 45, 0, 0, time.UTC), res.Timer.StartedAt)
	assert.Equal(t, "Dev", res.Timer.Task)
	require.Len(t, *hooks, 1)
}

func TestStartConflictButRemoteIdle(t *testing.T) {
	m, api, _ := newMachine(t, idleSnap)
	api.EXPECT().StartTimer(mock.Anything, mock.Anything).Return(hakuna.Timer{}, conflict).Once()
	api.EXPECT().GetTimer(mock.Anything).Return(hakuna.Timer{}, nil).Once()

	_, err := m.Start(context.Background(), timer.StartOptions{Task: "2"})
	assert.ErrorIs(t, err, hakuna.ErrConflict)
}

func TestStartWhileRunningVerifiesRemote(t *testing.T) {
	t.Run("remote running", func(t *testing.T) {
		m, api, hooks := newMachine(t, runningSnap)
		api.EXPECT().GetTimer(mock.Anything).Return(remoteRunning, nil).Once()

		res, err := m.Start(context.Background(), timer.StartOptions{Task: "2"})
		assert.ErrorIs(t, err, timer.ErrAlreadyRunning)
		assert.Equal(t, timer.StateRunning, res.To)
		assert.Empty(t, *hooks, "rejected start must not trigger a refresh")
	})

	t.Run("remote idle", func(t *testing.T) {
		m, api, hooks := newMachine(t, runningSnap)
		api.EXPECT().GetTimer(mock.Anything).Return(hakuna.Timer{}, nil).Once()
		api.EXPECT().StartTimer(mock.Anything, mock.Anything).Return(remoteRunning, nil).Once()

		res, err := m.Start(context.Background(), timer.StartOptions{Task: "2"})
		require.NoError(t, err)
		assert.Equal(t, timer.StateIdle, res.From)
		assert.Equal(t, timer.StateRunning, res.To)
		assert.Len(t, *hooks, 1)
	})
}

func TestStartUnknownTask(t *testing.T) {
	m, api, hooks := newMachine(t, idleSnap)
	api.EXPECT().Tasks(mock.Anything).Return([]hakuna.Task{{ID: 1, Name: "Dev"}}, nil).Once()

	res, err := m.Start(context.Background(), timer.StartOptions{Task: "Gardening"})
	assert.ErrorIs(t, err, timer.ErrUnknownTask)
	assert.False(t, res.Remote)
	assert.Empty(t, *hooks)
}

func TestStartUnknownProject(t *testing.T) {
	m, api, _ := newMachine(t, idleSnap)
	api.EXPECT().Projects(mock.Anything).Return([]hakuna.Project{{ID: 1, Name: "A"}}, nil).Once()

	_, err := m.Start(context.Background(), timer.StartOptions{Task: "2", Project: "Z"})
	assert.ErrorIs(t, err, timer.ErrUnknownProject)
}

func TestStartRemoteFailure(t *testing.T) {
	m, api, hooks := newMachine(t, idleSnap)
	authErr := &hakuna.APIError{Kind: hakuna.ErrAuth, StatusCode: 401}
	api.EXPECT().StartTimer(mock.Anything, mock.Anything).Return(hakuna.Timer{}, authErr).Once()

	res, err := m.Start(context.Background(), timer.StartOptions{Task: "2"})
	assert.ErrorIs(t, err, hakuna.ErrAuth)
	assert.Equal(t, timer.StateIdle, res.To)
	require.Len(t, *hooks, 1)
	assert.ErrorIs(t, (*hooks)[0].err, hakuna.ErrAuth)
}

func TestStopReturnsEntry(t *testing.T) {
	m, api, hooks := newMachine(t, runningSnap)
	api.EXPECT().StopTimer(mock.Anything).Return(hakuna.TimeEntry{ID: 77, Duration: "01:00"}, nil).Once()

	res, err := m.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, timer.StateRunning, res.From)
	assert.Equal(t, timer.StateIdle, res.To)
	require.NotNil(t, res.Entry)
	assert.Equal(t, int64(77), res.Entry.ID)
	assert.Len(t, *hooks, 1)
}

func TestStopNotRunningReconciles(t *testing.T) {
	m, api, _ := newMachine(t, runningSnap)
	api.EXPECT().StopTimer(mock.Anything).Return(hakuna.TimeEntry{}, notRunning).Once()

	res, err := m.Stop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, timer.StateIdle, res.To)
	assert.True(t, res.Reconciled)
	assert.Nil(t, res.Entry)
}

func TestCancelIdleIsIdempotent(t *testing.T) {
	m, api, hooks := newMachine(t, idleSnap)
	api.EXPECT().CancelTimer(mock.Anything).Return(notRunning).Once()

	res, err := m.Cancel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, timer.StateIdle, res.From)
	assert.Equal(t, timer.StateIdle, res.To)
	assert.False(t, res.Changed())
	assert.False(t, res.Reconciled)
	assert.Len(t, *hooks, 1)
}

func TestCancelIdleStopsRemoteStartedElsewhere(t *testing.T) {
	m, api, _ := newMachine(t, idleSnap)
	api.EXPECT().CancelTimer(mock.Anything).Return(nil).Once()

	res, err := m.Cancel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, timer.StateIdle, res.To)
}

func TestCancelTransientFailure(t *testing.T) {
	m, api, _ := newMachine(t, runningSnap)
	api.EXPECT().CancelTimer(mock.Anything).Return(&hakuna.APIError{Kind: hakuna.ErrTransient, StatusCode: 502}).Once()

	res, err := m.Cancel(context.Background())
	assert.ErrorIs(t, err, hakuna.ErrTransient)
	assert.Equal(t, timer.StateRunning, res.To)
}

func TestSettledErrorAbortsTransition(t *testing.T) {
	api := mocks.NewMockAPI(t)
	source := mocks.NewMockSource(t)
	closed := errors.New("closed")
	source.EXPECT().Settled(mock.Anything).Return(snapshot.Snapshot{}, closed).Once()

	m := timer.NewMachine(api, source)
	_, err := m.Stop(context.Background())
	assert.ErrorIs(t, err, closed)
}

func TestStateChangeCapture(t *testing.T) {
	api := mocks.NewMockAPI(t)
	source := mocks.NewMockSource(t)
	source.EXPECT().Settled(mock.Anything).Return(idleSnap, nil)
	api.EXPECT().StartTimer(mock.Anything, mock.Anything).Return(hakuna.Timer{}, conflict).Once()
	api.EXPECT().GetTimer(mock.Anything).Return(remoteRunning, nil).Once()

	mem := log.NewMemoryLogger(0)
	cfg := timer.DefaultConfig()
	cfg.ProtocolLogger = mem
	m := timer.NewMachineWithConfig(api, source, cfg)

	var changes []string
	m.OnStateChange(func(from, to timer.State, reason string) {
		changes = append(changes, from.String()+">"+to.String()+":"+reason)
	})

	_, err := m.Start(context.Background(), timer.StartOptions{Task: "2"})
	require.NoError(t, err)

	assert.Equal(t, []string{"IDLE>RUNNING:start (reconciled)"}, changes)
	cat := log.CategoryState
	events := mem.Select(log.Filter{Category: &cat})
	require.Len(t, events, 1)
	assert.Equal(t, log.LayerTimer, events[0].Layer)
	assert.NotEmpty(t, events[0].CycleID)
	assert.Equal(t, "RUNNING", events[0].StateChange.NewState)
}

func TestStateOfAndString(t *testing.T) {
	assert.Equal(t, timer.StateRunning, timer.StateOf(snapshot.TimerInfo{Running: true}))
	assert.Equal(t, timer.StateIdle, timer.StateOf(snapshot.TimerInfo{}))
	assert.Equal(t, "IDLE", timer.StateIdle.String())
	assert.Equal(t, "RUNNING", timer.StateRunning.String())
	assert.Equal(t, "UNKNOWN", timer.State(9).String())
}
