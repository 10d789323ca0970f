package hakuna_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna/hakunatest"
	"github.com/hakuna-bridge/hakuna-go/pkg/log"
	"github.com/hakuna-bridge/hakuna-go/pkg/version"
)

func TestNewRequiresToken(t *testing.T) {
	_, err := hakuna.New("  ")
	assert.ErrorIs(t, err, hakuna.ErrMissingToken)
}

func TestClientSendsHeaders(t *testing.T) {
	srv := hakunatest.NewServer(t)
	c := srv.Client(t)

	_, err := c.GetTimer(context.Background())
	require.NoError(t, err)

	h := srv.LastHeader(hakunatest.RouteGetTimer)
	assert.Equal(t, hakunatest.DefaultToken, h.Get("X-Auth-Token"))
	assert.Equal(t, "Bearer "+hakunatest.DefaultToken, h.Get("Authorization"))
	assert.Equal(t, "v1", h.Get("Accept-Version"))
	assert.NotEmpty(t, h.Get("X-Request-Id"))
	assert.Equal(t, version.UserAgent(), h.Get("User-Agent"))
}

func TestGetTimerIdle(t *testing.T) {
	t.Run("null date", func(t *testing.T) {
		srv := hakunatest.NewServer(t)
		timer, err := srv.Client(t).GetTimer(context.Background())
		require.NoError(t, err)
		assert.False(t, timer.Running())
		assert.True(t, timer.StartedAt(time.UTC).IsZero())
	})

	t.Run("not found", func(t *testing.T) {
		srv := hakunatest.NewServer(t, hakunatest.WithIdleNotFound())
		timer, err := srv.Client(t).GetTimer(context.Background())
		require.NoError(t, err)
		assert.False(t, timer.Running())
	})
}

func TestTimerLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	srv := hakunatest.NewServer(t, hakunatest.WithClock(func() time.Time { return now }))
	srv.SetTasks(hakuna.Task{ID: 7, Name: "Development", Default: true})
	srv.SetProjects(hakuna.Project{ID: 3, Name: "Bridge"})
	c := srv.Client(t)
	ctx := context.Background()

	taskID, projectID, note := int64(7), int64(3), "wiring"
	started, err := c.StartTimer(ctx, hakuna.StartTimerRequest{TaskID: &taskID, ProjectID: &projectID, Note: &note})
	require.NoError(t, err)
	assert.True(t, started.Running())
	assert.Equal(t, now, started.StartedAt(time.UTC))
	require.NotNil(t, started.Task)
	assert.Equal(t, "Development", started.Task.Name)
	assert.Equal(t, "Bridge", started.Project.Name)
	assert.JSONEq(t, `{"task_id":7,"project_id":3,"note":"wiring"}`, string(srv.LastBody(hakunatest.RouteStartTimer)))

	_, err = c.StartTimer(ctx, hakuna.StartTimerRequest{TaskID: &taskID})
	assert.ErrorIs(t, err, hakuna.ErrConflict)

	now = now.Add(95 * time.Minute)
	current, err := c.GetTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, 95*time.Minute, current.Elapsed())
	assert.Equal(t, "01:35", current.Duration)

	entry, err := c.StopTimer(ctx)
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.Equal(t, "wiring", entry.Note)
	assert.Equal(t, "11:05", entry.EndTime)

	_, err = c.StopTimer(ctx)
	assert.ErrorIs(t, err, hakuna.ErrNotRunning)

	err = c.CancelTimer(ctx)
	assert.ErrorIs(t, err, hakuna.ErrNotRunning)
}

func TestCancelTimer(t *testing.T) {
	srv := hakunatest.NewServer(t)
	srv.StartElsewhere(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), nil, &hakuna.Ref{ID: 1, Name: "Dev"}, "")
	c := srv.Client(t)

	require.NoError(t, c.CancelTimer(context.Background()))
	_, running := srv.Timer()
	assert.False(t, running)
}

func TestConflictVia422(t *testing.T) {
	srv := hakunatest.NewServer(t, hakunatest.WithConflictStatus(http.StatusUnprocessableEntity))
	srv.StartElsewhere(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), nil, nil, "")

	_, err := srv.Client(t).StartTimer(context.Background(), hakuna.StartTimerRequest{})
	assert.ErrorIs(t, err, hakuna.ErrConflict)
}

func TestGetOverview(t *testing.T) {
	srv := hakunatest.NewServer(t)
	srv.SetOvertime(-90, 12.5, 3)

	o, err := srv.Client(t).GetOverview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -90, o.OvertimeMinutes())
	assert.Equal(t, "-01:30", o.Overtime)
	assert.Equal(t, 12.5, o.Vacation.RemainingDays)
	assert.Equal(t, 3.0, o.Vacation.RedeemedDays)
}

func TestCatalogEndpoints(t *testing.T) {
	srv := hakunatest.NewServer(t)
	srv.SetTasks(hakuna.Task{ID: 1, Name: "Old", Archived: true}, hakuna.Task{ID: 2, Name: "Dev", Default: true})
	srv.SetProjects(hakuna.Project{ID: 9, Name: "Bridge"})
	srv.SetPresence(hakuna.Presence{User: hakuna.PresenceUser{ID: 1, Name: "Robin"}, HasTimerRunning: true})
	srv.SetUsers(hakuna.User{ID: 1, Name: "Robin", Groups: []string{"Dev"}})
	c := srv.Client(t)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	tasks, err := c.Tasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	assert.True(t, tasks[0].Archived)

	projects, err := c.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bridge", projects[0].Name)

	presence, err := c.Presence(ctx)
	require.NoError(t, err)
	require.Len(t, presence, 1)
	assert.True(t, presence[0].HasTimerRunning)

	users, err := c.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, []string{"Dev"}, users[0].Groups)
	assert.Equal(t, 1, srv.Calls(hakunatest.RouteUsers))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		fault      hakunatest.Fault
		want       error
		retryAfter time.Duration
	}{
		{"unauthorized", hakunatest.Fault{Status: http.StatusUnauthorized}, hakuna.ErrAuth, 0},
		{"forbidden", hakunatest.Fault{Status: http.StatusForbidden}, hakuna.ErrAuth, 0},
		{"rate limited", hakunatest.Fault{Status: http.StatusTooManyRequests, RetryAfter: "30"}, hakuna.ErrRateLimited, 30 * time.Second},
		{"server error", hakunatest.Fault{Status: http.StatusBadGateway}, hakuna.ErrTransient, 0},
		{"bad request", hakunatest.Fault{Status: http.StatusBadRequest, Message: "task_id is invalid"}, hakuna.ErrRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := hakunatest.NewServer(t)
			srv.FailNext(hakunatest.RouteOverview, tt.fault)

			_, err := srv.Client(t).GetOverview(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.retryAfter, hakuna.RetryAfter(err))

			var apiErr *hakuna.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.fault.Status, apiErr.StatusCode)
			assert.Equal(t, "/overview", apiErr.Path)
			if tt.fault.Message != "" {
				assert.Equal(t, tt.fault.Message, apiErr.Message)
			}
		})
	}
}

func TestWrongTokenIsAuthError(t *testing.T) {
	srv := hakunatest.NewServer(t)
	cfg := srv.Config()
	cfg.Token = "wrong"
	c, err := hakuna.NewWithConfig(cfg)
	require.NoError(t, err)

	_, err = c.GetTimer(context.Background())
	assert.ErrorIs(t, err, hakuna.ErrAuth)
	assert.Equal(t, "auth", hakuna.Outcome(err))
}

func TestTimeoutIsTransient(t *testing.T) {
	srv := hakunatest.NewServer(t)
	srv.FailNext(hakunatest.RouteGetTimer, hakunatest.Fault{Status: http.StatusOK, Delay: time.Second})
	cfg := srv.Config()
	cfg.Timeout = 50 * time.Millisecond
	c, err := hakuna.NewWithConfig(cfg)
	require.NoError(t, err)

	_, err = c.GetTimer(context.Background())
	assert.ErrorIs(t, err, hakuna.ErrTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNetworkFailureIsTransient(t *testing.T) {
	cfg := hakuna.DefaultConfig()
	cfg.Token = "x"
	cfg.BaseURL = "http://127.0.0.1:1/api/v1"
	c, err := hakuna.NewWithConfig(cfg)
	require.NoError(t, err)

	_, err = c.GetOverview(context.Background())
	assert.ErrorIs(t, err, hakuna.ErrTransient)
}

func TestExchangesAreCaptured(t *testing.T) {
	srv := hakunatest.NewServer(t)
	srv.FailNext(hakunatest.RouteOverview, hakunatest.Fault{Status: http.StatusTooManyRequests, RetryAfter: "12"})
	mem := log.NewMemoryLogger(0)
	cfg := srv.Config()
	cfg.ProtocolLogger = mem
	c, err := hakuna.NewWithConfig(cfg)
	require.NoError(t, err)

	ctx := log.WithCycleID(context.Background(), "cycle-1")
	_, _ = c.GetTimer(ctx)
	_, _ = c.GetOverview(ctx)

	events := mem.Events()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, log.LayerAPI, ev.Layer)
		assert.Equal(t, "cycle-1", ev.CycleID)
		assert.NotEmpty(t, ev.RequestID)
		require.NotNil(t, ev.Exchange)
	}
	assert.Equal(t, "ok", events[0].Exchange.Outcome)
	assert.Equal(t, 200, events[0].Exchange.StatusCode)
	assert.Equal(t, "rate_limited", events[1].Exchange.Outcome)
	assert.Equal(t, 12*time.Second, events[1].Exchange.RetryAfter)
}

func TestUndecodableBodyIsTransient(t *testing.T) {
	srv := http.NewServeMux()
	srv.HandleFunc("/api/v1/overview", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"overtime_in_seconds": "lots"`))
	})
	ts := newHTTPTestServer(t, srv)

	cfg := hakuna.DefaultConfig()
	cfg.Token = "x"
	cfg.BaseURL = ts + "/api/v1/"
	c, err := hakuna.NewWithConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, ts+"/api/v1", c.BaseURL())

	_, err = c.GetOverview(context.Background())
	assert.ErrorIs(t, err, hakuna.ErrTransient)
}
