// Package hakunatest provides an in-process fake of the Hakuna API for tests.
//
// The fake keeps a single timer, an overview and the task/project catalog.
// Tests can count calls per route, inject failures and hold requests at a
// gate to exercise concurrency.
package hakunatest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
)

// Routes, as "<METHOD> <path>" relative to the API base.
const (
	RouteGetTimer    = "GET /timer"
	RouteStartTimer  = "POST /timer"
	RouteStopTimer   = "PUT /timer"
	RouteCancelTimer = "DELETE /timer"
	RouteOverview    = "GET /overview"
	RoutePing        = "GET /ping"
	RouteTasks       = "GET /tasks"
	RouteProjects    = "GET /projects"
	RoutePresence    = "GET /presence"
	RouteUsers       = "GET /users"
)

// DefaultToken is accepted by a Server unless WithToken is used.
const DefaultToken = "test-token"

// Fault is a canned failure response.
type Fault struct {
	Status     int
	RetryAfter string
	Message    string

	// Delay is slept before answering, bounded by the request context.
	Delay time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithToken sets the accepted token.
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithConflictStatus sets the status returned when starting a running
// timer. Hakuna has answered both 409 and 422 over time.
func WithConflictStatus(status int) Option {
	return func(s *Server) { s.conflictStatus = status }
}

// WithIdleNotFound makes GET /timer answer 404 instead of 200 with a null
// date when no timer runs.
func WithIdleNotFound() Option {
	return func(s *Server) { s.idleNotFound = true }
}

// WithClock sets the clock used for timer start and stop times.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// Server is a fake Hakuna API backed by httptest.
type Server struct {
	mu sync.Mutex

	srv            *httptest.Server
	token          string
	conflictStatus int
	idleNotFound   bool
	now            func() time.Time

	timer    *hakuna.Timer
	overview hakuna.Overview
	tasks    []hakuna.Task
	projects []hakuna.Project
	presence []hakuna.Presence
	users    []hakuna.User
	nextID   int64

	calls   map[string]int
	headers map[string]http.Header
	faults  map[string][]Fault
	sticky  map[string]Fault
	gates   map[string]*Gate
	bodies  map[string][]byte
}

// NewServer starts a fake server that is closed when the test ends.
func NewServer(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := &Server{
		token:          DefaultToken,
		conflictStatus: http.StatusConflict,
		now:            func() time.Time { return time.Now().UTC() },
		nextID:         1000,
		calls:          make(map[string]int),
		headers:        make(map[string]http.Header),
		faults:         make(map[string][]Fault),
		sticky:         make(map[string]Fault),
		gates:          make(map[string]*Gate),
		bodies:         make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/", s.handle)
	s.srv = httptest.NewServer(mux)
	t.Cleanup(func() {
		s.ReleaseAll()
		s.srv.Close()
	})
	return s
}

// URL returns the API base URL to pass as hakuna.Config.BaseURL.
func (s *Server) URL() string {
	return s.srv.URL + "/api/v1"
}

// Config returns a client configuration pointing at the fake, in UTC.
func (s *Server) Config() hakuna.Config {
	cfg := hakuna.DefaultConfig()
	cfg.BaseURL = s.URL()
	cfg.Token = s.token
	cfg.Location = time.UTC
	cfg.Timeout = 5 * time.Second
	return cfg
}

// Client returns a client for the fake.
func (s *Server) Client(t testing.TB) *hakuna.Client {
	t.Helper()
	c, err := hakuna.NewWithConfig(s.Config())
	if err != nil {
		t.Fatalf("hakunatest: client: %v", err)
	}
	return c
}

// SetOverview replaces the overview payload.
func (s *Server) SetOverview(o hakuna.Overview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overview = o
}

// SetOvertime sets the overview from minutes and vacation days.
func (s *Server) SetOvertime(minutes int, remaining, taken float64) {
	s.SetOverview(hakuna.Overview{
		Overtime:          formatHM(minutes),
		OvertimeInSeconds: int64(minutes) * 60,
		Vacation:          hakuna.Vacation{RedeemedDays: taken, RemainingDays: remaining},
	})
}

// SetTasks replaces the task catalog.
func (s *Server) SetTasks(tasks ...hakuna.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
}

// SetProjects replaces the project catalog.
func (s *Server) SetProjects(projects ...hakuna.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = projects
}

// SetPresence replaces the presence list.
func (s *Server) SetPresence(p ...hakuna.Presence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence = p
}

// SetUsers replaces the managed user list.
func (s *Server) SetUsers(users ...hakuna.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
}

// StartElsewhere makes a timer run as if started by another client.
func (s *Server) StartElsewhere(startedAt time.Time, project, task *hakuna.Ref, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = &hakuna.Timer{
		Date:      startedAt.Format("2006-01-02"),
		StartTime: startedAt.Format("15:04"),
		Note:      note,
		Project:   project,
		Task:      task,
	}
}

// StopElsewhere clears the timer as if stopped by another client.
func (s *Server) StopElsewhere() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = nil
}

// Timer returns the fake's timer and whether it runs.
func (s *Server) Timer() (hakuna.Timer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return hakuna.Timer{}, false
	}
	return *s.timer, true
}

// Calls returns how many requests reached route, including failed ones.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// TotalCalls returns the number of requests across all routes.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// LastHeader returns the headers of the last request to route.
func (s *Server) LastHeader(route string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[route].Clone()
}

// LastBody returns the body of the last request to route.
func (s *Server) LastBody(route string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.bodies[route]...)
}

// FailNext queues a one-shot failure for route. Queued faults are consumed
// in order.
func (s *Server) FailNext(route string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[route] = append(s.faults[route], f)
}

// FailAlways makes every request to route fail until Heal is called.
func (s *Server) FailAlways(route string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sticky[route] = f
}

// Heal removes all queued and sticky faults.
func (s *Server) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string][]Fault)
	s.sticky = make(map[string]Fault)
}

// Hold installs a gate on route. Requests to route block after being
// counted until the gate is released.
func (s *Server) Hold(route string) *Gate {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &Gate{entered: make(chan struct{}, 64), release: make(chan struct{})}
	s.gates[route] = g
	return g
}

// ReleaseAll opens every gate.
func (s *Server) ReleaseAll() {
	s.mu.Lock()
	gates := s.gates
	s.gates = make(map[string]*Gate)
	s.mu.Unlock()
	for _, g := range gates {
		g.Release()
	}
}

// Gate blocks requests to one route.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Entered receives once per request that reached the gate.
func (g *Gate) Entered() <-chan struct{} {
	return g.entered
}

// Release lets all current and future requests through.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path[len("/api/v1"):]
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.calls[route]++
	s.headers[route] = r.Header.Clone()
	s.bodies[route] = body
	gate := s.gates[route]
	fault, hasFault := s.nextFault(route)
	s.mu.Unlock()

	if gate != nil {
		select {
		case gate.entered <- struct{}{}:
		default:
		}
		select {
		case <-gate.release:
		case <-r.Context().Done():
			return
		}
	}

	if r.Header.Get("X-Auth-Token") != s.token {
		writeError(w, http.StatusUnauthorized, "", "Invalid API token")
		return
	}

	if hasFault {
		if fault.Delay > 0 {
			select {
			case <-time.After(fault.Delay):
			case <-r.Context().Done():
				return
			}
		}
		writeError(w, fault.Status, fault.RetryAfter, fault.Message)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch route {
	case RouteGetTimer:
		if s.timer == nil {
			if s.idleNotFound {
				writeError(w, http.StatusNotFound, "", "No timer running")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"date": nil, "start_time": nil, "duration": nil})
			return
		}
		t := s.withDuration(*s.timer)
		writeJSON(w, http.StatusOK, t)

	case RouteStartTimer:
		if s.timer != nil {
			writeError(w, s.conflictStatus, "", "A timer is already running")
			return
		}
		var req hakuna.StartTimerRequest
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, http.StatusBadRequest, "", "invalid body")
				return
			}
		}
		now := s.now()
		t := &hakuna.Timer{
			Date:      now.Format("2006-01-02"),
			StartTime: now.Format("15:04"),
		}
		if req.TaskID != nil {
			t.Task = s.taskRef(*req.TaskID)
		}
		if req.ProjectID != nil {
			t.Project = s.projectRef(*req.ProjectID)
		}
		if req.Note != nil {
			t.Note = *req.Note
		}
		s.timer = t
		writeJSON(w, http.StatusCreated, t)

	case RouteStopTimer:
		if s.timer == nil {
			writeError(w, http.StatusNotFound, "", "No timer running")
			return
		}
		t := s.withDuration(*s.timer)
		s.nextID++
		entry := hakuna.TimeEntry{
			ID:                s.nextID,
			Date:              t.Date,
			StartTime:         t.StartTime,
			EndTime:           s.now().Format("15:04"),
			Duration:          t.Duration,
			DurationInSeconds: t.DurationInSeconds,
			Note:              t.Note,
			Task:              t.Task,
			Project:           t.Project,
		}
		s.timer = nil
		writeJSON(w, http.StatusOK, entry)

	case RouteCancelTimer:
		if s.timer == nil {
			writeError(w, http.StatusNotFound, "", "No timer running")
			return
		}
		s.timer = nil
		w.WriteHeader(http.StatusNoContent)

	case RouteOverview:
		writeJSON(w, http.StatusOK, s.overview)

	case RoutePing:
		writeJSON(w, http.StatusOK, map[string]string{"pong": s.now().Format(time.RFC3339)})

	case RouteTasks:
		writeJSON(w, http.StatusOK, nonNil(s.tasks))

	case RouteProjects:
		writeJSON(w, http.StatusOK, nonNil(s.projects))

	case RoutePresence:
		writeJSON(w, http.StatusOK, nonNil(s.presence))

	case RouteUsers:
		writeJSON(w, http.StatusOK, nonNil(s.users))

	default:
		writeError(w, http.StatusNotFound, "", "not found")
	}
}

// nextFault pops a queued fault or returns the sticky one. Caller holds mu.
func (s *Server) nextFault(route string) (Fault, bool) {
	if q := s.faults[route]; len(q) > 0 {
		s.faults[route] = q[1:]
		return q[0], true
	}
	f, ok := s.sticky[route]
	return f, ok
}

func (s *Server) withDuration(t hakuna.Timer) hakuna.Timer {
	started, err := time.ParseInLocation("2006-01-02 15:04", t.Date+" "+t.StartTime, s.now().Location())
	if err != nil {
		return t
	}
	d := s.now().Sub(started)
	if d < 0 {
		d = 0
	}
	t.DurationInSeconds = d.Truncate(time.Second).Seconds()
	t.Duration = formatHM(int(d / time.Minute))
	return t
}

func (s *Server) taskRef(id int64) *hakuna.Ref {
	for _, t := range s.tasks {
		if t.ID == id {
			return &hakuna.Ref{ID: t.ID, Name: t.Name}
		}
	}
	return &hakuna.Ref{ID: id}
}

func (s *Server) projectRef(id int64) *hakuna.Ref {
	for _, p := range s.projects {
		if p.ID == id {
			return &hakuna.Ref{ID: p.ID, Name: p.Name}
		}
	}
	return &hakuna.Ref{ID: id}
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func formatHM(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	h := strconv.Itoa(minutes / 60)
	if len(h) < 2 {
		h = "0" + h
	}
	m := strconv.Itoa(minutes % 60)
	if len(m) < 2 {
		m = "0" + m
	}
	return sign + h + ":" + m
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, retryAfter, message string) {
	if retryAfter != "" {
		w.Header().Set("Retry-After", retryAfter)
	}
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"message": message})
}
