package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hakuna-bridge/hakuna-go/pkg/coordinator"
	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
	"github.com/hakuna-bridge/hakuna-go/pkg/snapshot"
	"github.com/hakuna-bridge/hakuna-go/pkg/subscription"
	"github.com/hakuna-bridge/hakuna-go/pkg/timer"
	"github.com/hakuna-bridge/hakuna-go/pkg/version"
)

// APIPath is the prefix of every adapter route.
const APIPath = "/api/" + version.APIVersion

const maxBodyBytes = 64 << 10

// Bridge is the part of the coordinator the HTTP adapter serves.
type Bridge interface {
	Snapshot() snapshot.Snapshot
	Subscribe() (*subscription.Subscription, error)
	Health() coordinator.Health
	StartTimer(ctx context.Context, opts timer.StartOptions) (timer.Result, error)
	StopTimer(ctx context.Context) (timer.Result, error)
	CancelTimer(ctx context.Context) (timer.Result, error)
	ForceRefresh(ctx context.Context) (snapshot.Snapshot, error)
	Team(ctx context.Context) ([]coordinator.TeamMember, error)
}

var _ Bridge = (*coordinator.Coordinator)(nil)

// ServerConfig holds configuration for the HTTP adapter.
type ServerConfig struct {
	Listen  string
	Version string

	// KeepAlive is the SSE comment interval. Zero disables keep-alives.
	KeepAlive time.Duration

	Logger *slog.Logger
}

// Server exposes a Bridge over HTTP and SSE.
type Server struct {
	config ServerConfig
	bridge Bridge
	mux    *http.ServeMux
	server *http.Server
	logger *slog.Logger

	// For testing
	timeNow func() time.Time
}

// NewServer creates a server for bridge.
func NewServer(bridge Bridge, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		config:  cfg,
		bridge:  bridge,
		mux:     http.NewServeMux(),
		logger:  logger,
		timeNow: time.Now,
	}
	s.registerRoutes()
	s.server = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc(APIPath+"/health", s.handleHealth)
	s.mux.HandleFunc(APIPath+"/snapshot", s.handleSnapshot)
	s.mux.HandleFunc(APIPath+"/events", s.handleEvents)
	s.mux.HandleFunc(APIPath+"/timer/start", s.handleStart)
	s.mux.HandleFunc(APIPath+"/timer/stop", s.handleStop)
	s.mux.HandleFunc(APIPath+"/timer/cancel", s.handleCancel)
	s.mux.HandleFunc(APIPath+"/refresh", s.handleRefresh)
	s.mux.HandleFunc(APIPath+"/team", s.handleTeam)
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Listen opens the configured address. The returned listener reports the
// actual port when Listen ends in ":0".
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.config.Listen, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	err := s.server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully. Open event streams end when the
// coordinator closes its subscriptions or ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string    `json:"status"`
	Health     string    `json:"health"`
	Version    string    `json:"version"`
	APIVersion string    `json:"api_version"`
	Seq        uint64    `json:"seq"`
	FetchedAt  time.Time `json:"fetched_at,omitzero"`
}

// SnapshotResponse is a snapshot plus display values.
type SnapshotResponse struct {
	snapshot.Snapshot

	Overtime       string `json:"overtime"`
	ElapsedSeconds int64  `json:"elapsed_seconds,omitempty"`
	Error          string `json:"error,omitempty"`
}

// StartRequest is the body of POST /timer/start. All fields are optional.
type StartRequest struct {
	Project string `json:"project"`
	Task    string `json:"task"`
	Note    string `json:"note"`
}

// ActionResponse reports a timer transition and the snapshot after it.
type ActionResponse struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Reconciled bool              `json:"reconciled"`
	Entry      *hakuna.TimeEntry `json:"entry,omitempty"`
	Snapshot   SnapshotResponse  `json:"snapshot"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	v := s.config.Version
	if v == "" {
		v = version.Current
	}

	h := s.bridge.Health()
	snap := s.bridge.Snapshot()
	status := "ok"
	switch h {
	case coordinator.HealthDegraded:
		status = "degraded"
	case coordinator.HealthAuthFailed:
		status = "reauth_required"
	case coordinator.HealthClosed:
		status = "closed"
	}

	code := http.StatusOK
	if h == coordinator.HealthClosed {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:     status,
		Health:     h.String(),
		Version:    v,
		APIVersion: version.APIVersion,
		Seq:        snap.Seq,
		FetchedAt:  snap.FetchedAt,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.view(s.bridge.Snapshot()))
}

// TeamResponse lists today's presence of the team.
type TeamResponse struct {
	Members []coordinator.TeamMember `json:"members"`
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	members, err := s.bridge.Team(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if members == nil {
		members = []coordinator.TeamMember{}
	}
	writeJSON(w, http.StatusOK, TeamResponse{Members: members})
}

// handleEvents streams every published snapshot as Server-Sent Events.
// The first event is the current snapshot.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	sub, err := s.bridge.Subscribe()
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer sub.Unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.logger.Debug("event stream opened", "subscription", sub.ID, "remote", r.RemoteAddr)
	defer s.logger.Debug("event stream closed", "subscription", sub.ID)

	var keepAlive <-chan time.Time
	if s.config.KeepAlive > 0 {
		ticker := time.NewTicker(s.config.KeepAlive)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case n, ok := <-sub.C:
			if !ok {
				fmt.Fprintf(w, "event: closed\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			data, err := json.Marshal(s.view(n.Snapshot))
			if err != nil {
				s.logger.Warn("encode snapshot", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", n.Snapshot.Seq, data)
			flusher.Flush()

		case <-keepAlive:
			fmt.Fprintf(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}

	var req StartRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := s.bridge.StartTimer(r.Context(), timer.StartOptions{
		Project: strings.TrimSpace(req.Project),
		Task:    strings.TrimSpace(req.Task),
		Note:    req.Note,
	})
	s.writeAction(w, "start", res, err)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	res, err := s.bridge.StopTimer(r.Context())
	s.writeAction(w, "stop", res, err)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	res, err := s.bridge.CancelTimer(r.Context())
	s.writeAction(w, "cancel", res, err)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	snap, err := s.bridge.ForceRefresh(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(snap))
}

func (s *Server) writeAction(w http.ResponseWriter, action string, res timer.Result, err error) {
	if err != nil {
		s.logger.Info("timer action failed", "action", action, "error", err)
		s.writeError(w, err)
		return
	}
	s.logger.Info("timer action", "action", action, "from", res.From, "to", res.To, "reconciled", res.Reconciled)
	writeJSON(w, http.StatusOK, ActionResponse{
		From:       res.From.String(),
		To:         res.To.String(),
		Reconciled: res.Reconciled,
		Entry:      res.Entry,
		Snapshot:   s.view(s.bridge.Snapshot()),
	})
}

func (s *Server) view(snap snapshot.Snapshot) SnapshotResponse {
	v := SnapshotResponse{
		Snapshot: snap,
		Overtime: snap.Overview.Overtime(),
		Error:    snap.ErrorText(),
	}
	if snap.Timer.Running {
		v.ElapsedSeconds = int64(snap.Timer.ElapsedAt(s.timeNow()) / time.Second)
	}
	return v
}

// writeError maps err onto a status code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusTooManyRequests {
		if d := coordinator.RetryAfter(err); d > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
		}
	}
	resp := ErrorResponse{Error: err.Error(), Kind: hakuna.Outcome(err)}
	switch {
	case errors.Is(err, timer.ErrAlreadyRunning):
		resp.Kind = "already_running"
	case errors.Is(err, timer.ErrUnknownTask), errors.Is(err, timer.ErrUnknownProject):
		resp.Kind = "unknown_argument"
	case errors.Is(err, coordinator.ErrClosed), errors.Is(err, subscription.ErrClosed):
		resp.Kind = "closed"
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, timer.ErrAlreadyRunning), errors.Is(err, hakuna.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, timer.ErrUnknownTask), errors.Is(err, timer.ErrUnknownProject),
		errors.Is(err, hakuna.ErrRequest):
		return http.StatusBadRequest
	case errors.Is(err, hakuna.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, hakuna.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, hakuna.ErrTransient):
		return http.StatusBadGateway
	case errors.Is(err, coordinator.ErrClosed), errors.Is(err, subscription.ErrClosed),
		errors.Is(err, subscription.ErrTooManySubscribers):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	return false
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}
