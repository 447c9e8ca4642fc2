package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/atomic"
)

// Status holds the scheduler counters served by the status server.
type Status struct {
	runID string

	ready        atomic.Bool
	cycles       atomic.Uint64
	failedCycles atomic.Uint64
	pingsOK      atomic.Uint64
	pingsFailed  atomic.Uint64
	lastCycle    atomic.Int64
}

// NewStatus creates empty counters for a run.
func NewStatus(runID string) *Status {
	return &Status{runID: runID}
}

// StatusSnapshot is a point-in-time copy of Status.
type StatusSnapshot struct {
	RunID        string `json:"run_id"`
	Ready        bool   `json:"ready"`
	Cycles       uint64 `json:"cycles"`
	FailedCycles uint64 `json:"failed_cycles"`
	PingsOK      uint64 `json:"pings_ok"`
	PingsFailed  uint64 `json:"pings_failed"`
	// LastCycle is the unix time the last cycle finished, zero before the first.
	LastCycle int64 `json:"last_cycle"`
}

func (s *Status) Snapshot() StatusSnapshot {
	return StatusSnapshot{
		RunID:        s.runID,
		Ready:        s.ready.Load(),
		Cycles:       s.cycles.Load(),
		FailedCycles: s.failedCycles.Load(),
		PingsOK:      s.pingsOK.Load(),
		PingsFailed:  s.pingsFailed.Load(),
		LastCycle:    s.lastCycle.Load(),
	}
}

type StatusServerConfig struct {
	ListenAddr string
	Log        *slog.Logger

	GracefulShutdownDuration time.Duration
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
}

// StatusServer serves liveness, readiness and counters of a running daemon.
type StatusServer struct {
	cfg    *StatusServerConfig
	status *Status
	log    *slog.Logger

	srv *http.Server
}

func NewStatusServer(cfg *StatusServerConfig, status *Status) *StatusServer {
	srv := &StatusServer{
		cfg:    cfg,
		status: status,
		log:    cfg.Log,
	}
	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return srv
}

func (srv *StatusServer) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.With(srv.httpLogger).Get("/livez", srv.handleLivenessCheck)
	mux.With(srv.httpLogger).Get("/readyz", srv.handleReadinessCheck)
	mux.With(srv.httpLogger).Get("/status", srv.handleStatus)
	return mux
}

func (srv *StatusServer) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.log, next)
}

func (srv *StatusServer) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

func (srv *StatusServer) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !srv.status.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (srv *StatusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(srv.status.Snapshot()); err != nil {
		srv.log.Error("Failed to encode status", "err", err)
	}
}

func (srv *StatusServer) RunInBackground() {
	go func() {
		srv.log.Info("Starting status server", "listenAddress", srv.cfg.ListenAddr)
		if err := srv.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.log.Error("Status server failed", "err", err)
		}
	}()
}

func (srv *StatusServer) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.log.Error("Graceful status server shutdown failed", "err", err)
	} else {
		srv.log.Info("Status server gracefully stopped")
	}
}
