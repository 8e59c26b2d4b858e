// Package server exposes the optimizer over HTTP: background benchmark jobs
// with an SSE progress stream, and ask/tell sessions that let a remote caller
// sample solutions, evaluate them elsewhere and report the values back.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bgbg/asop/internal/store"
)

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	sessions   *SessionManager
	store      store.Store
	addr       string
	server     *http.Server

	// jobCtx is the parent of every job context; Shutdown cancels it
	jobCtx    context.Context
	cancelAll context.CancelFunc
}

// NewServer creates a new HTTP server. st may be nil, in which case snapshots
// are neither saved nor loaded.
func NewServer(addr string, st store.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		jobManager: NewJobManager(),
		sessions:   NewSessionManager(st),
		store:      st,
		addr:       addr,
		jobCtx:     ctx,
		cancelAll:  cancel,
	}
}

// Handler returns the routed handler wrapped with middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)

	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/sessions", s.handleSessions)
	mux.HandleFunc("/api/v1/sessions/", s.handleSessionsWithID)
	mux.HandleFunc("/api/v1/snapshots", s.handleListSnapshots)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels running jobs and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "running_jobs", len(s.jobManager.GetRunningJobs()))
	s.cancelAll()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/"), "/")
	if parts[0] == "" {
		writeError(w, http.StatusBadRequest, "job ID required")
		return
	}
	jobID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleCancelJob(w, r, jobID)
	case r.Method != http.MethodGet:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	case len(parts) == 1 || parts[1] == "status":
		s.handleGetJobStatus(w, r, jobID)
	case parts[1] == "stream":
		s.handleJobStream(w, r, jobID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var config JobConfig
	if err := decodeJSON(w, r, &config); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	config.applyDefaults()

	// Reject bad benchmarks, directions and scalings before starting the worker
	if _, err := newJobOptimizer(config); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job := s.jobManager.CreateJob(config)

	ctx, cancel := context.WithCancel(s.jobCtx)
	s.jobManager.setCancel(job.ID, cancel)
	go runJob(ctx, s.jobManager, s.store, job.ID)

	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// jobStatus is the job view with derived throughput.
type jobStatus struct {
	*Job
	Elapsed float64 `json:"elapsed"` // seconds
	EPS     float64 `json:"eps"`
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	eps := 0.0
	if elapsed.Seconds() > 0 {
		eps = float64(job.Evaluations) / elapsed.Seconds()
	}

	writeJSON(w, http.StatusOK, jobStatus{Job: job, Elapsed: elapsed.Seconds(), EPS: eps})
}

// handleCancelJob handles DELETE /api/v1/jobs/:id
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, exists := s.jobManager.GetJob(jobID); !exists {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if !s.jobManager.CancelJob(jobID) {
		writeError(w, http.StatusConflict, "job already finished")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleListSnapshots handles GET /api/v1/snapshots
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore.Error())
		return
	}
	infos, err := s.store.ListSnapshots()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
