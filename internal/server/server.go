package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/motionbench/internal/bench"
	"github.com/cwbudde/motionbench/internal/store"
)

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	runStore   store.Store
	addr       string
	server     *http.Server

	// EventInterval throttles per-pair SSE progress events.
	EventInterval time.Duration
}

// NewServer creates a new HTTP server. runStore may be nil, in which case
// jobs are never persisted and the history endpoints return 404.
func NewServer(addr string, runStore store.Store) *Server {
	return &Server{
		jobManager:    NewJobManager(),
		runStore:      runStore,
		addr:          addr,
		EventInterval: DefaultEventInterval,
	}
}

// Handler returns the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)

	mux.HandleFunc("/api/v1/runs", s.handleJobs)
	mux.HandleFunc("/api/v1/runs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/history", s.handleHistory)
	mux.HandleFunc("/api/v1/history/", s.handleHistoryWithID)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels running jobs and gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	for _, job := range s.jobManager.GetRunningJobs() {
		s.jobManager.Cancel(job.ID)
	}
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleIndex handles GET / with a description of the API.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service":    "motionbench",
		"strategies": bench.StrategyNames(),
		"endpoints": []string{
			"POST /api/v1/runs",
			"GET /api/v1/runs",
			"GET /api/v1/runs/{id}",
			"DELETE /api/v1/runs/{id}",
			"GET /api/v1/runs/{id}/events",
			"GET /api/v1/runs/{id}/predicted.png",
			"GET /api/v1/runs/{id}/residual.png",
			"GET /api/v1/history",
			"GET /api/v1/history/{id}",
			"GET /api/v1/history/{id}/trace",
		},
	})
}

// handleJobs handles /api/v1/runs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/runs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Run ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.handleCancelJob(w, r, jobID)
	case len(parts) == 1 || parts[1] == "status":
		s.handleGetJobStatus(w, r, jobID)
	case parts[1] == "events":
		s.handleJobStream(w, r, jobID)
	case parts[1] == "predicted.png":
		s.handlePredictedImage(w, r, jobID, false)
	case parts[1] == "residual.png":
		s.handlePredictedImage(w, r, jobID, true)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCreateJob handles POST /api/v1/runs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if req.Source == "" {
		http.Error(w, "source is required", http.StatusBadRequest)
		return
	}
	if len(req.Strategies) == 0 {
		req.Strategies = bench.DefaultStrategies
	}
	names := make([]string, len(req.Strategies))
	for i, name := range req.Strategies {
		canon, err := bench.CanonicalName(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		names[i] = canon
	}
	req.Strategies = names

	cfg := bench.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := s.jobManager.CreateJob(req, cfg)

	ctx := s.jobManager.Start(context.Background(), job.ID)
	go func() {
		defer s.jobManager.Finish(job.ID)
		runJob(ctx, s.jobManager, s.runStore, job.ID, s.EventInterval)
	}()

	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/runs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleGetJobStatus handles GET /api/v1/runs/:id
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":        job.ID,
		"state":     job.State,
		"request":   job.Request,
		"config":    job.Config,
		"progress":  job.Progress,
		"results":   job.Results,
		"runId":     job.RunID,
		"elapsed":   elapsed.Seconds(),
		"startTime": job.StartTime,
		"endTime":   job.EndTime,
		"error":     job.Error,
	})
}

// handleCancelJob handles DELETE /api/v1/runs/:id
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, exists := s.jobManager.GetJob(jobID); !exists {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if !s.jobManager.Cancel(jobID) {
		http.Error(w, "Run is not active", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handlePredictedImage serves the latest predicted frame of a job, or its
// residual against the current frame.
func (s *Server) handlePredictedImage(w http.ResponseWriter, r *http.Request, jobID string, residual bool) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if job.predicted == nil {
		http.Error(w, "No results yet", http.StatusNotFound)
		return
	}

	img := job.predicted.Predicted.Gray()
	if residual {
		img = residualImage(job.predicted.Current, job.predicted.Predicted)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Strategy", job.predicted.Strategy)
	w.Header().Set("X-Pair", fmt.Sprint(job.predicted.Pair))
	if err := png.Encode(w, img); err != nil {
		slog.Error("Failed to encode PNG", "error", err)
	}
}

// handleHistory handles GET /api/v1/history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.runStore == nil {
		http.Error(w, "Run history disabled", http.StatusNotFound)
		return
	}

	infos, err := s.runStore.ListRuns()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleHistoryWithID handles /api/v1/history/:id and /api/v1/history/:id/trace
func (s *Server) handleHistoryWithID(w http.ResponseWriter, r *http.Request) {
	if s.runStore == nil {
		http.Error(w, "Run history disabled", http.StatusNotFound)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/v1/history/"), "/")
	runID := parts[0]
	if runID == "" {
		http.Error(w, "Run ID required", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.runStore.DeleteRun(runID); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 1:
		run, err := s.runStore.LoadRun(runID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)

	case parts[1] == "trace":
		tr, err := s.runStore.OpenTrace(runID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		defer tr.Close()
		entries, err := tr.ReadAll()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)

	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
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
