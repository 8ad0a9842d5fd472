// Package server exposes the collaborator HTTP surface: job control,
// scanning, configuration, and a websocket progress stream.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mdc/internal/config"
	"mdc/internal/processor"
	"mdc/internal/scanner"
)

// ProcessorFactory builds a processor for one job's effective
// configuration.
type ProcessorFactory func(cfg *config.Config) (*processor.Processor, error)

// Server wires the HTTP surface over the batch coordinator.
type Server struct {
	cfgMu   sync.RWMutex
	cfg     *config.Config
	factory ProcessorFactory
	store   *JobStore
	hub     *Hub
	router  chi.Router

	upgrader websocket.Upgrader
}

// New creates a server around a base configuration and a processor
// factory.
func New(cfg *config.Config, factory ProcessorFactory) *Server {
	s := &Server{
		cfg:     cfg,
		factory: factory,
		store:   NewJobStore(),
		hub:     NewHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler for mounting or serving.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks serving the configured address.
func (s *Server) ListenAndServe() error {
	addr := s.baseConfig().Server.Addr()
	logrus.WithField("addr", addr).Info("http surface listening")
	return http.ListenAndServe(addr, s.router)
}

// baseConfig copies the shared configuration under the read lock;
// POST /api/config swaps it while jobs and scans are in flight.
func (s *Server) baseConfig() config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return *s.cfg
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/jobs", s.handleCreateJob)
		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Post("/jobs/{id}/cancel", s.handleCancelJob)
		r.Post("/jobs/{id}/retry", s.handleRetryJob)
		r.Post("/scan", s.handleScan)
		r.Get("/config", s.handleGetConfig)
		r.Post("/config", s.handleSetConfig)
		r.Get("/stats", s.handleStats)
	})
	r.Get("/ws/progress", s.handleProgress)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Files) == 0 {
		writeError(w, http.StatusBadRequest, "files is required")
		return
	}

	job, err := s.startJob(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// startJob registers the job and launches its batch run.
func (s *Server) startJob(req JobRequest) (*Job, error) {
	jobCfg := s.effectiveConfig(req)
	proc, err := s.factory(jobCfg)
	if err != nil {
		return nil, err
	}

	job := s.store.Create(req)
	ctx, cancel := context.WithCancel(context.Background())
	s.store.Update(job.ID, func(j *Job) { j.cancel = cancel })

	go s.runJob(ctx, job.ID, proc, req.Files)
	snap, _ := s.store.Snapshot(job.ID)
	return snap, nil
}

func (s *Server) runJob(ctx context.Context, jobID string, proc *processor.Processor, files []string) {
	now := nowPtr()
	s.store.Update(jobID, func(j *Job) {
		j.Status = JobRunning
		j.StartedAt = now
	})
	s.hub.Broadcast(Event{Type: EventJobStarted, JobID: jobID, Total: len(files)})

	proc.SetFileStartHook(func(path string) {
		s.hub.Broadcast(Event{Type: EventFileStarted, JobID: jobID, Path: path})
	})
	results, stats := proc.ProcessBatch(ctx, files, func(completed, total int) {
		s.hub.Broadcast(Event{
			Type:      EventFileCompleted,
			JobID:     jobID,
			Completed: completed,
			Total:     total,
		})
	})

	finished := nowPtr()
	status := JobCompleted
	switch {
	case ctx.Err() != nil:
		status = JobCancelled
	case stats.Failed == stats.Total && stats.Total > 0:
		status = JobFailed
	}
	s.store.Update(jobID, func(j *Job) {
		j.Status = status
		j.Results = results
		j.Stats = stats
		j.FinishedAt = finished
	})

	evType := EventJobCompleted
	if status == JobFailed {
		evType = EventJobFailed
	}
	s.hub.Broadcast(Event{Type: evType, JobID: jobID, Stats: stats})
}

// effectiveConfig clones the base configuration with the request's
// overrides applied.
func (s *Server) effectiveConfig(req JobRequest) *config.Config {
	cfg := s.baseConfig()
	if req.Mode != 0 {
		cfg.Common.MainMode = req.Mode
	}
	if req.LinkMode != nil {
		cfg.Common.LinkMode = *req.LinkMode
	}
	if req.OutputFolder != "" {
		cfg.Common.SuccessOutputFolder = req.OutputFolder
	}
	if req.LocationRule != "" {
		cfg.NameRule.LocationRule = req.LocationRule
	}
	if req.NamingRule != "" {
		cfg.NameRule.NamingRule = req.NamingRule
	}
	if req.Concurrent > 0 {
		cfg.Common.MultiThreading = req.Concurrent
	}
	return &cfg
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.store.List()
	out := make([]*Job, 0, len(jobs))
	for _, job := range jobs {
		if snap, ok := s.store.Snapshot(job.ID); ok {
			out = append(out, snap)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.store.Snapshot(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if job.cancel != nil {
		job.cancel()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

func (s *Server) handleRetryJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.store.Snapshot(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	files := job.FailedPaths()
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "job has no failed files")
		return
	}

	req := job.Request
	req.Files = files
	retry, err := s.startJob(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, retry)
}

// ScanRequest is the POST /api/scan body.
type ScanRequest struct {
	Path       string   `json:"path"`
	MediaTypes []string `json:"media_types,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		writeError(w, http.StatusBadRequest, "path does not exist")
		return
	}

	cfg := s.baseConfig()
	cfg.Common.SourceFolder = req.Path
	if len(req.MediaTypes) > 0 {
		cfg.Media.MediaType = strings.Join(req.MediaTypes, ",")
	}
	sc, err := scanner.New(&cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	paths, stats, err := sc.Scan()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"files": paths,
		"stats": stats,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.baseConfig()
	writeJSON(w, http.StatusOK, &cfg)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	updated := s.baseConfig()
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := updated.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.cfgMu.Lock()
	*s.cfg = updated
	s.cfgMu.Unlock()
	writeJSON(w, http.StatusOK, &updated)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Totals())
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Debugf("websocket upgrade failed: %v", err)
		return
	}
	s.hub.Add(conn)

	// Reads only detect disconnects; clients never send payloads.
	go func() {
		defer s.hub.Remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Debugf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
