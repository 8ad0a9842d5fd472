package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mdc/internal/processor"
)

// Job states.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// JobRequest is the POST /api/jobs body.
type JobRequest struct {
	Files        []string `json:"files"`
	Mode         int      `json:"mode,omitempty"`
	LinkMode     *int     `json:"link_mode,omitempty"`
	OutputFolder string   `json:"output_folder,omitempty"`
	LocationRule string   `json:"location_rule,omitempty"`
	NamingRule   string   `json:"naming_rule,omitempty"`
	Concurrent   int      `json:"concurrent,omitempty"`
}

// Job is one queued batch run.
type Job struct {
	ID         string              `json:"id"`
	Status     string              `json:"status"`
	Request    JobRequest          `json:"request"`
	Results    []*processor.Result `json:"results,omitempty"`
	Stats      *processor.Stats    `json:"stats,omitempty"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`

	cancel context.CancelFunc
}

// FailedPaths lists the inputs this job could not process.
func (j *Job) FailedPaths() []string {
	var out []string
	for _, res := range j.Results {
		if res.Status == processor.StatusFailed {
			out = append(out, res.Path)
		}
	}
	return out
}

// JobStore is the in-memory job table.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewJobStore creates an empty store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create registers a new pending job for a request.
func (s *JobStore) Create(req JobRequest) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobPending,
		Request:   req,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Get returns a job by ID.
func (s *JobStore) Get(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

// List returns all jobs, newest first.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Update mutates a job under the store lock.
func (s *JobStore) Update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

// Snapshot returns a copy of a job safe for JSON encoding while the
// job keeps running.
func (s *JobStore) Snapshot(id string) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	cp := *job
	cp.Results = append([]*processor.Result(nil), job.Results...)
	return &cp, true
}

// Totals aggregates finished-job statistics.
func (s *JobStore) Totals() *processor.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := &processor.Stats{}
	for _, job := range s.jobs {
		if job.Stats == nil {
			continue
		}
		total.Total += job.Stats.Total
		total.Succeeded += job.Stats.Succeeded
		total.Failed += job.Stats.Failed
		total.Skipped += job.Stats.Skipped
	}
	return total
}
