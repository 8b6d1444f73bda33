package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/motionbench/internal/bench"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// JobRequest is the body of POST /api/v1/runs.
type JobRequest struct {
	Source     string        `json:"source"`
	Strategies []string      `json:"strategies,omitempty"`
	Config     *bench.Config `json:"config,omitempty"`
	MaxFrames  int           `json:"maxFrames,omitempty"`
	Save       bool          `json:"save,omitempty"`
}

// Progress is the position of a running job.
type Progress struct {
	Strategy string `json:"strategy,omitempty"`
	// Done counts finished strategies out of Total.
	Done  int `json:"done"`
	Total int `json:"total"`
	// Pair is the last finished frame pair of Strategy, out of Pairs.
	Pair  int     `json:"pair"`
	Pairs int     `json:"pairs"`
	PSNR  float64 `json:"psnr"`
}

// Job represents a benchmark run submitted over HTTP
type Job struct {
	ID        string                  `json:"id"`
	State     JobState                `json:"state"`
	Request   JobRequest              `json:"request"`
	Config    bench.Config            `json:"config"`
	Progress  Progress                `json:"progress"`
	Results   []bench.AlgorithmResult `json:"results,omitempty"`
	RunID     string                  `json:"runId,omitempty"` // stored run, when saved
	StartTime time.Time               `json:"startTime"`
	EndTime   *time.Time              `json:"endTime,omitempty"`
	Error     string                  `json:"error,omitempty"`

	predicted *predictedFrame
}

// JobManager manages the lifecycle of jobs
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	cancels     map[string]context.CancelFunc
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		cancels:     make(map[string]context.CancelFunc),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob registers a pending job for req, resolved against cfg, and
// returns a snapshot of it.
func (jm *JobManager) CreateJob(req JobRequest, cfg bench.Config) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Request:   req,
		Config:    cfg,
		Progress:  Progress{Total: len(req.Strategies)},
		StartTime: time.Now(),
	}

	jm.jobs[job.ID] = job
	snapshot := *job
	return &snapshot
}

// GetJob returns a snapshot of the job with the given ID.
func (jm *JobManager) GetJob(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// ListJobs returns snapshots of all jobs, oldest first.
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}
	sortJobs(jobs)
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]*Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			snapshot := *job
			runningJobs = append(runningJobs, &snapshot)
		}
	}
	return runningJobs
}

// Start derives a cancellable context for the job from parent.
func (jm *JobManager) Start(parent context.Context, id string) context.Context {
	ctx, cancel := context.WithCancel(parent)
	jm.mu.Lock()
	jm.cancels[id] = cancel
	jm.mu.Unlock()
	return ctx
}

// Finish releases the job's context.
func (jm *JobManager) Finish(id string) {
	jm.mu.Lock()
	cancel, ok := jm.cancels[id]
	delete(jm.cancels, id)
	jm.mu.Unlock()
	if ok {
		cancel()
	}
}

// Cancel stops a started job. It reports false if the job is not running.
func (jm *JobManager) Cancel(id string) bool {
	jm.mu.RLock()
	cancel, ok := jm.cancels[id]
	jm.mu.RUnlock()
	if ok {
		cancel()
	}
	return ok
}
