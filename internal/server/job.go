package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
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

// JobConfig describes a background optimization of a benchmark function.
type JobConfig struct {
	Benchmark  string `json:"benchmark"`
	Dimensions int    `json:"dimensions"`
	Rounds     int    `json:"rounds"`
	Population int    `json:"population"`
	Points     int    `json:"points"`
	// SamplingStd is the kernel width relative to the search range; 0 uses the variable default
	SamplingStd float64 `json:"samplingStd,omitempty"`
	Direction   string  `json:"direction,omitempty"`
	Scaling     string  `json:"scaling,omitempty"`
	Seed        uint64  `json:"seed"`
	// SnapshotEvery saves a snapshot every N rounds when the server has a store (0 = only at the end)
	SnapshotEvery int `json:"snapshotEvery,omitempty"`
}

// applyDefaults fills unset fields.
func (c *JobConfig) applyDefaults() {
	if c.Benchmark == "" {
		c.Benchmark = "sphere"
	}
	if c.Dimensions <= 0 {
		c.Dimensions = 2
	}
	if c.Rounds <= 0 {
		c.Rounds = 50
	}
	if c.Population <= 0 {
		c.Population = 50
	}
	if c.Points <= 0 {
		c.Points = 200
	}
	if c.Direction == "" {
		c.Direction = "min"
	}
	if c.Scaling == "" {
		c.Scaling = "auto"
	}
}

// Job represents an optimization job
type Job struct {
	ID           string     `json:"id"`
	State        JobState   `json:"state"`
	Config       JobConfig  `json:"config"`
	BestSolution []float64  `json:"bestSolution,omitempty"`
	BestValue    float64    `json:"bestValue"`
	Rounds       int        `json:"rounds"`
	Evaluations  int        `json:"evaluations"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime,omitempty"`
	Error        string     `json:"error,omitempty"`
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

// CreateJob creates a new job with the given configuration
func (jm *JobManager) CreateJob(config JobConfig) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
	}

	jm.jobs[job.ID] = job
	c := *job
	return &c
}

// GetJob returns a copy of the job with the given ID
func (jm *JobManager) GetJob(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return nil, false
	}
	c := *job
	return &c, true
}

// ListJobs returns copies of all jobs, oldest first
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		c := *job
		jobs = append(jobs, &c)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartTime.Before(jobs[j].StartTime) })
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
			c := *job
			runningJobs = append(runningJobs, &c)
		}
	}
	return runningJobs
}

// setCancel registers the function that stops a running job.
func (jm *JobManager) setCancel(id string, cancel context.CancelFunc) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.cancels[id] = cancel
}

// CancelJob stops a pending or running job. It returns false if the job does
// not exist or has already finished.
func (jm *JobManager) CancelJob(id string) bool {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists || (job.State != StatePending && job.State != StateRunning) {
		return false
	}
	if cancel, ok := jm.cancels[id]; ok {
		cancel()
		delete(jm.cancels, id)
	}
	return true
}

// finish drops the cancel function of a job that has ended.
func (jm *JobManager) finish(id string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	if cancel, ok := jm.cancels[id]; ok {
		cancel()
		delete(jm.cancels, id)
	}
}
