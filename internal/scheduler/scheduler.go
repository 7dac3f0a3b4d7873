// Package scheduler runs Compass background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aristath/compass/internal/events"
)

// Job represents a scheduled job
type Job interface {
	// Name identifies the job in logs, events and the system API.
	Name() string
	// Schedule returns the job's cron expression (six fields, with seconds).
	Schedule() string
	// Run executes the job. The context is cancelled on shutdown.
	Run(ctx context.Context) error
}

// JobStatus is a snapshot of a registered job for the system endpoints.
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Status    string     `json:"status"` // "idle", "running", "ok", "failed"
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	RunCount  int        `json:"run_count"`
}

// jobState tracks run history for a single job
type jobState struct {
	status    string
	lastRun   time.Time
	lastError string
	runCount  int
	running   bool
}

// Scheduler manages background jobs
type Scheduler struct {
	cron   *cron.Cron
	events *events.Manager
	log    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]Job
	order   []string
	entries map[string]cron.EntryID
	state   map[string]*jobState
}

// New creates a new scheduler
func New(eventManager *events.Manager, log zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		events:  eventManager,
		log:     log.With().Str("component", "scheduler").Logger(),
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
		state:   make(map[string]*jobState),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
// The run context is cancelled first so long jobs can bail out early.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job on its own schedule.
// Schedule examples:
//   - "0 0 2 * * *"   - daily at 02:00
//   - "0 0 * * * *"   - hourly
//   - "@every 30s"    - every 30 seconds
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	entryID, err := s.cron.AddFunc(job.Schedule(), func() {
		s.execute(job)
	})
	if err != nil {
		return fmt.Errorf("register job %q: %w", name, err)
	}

	s.jobs[name] = job
	s.order = append(s.order, name)
	s.entries[name] = entryID
	s.state[name] = &jobState{status: "idle"}

	s.log.Info().
		Str("schedule", job.Schedule()).
		Str("job", name).
		Msg("Job registered")

	return nil
}

// RunNow executes a registered job immediately (outside schedule).
// Returns an error for unknown job names; the job's own error is
// reported through logs and events, same as a scheduled run.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	s.log.Info().Str("job", name).Msg("Running job immediately")
	go s.execute(job)
	return nil
}

// Jobs returns a status snapshot of every registered job, in
// registration order.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		job := s.jobs[name]
		st := s.state[name]

		info := JobStatus{
			Name:     name,
			Schedule: job.Schedule(),
			Status:   st.status,
			RunCount: st.runCount,
		}
		if st.running {
			info.Status = "running"
		}
		if !st.lastRun.IsZero() {
			t := st.lastRun
			info.LastRun = &t
		}
		info.LastError = st.lastError

		if entry := s.cron.Entry(s.entries[name]); !entry.Next.IsZero() {
			next := entry.Next
			info.NextRun = &next
		}

		statuses = append(statuses, info)
	}
	return statuses
}

// execute runs a job with panic isolation and lifecycle events.
// Overlapping runs of the same job are skipped rather than queued.
func (s *Scheduler) execute(job Job) {
	name := job.Name()

	s.mu.Lock()
	st := s.state[name]
	if st == nil {
		st = &jobState{}
		s.state[name] = st
	}
	if st.running {
		s.mu.Unlock()
		s.log.Warn().Str("job", name).Msg("Job still running, skipping this run")
		return
	}
	st.running = true
	st.lastRun = time.Now().UTC()
	st.runCount++
	s.mu.Unlock()

	jobID := uuid.New().String()
	start := time.Now()

	s.emitStatus(&events.JobStatusData{
		JobID:     jobID,
		JobType:   name,
		Status:    "started",
		Timestamp: start.UTC(),
	})
	s.log.Debug().Str("job", name).Str("job_id", jobID).Msg("Running job")

	err := s.runIsolated(job)
	duration := time.Since(start)

	s.mu.Lock()
	st.running = false
	if err != nil {
		st.status = "failed"
		st.lastError = err.Error()
	} else {
		st.status = "ok"
		st.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.emitStatus(&events.JobStatusData{
			JobID:     jobID,
			JobType:   name,
			Status:    "failed",
			Error:     err.Error(),
			Duration:  duration.Seconds(),
			Timestamp: time.Now().UTC(),
		})
		s.log.Error().
			Err(err).
			Str("job", name).
			Dur("duration", duration).
			Msg("Job failed")
		return
	}

	s.emitStatus(&events.JobStatusData{
		JobID:     jobID,
		JobType:   name,
		Status:    "completed",
		Duration:  duration.Seconds(),
		Timestamp: time.Now().UTC(),
	})
	s.log.Debug().
		Str("job", name).
		Dur("duration", duration).
		Msg("Job completed")
}

// runIsolated converts a job panic into an error so one bad job cannot
// take down the cron goroutine.
func (s *Scheduler) runIsolated(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Run(s.ctx)
}

// emitStatus publishes a job lifecycle event when an event manager is wired.
func (s *Scheduler) emitStatus(data *events.JobStatusData) {
	if s.events == nil {
		return
	}
	s.events.EmitTyped(data.EventType(), "scheduler", data)
}
