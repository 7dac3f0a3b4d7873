package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/compass/internal/events"
)

// fakeJob is a controllable job for runner tests
type fakeJob struct {
	name     string
	schedule string
	err      error
	panicMsg string

	started chan struct{}
	release chan struct{}

	mu   sync.Mutex
	runs int
}

func (f *fakeJob) Name() string     { return f.name }
func (f *fakeJob) Schedule() string { return f.schedule }

func (f *fakeJob) Run(ctx context.Context) error {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.err
}

func (f *fakeJob) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

// newTestBus returns a bus, its manager and a channel receiving every
// job lifecycle event.
func newTestBus(t *testing.T) (*events.Manager, chan *events.Event) {
	t.Helper()

	bus := events.NewBus(zerolog.Nop())
	manager := events.NewManager(bus, zerolog.Nop())
	received := make(chan *events.Event, 20)

	for _, eventType := range []events.EventType{events.JobStarted, events.JobCompleted, events.JobFailed} {
		_ = bus.Subscribe(eventType, func(event *events.Event) {
			received <- event
		})
	}

	return manager, received
}

func waitForEvent(t *testing.T, received chan *events.Event) *events.Event {
	t.Helper()

	select {
	case event := <-received:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for job lifecycle event")
		return nil
	}
}

func TestSchedulerRegistersJobs(t *testing.T) {
	s := New(nil, zerolog.Nop())

	job := &fakeJob{name: "test_job", schedule: "@every 1h"}
	require.NoError(t, s.AddJob(job))

	statuses := s.Jobs()
	require.Len(t, statuses, 1)
	assert.Equal(t, "test_job", statuses[0].Name)
	assert.Equal(t, "@every 1h", statuses[0].Schedule)
	assert.Equal(t, "idle", statuses[0].Status)
	assert.Nil(t, statuses[0].LastRun)
	assert.Zero(t, statuses[0].RunCount)
}

func TestSchedulerRejectsDuplicateNames(t *testing.T) {
	s := New(nil, zerolog.Nop())

	require.NoError(t, s.AddJob(&fakeJob{name: "dup", schedule: "@every 1h"}))
	err := s.AddJob(&fakeJob{name: "dup", schedule: "@every 2h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := New(nil, zerolog.Nop())

	err := s.AddJob(&fakeJob{name: "broken", schedule: "not a cron spec"})
	require.Error(t, err)

	// A failed registration must not leave a half-registered job behind
	assert.Empty(t, s.Jobs())
	assert.Error(t, s.RunNow("broken"))
}

func TestSchedulerRunNowUnknownJob(t *testing.T) {
	s := New(nil, zerolog.Nop())

	err := s.RunNow("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job")
}

func TestSchedulerEmitsStartAndComplete(t *testing.T) {
	manager, received := newTestBus(t)
	s := New(manager, zerolog.Nop())

	job := &fakeJob{name: "quick", schedule: "@every 1h"}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunNow("quick"))

	first := waitForEvent(t, received)
	assert.Equal(t, events.JobStarted, first.Type)
	assert.Equal(t, "quick", first.Data["job_type"])
	assert.Equal(t, "scheduler", first.Module)

	second := waitForEvent(t, received)
	assert.Equal(t, events.JobCompleted, second.Type)
	assert.Equal(t, "quick", second.Data["job_type"])

	assert.Equal(t, 1, job.runCount())

	statuses := s.Jobs()
	require.Len(t, statuses, 1)
	assert.Equal(t, "ok", statuses[0].Status)
	assert.Equal(t, 1, statuses[0].RunCount)
	assert.NotNil(t, statuses[0].LastRun)
	assert.Empty(t, statuses[0].LastError)
}

func TestSchedulerEmitsFailure(t *testing.T) {
	manager, received := newTestBus(t)
	s := New(manager, zerolog.Nop())

	job := &fakeJob{name: "failing", schedule: "@every 1h", err: errors.New("disk on fire")}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunNow("failing"))

	first := waitForEvent(t, received)
	assert.Equal(t, events.JobStarted, first.Type)

	second := waitForEvent(t, received)
	assert.Equal(t, events.JobFailed, second.Type)
	assert.Equal(t, "disk on fire", second.Data["error"])

	statuses := s.Jobs()
	require.Len(t, statuses, 1)
	assert.Equal(t, "failed", statuses[0].Status)
	assert.Equal(t, "disk on fire", statuses[0].LastError)
}

func TestSchedulerIsolatesPanics(t *testing.T) {
	manager, received := newTestBus(t)
	s := New(manager, zerolog.Nop())

	job := &fakeJob{name: "panicky", schedule: "@every 1h", panicMsg: "boom"}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunNow("panicky"))

	first := waitForEvent(t, received)
	assert.Equal(t, events.JobStarted, first.Type)

	second := waitForEvent(t, received)
	assert.Equal(t, events.JobFailed, second.Type)
	assert.Contains(t, second.Data["error"], "job panicked")

	// The scheduler itself must survive and accept further runs
	require.NoError(t, s.RunNow("panicky"))
	waitForEvent(t, received)
	waitForEvent(t, received)
	assert.Equal(t, 2, job.runCount())
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	manager, received := newTestBus(t)
	s := New(manager, zerolog.Nop())

	job := &fakeJob{
		name:     "slow",
		schedule: "@every 1h",
		started:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunNow("slow"))
	<-job.started
	waitForEvent(t, received) // started

	statuses := s.Jobs()
	require.Len(t, statuses, 1)
	assert.Equal(t, "running", statuses[0].Status)

	// Second trigger while the first run is still going must be a no-op
	require.NoError(t, s.RunNow("slow"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, job.runCount())

	close(job.release)
	completed := waitForEvent(t, received)
	assert.Equal(t, events.JobCompleted, completed.Type)
	assert.Equal(t, 1, job.runCount())
}

func TestSchedulerStopCancelsRunContext(t *testing.T) {
	s := New(nil, zerolog.Nop())

	observed := make(chan error, 1)
	job := &watchingJob{observed: observed}
	require.NoError(t, s.AddJob(job))

	s.Start()
	require.NoError(t, s.RunNow("watching"))

	s.Stop()

	select {
	case err := <-observed:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Job did not observe context cancellation")
	}
}

// watchingJob blocks until its context is cancelled and reports the cause
type watchingJob struct {
	observed chan error
}

func (w *watchingJob) Name() string     { return "watching" }
func (w *watchingJob) Schedule() string { return "@every 1h" }

func (w *watchingJob) Run(ctx context.Context) error {
	<-ctx.Done()
	w.observed <- ctx.Err()
	return ctx.Err()
}
