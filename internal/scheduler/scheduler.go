// Package scheduler runs periodic source updates on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"hostsgen/internal/host"
)

// TaskFunc starts a host job.
type TaskFunc func(ctx context.Context) error

// Scheduler triggers host jobs on cron schedules.
type Scheduler struct {
	gocron gocron.Scheduler
	logger zerolog.Logger

	mu      sync.Mutex
	jobs    map[string]gocron.Job
	lastRun map[string]time.Time
}

// New creates a stopped scheduler.
func New(logger zerolog.Logger) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{
		gocron:  gs,
		logger:  logger.With().Str("component", "scheduler").Logger(),
		jobs:    make(map[string]gocron.Job),
		lastRun: make(map[string]time.Time),
	}, nil
}

// Register schedules fn under name with a standard 5-field cron expression.
// A trigger that finds a job already running is logged and skipped.
func (s *Scheduler) Register(name, cron string, fn TaskFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("task %q already registered", name)
	}
	job, err := s.gocron.NewJob(
		gocron.CronJob(cron, false),
		gocron.NewTask(func() { s.execute(name, fn) }),
		gocron.WithName(name),
		gocron.WithTags(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %q: %w", name, err)
	}
	s.jobs[name] = job
	s.logger.Info().Str("task", name).Str("cron", cron).Msg("registered task")
	return nil
}

func (s *Scheduler) execute(name string, fn TaskFunc) {
	started := time.Now()
	s.mu.Lock()
	s.lastRun[name] = started
	s.mu.Unlock()

	err := fn(context.Background())
	switch {
	case errors.Is(err, host.ErrJobRunning):
		s.logger.Info().Str("task", name).Msg("job already running, skipping scheduled run")
	case err != nil:
		s.logger.Error().Err(err).Str("task", name).Msg("scheduled task failed")
	default:
		s.logger.Info().Str("task", name).Dur("took", time.Since(started)).Msg("scheduled task started job")
	}
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.gocron.Start()
}

// Shutdown stops the scheduler and waits for running tasks.
func (s *Scheduler) Shutdown() error {
	return s.gocron.Shutdown()
}

// RunNow triggers the named task immediately. The scheduler must be started.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("task %q not registered", name)
	}
	return job.RunNow()
}

// NextRun returns when the named task fires next.
func (s *Scheduler) NextRun(name string) (time.Time, error) {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, fmt.Errorf("task %q not registered", name)
	}
	return job.NextRun()
}

// LastRun returns when the named task last fired.
func (s *Scheduler) LastRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastRun[name]
	return t, ok
}
