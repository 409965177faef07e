// Package scheduler runs the discover-then-import cycle on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/careerscout/internal/logging"
)

// DefaultSpec runs one full cycle a day.
const DefaultSpec = "@every 24h"

// Job is one scheduled cycle.
type Job func(ctx context.Context) error

// Scheduler wraps robfig/cron and runs a single job.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	job     Job
	log     *logging.Logger
	running atomic.Bool
	runs    atomic.Int64

	// startup tracks the immediate first cycle, which cron does not own
	startup sync.WaitGroup
}

// New creates a Scheduler. An empty spec selects DefaultSpec.
func New(spec string, job Job, logger *logging.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if job == nil {
		return nil, fmt.Errorf("scheduler job is nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Scheduler{
		cron: cron.New(cron.WithLogger(cronLogger{logger})),
		spec: spec,
		job:  job,
		log:  logger,
	}, nil
}

// Spec returns the cron expression in use.
func (s *Scheduler) Spec() string {
	return s.spec
}

// Runs returns how many cycles have started.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Start registers the job and starts the cron loop. One cycle also runs
// immediately so results do not wait for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to register schedule: %w", err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", "spec", s.spec)

	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.runOnce(ctx)
	}()

	return nil
}

// Stop halts the cron loop and waits for any running cycle, including the
// start-up one, to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	s.log.Info("scheduler stopped", "runs", s.Runs())
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// runOnce executes the job unless a previous cycle is still in progress.
// It reports whether the job ran.
func (s *Scheduler) runOnce(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("previous cycle still running, skipping tick")
		return false
	}
	defer s.running.Store(false)

	n := s.runs.Add(1)
	start := time.Now()
	s.log.Info("cycle started", "run", n)

	if err := s.job(ctx); err != nil {
		s.log.Error("cycle failed", "run", n, "error", err, "elapsed", time.Since(start).String())
		return true
	}

	s.log.Info("cycle complete", "run", n, "elapsed", time.Since(start).String())
	return true
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	log *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
