// Package scheduler runs the recurring lottery jobs (weekly draw, winner
// sweep, OTP cleanup) on cron expressions evaluated in the lottery timezone.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/exp/slog"
)

// jobTimeout bounds a single job run
const jobTimeout = 5 * time.Minute

// Job is a unit of scheduled work. The context carries the run deadline.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner with per-job logging and panic recovery
type Scheduler struct {
	cron *cron.Cron
}

// New creates a Scheduler whose cron expressions are evaluated in loc
func New(loc *time.Location) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc)),
	}
}

// Schedule registers job under the given cron spec
func (s *Scheduler) Schedule(spec, name string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.run(name, job)
	})
	if err != nil {
		return err
	}
	slog.Info("Job scheduled", "job", name, "spec", spec)
	return nil
}

// Start launches the cron runner in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for any running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) run(name string, job Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Job panicked", "job", name, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	slog.Info("Job started", "job", name)
	if err := job(ctx); err != nil {
		slog.Error("Job failed", "job", name, "error", err, "duration", time.Since(start))
		return
	}
	slog.Info("Job finished", "job", name, "duration", time.Since(start))
}
