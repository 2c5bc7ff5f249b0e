// Package scheduler runs the server's periodic background jobs: dispatching
// due scheduled emails and purging expired sessions.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sendly-app/sendly/internal/logging"
)

// Job is one periodic task. Run returns how many items it processed.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

type Scheduler struct {
	jobs []Job
	log  logging.Logger
}

func New(log logging.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, log: log.With("module", "scheduler")}
}

// Run starts every job with an immediate first pass and blocks until ctx is
// cancelled and all in-flight passes have returned. Jobs with a non-positive
// interval are skipped.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			s.log.Warn(ctx, "job disabled", "job", job.Name)
			continue
		}
		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			s.loop(ctx, job)
		}(job)
	}
	s.log.Info(ctx, "scheduler started", "jobs", len(s.jobs))
	wg.Wait()
	s.log.Info(ctx, "scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.tick(ctx, job)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

// tick runs one pass; a panicking job is logged and retried on the next tick.
func (s *Scheduler) tick(ctx context.Context, job Job) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error(ctx, "job panicked", "job", job.Name, "panic", p)
		}
	}()
	if ctx.Err() != nil {
		return
	}
	n, err := job.Run(ctx)
	switch {
	case err != nil && ctx.Err() == nil:
		s.log.Error(ctx, "job failed", "job", job.Name, "error", err)
	case n > 0:
		s.log.Info(ctx, "job done", "job", job.Name, "processed", n)
	}
}
