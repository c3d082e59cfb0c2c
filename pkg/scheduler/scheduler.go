package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"dankrank/pkg/logger"

	"github.com/go-co-op/gocron/v2"
)

// RunFunc is one scheduled harvest
type RunFunc func(ctx context.Context) error

// Options tune the scheduler
type Options struct {
	// Location the cron expression is evaluated in. Defaults to time.Local.
	Location *time.Location
	// Immediately runs once at start before following the schedule
	Immediately bool
	// RunTimeout bounds a single run. Zero means no bound.
	RunTimeout time.Duration
}

// Scheduler runs a harvest on a cron schedule. Runs never overlap: a run
// still in progress when the next one is due causes that one to be skipped.
type Scheduler struct {
	expr   string
	run    RunFunc
	opts   Options
	logger logger.Logger

	runs     atomic.Int32
	failures atomic.Int32
}

// New creates a scheduler for a standard five-field cron expression. A
// six-field expression is read with a leading seconds field.
func New(expr string, run RunFunc, opts Options, log logger.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Scheduler{
		expr:   strings.TrimSpace(expr),
		run:    run,
		opts:   opts,
		logger: logger.OrDefault(log).WithField("component", "scheduler"),
	}
}

// Start schedules the job and blocks until ctx is cancelled. It returns an
// error only if the schedule cannot be set up.
func (s *Scheduler) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(s.opts.Location))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	jobOpts := []gocron.JobOption{
		gocron.WithName("harvest"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if s.opts.Immediately {
		jobOpts = append(jobOpts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	withSeconds := len(strings.Fields(s.expr)) == 6
	job, err := sched.NewJob(
		gocron.CronJob(s.expr, withSeconds),
		gocron.NewTask(func() { s.execute(ctx) }),
		jobOpts...,
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to schedule harvest %q: %w", s.expr, err)
	}

	sched.Start()
	logger.LogComponentStart(s.logger, "scheduler", map[string]interface{}{
		"cron":   s.expr,
		"job_id": job.ID().String(),
	})
	if next, err := job.NextRun(); err == nil {
		s.logger.InfoWithFields("Next harvest scheduled", map[string]interface{}{"at": next})
	}

	<-ctx.Done()

	if err := sched.Shutdown(); err != nil {
		s.logger.WithError(err).Warn("Scheduler shutdown failed")
	}
	logger.LogComponentStop(s.logger, "scheduler", ctx.Err().Error())
	return nil
}

func (s *Scheduler) execute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n := s.runs.Add(1)
	log := s.logger.WithField("run", n)

	runCtx := ctx
	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	start := time.Now()
	log.Info("Scheduled harvest started")
	if err := s.run(runCtx); err != nil {
		s.failures.Add(1)
		log.WithError(err).Error("Scheduled harvest failed")
		return
	}
	log.InfoWithFields("Scheduled harvest finished", map[string]interface{}{
		"duration": time.Since(start).String(),
	})
}

// Runs returns the number of runs started so far
func (s *Scheduler) Runs() int {
	return int(s.runs.Load())
}

// Failures returns the number of runs that returned an error
func (s *Scheduler) Failures() int {
	return int(s.failures.Load())
}
