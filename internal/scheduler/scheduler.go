// Package scheduler triggers ingestion cycles on fixed intervals.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/couchcryptid/vn-hazard-radar/internal/pipeline"
)

// Runner runs one ingestion cycle over the given domains, or all sources.
type Runner interface {
	RunCycle(ctx context.Context, domains ...string) (pipeline.Report, error)
}

// Job is a recurring cycle.
type Job struct {
	Name    string
	Every   time.Duration
	Domains []string
}

// Scheduler runs jobs with cron. A job whose previous run is still going is
// skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *slog.Logger
	jobs   []Job
	ctx    context.Context
	wg     sync.WaitGroup
}

// New validates jobs and returns a Scheduler. Nothing runs until Start.
func New(runner Runner, logger *slog.Logger, jobs ...Job) (*Scheduler, error) {
	if len(jobs) == 0 {
		return nil, errors.New("no jobs to schedule")
	}
	cl := cronLogger{logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		logger: logger,
		jobs:   jobs,
		ctx:    context.Background(),
	}
	for _, j := range jobs {
		if j.Every < time.Second {
			return nil, fmt.Errorf("invalid interval %s for job %s", j.Every, j.Name)
		}
		if _, err := s.cron.AddFunc("@every "+j.Every.String(), s.run(j)); err != nil {
			return nil, fmt.Errorf("schedule job %s: %w", j.Name, err)
		}
	}
	return s, nil
}

// Start begins scheduling. Cycles run with ctx; when runNow is set the
// first job also runs immediately in the background.
func (s *Scheduler) Start(ctx context.Context, runNow bool) {
	if ctx.Err() != nil {
		return
	}
	s.ctx = ctx
	s.cron.Start()
	for _, j := range s.jobs {
		s.logger.Info("job scheduled", "job", j.Name, "every", j.Every, "domains", j.Domains)
	}
	if runNow {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(s.jobs[0])()
		}()
	}
}

// Stop stops scheduling and waits for running cycles until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running cycles: %w", ctx.Err())
	}
}

func (s *Scheduler) run(j Job) func() {
	return func() {
		rep, err := s.runner.RunCycle(s.ctx, j.Domains...)
		if err != nil {
			if s.ctx.Err() == nil {
				s.logger.Error("scheduled cycle failed", "job", j.Name, "error", err)
			}
			return
		}
		s.logger.Debug("scheduled cycle done", "job", j.Name, "run_id", rep.RunID, "elapsed", rep.Elapsed)
	}
}

// cronLogger routes cron's logging to slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug("cron: "+msg, kv...)
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron: "+msg, append(kv, "error", err)...)
}
