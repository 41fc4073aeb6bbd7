package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrInvalidSchedule = errors.New("invalid schedule")

type cycleRunner interface {
	RunCycle(ctx context.Context) (*CycleResult, error)
}

// Scheduler runs rebalance cycles on a standard five-field cron
// expression. A failed cycle is logged and waits for the next tick.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	runner   cycleRunner
	logger   *slog.Logger
	onResult func(*CycleResult)
}

func NewScheduler(spec string, runner cycleRunner, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("schedule %q: %v: %w", spec, err, ErrInvalidSchedule)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		spec:     spec,
		schedule: schedule,
		runner:   runner,
		logger:   logger,
	}, nil
}

// OnResult registers fn to receive every successful cycle.
func (s *Scheduler) OnResult(fn func(*CycleResult)) {
	s.onResult = fn
}

// Next returns the first activation strictly after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run blocks until ctx is cancelled, waiting for a running cycle to finish
// before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() { s.tick(ctx) }))

	s.logger.Info("scheduler started", "schedule", s.spec, "next", s.Next(time.Now()))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	result, err := s.runner.RunCycle(ctx)
	if err != nil {
		s.logger.Error("rebalance cycle failed", "error", err, "elapsed", time.Since(start))
		return
	}
	if s.onResult != nil {
		s.onResult(result)
	}
}
