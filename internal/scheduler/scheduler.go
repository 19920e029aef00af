package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Refresher re-fetches the active dataset.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Scheduler periodically refreshes the active dataset.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Refresher
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler. Each run gets its own timeout-bound context.
func New(target Refresher, interval, timeout time.Duration, logger *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: s,
		target:    target,
		interval:  interval,
		timeout:   timeout,
		logger:    logger.Named("scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// A non-positive interval disables scheduling.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("periodic refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("periodic refresh scheduled", zap.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) run() {
	s.logger.Debug("running refresh job")

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.target.Refresh(ctx)
	s.logger.Debug("completed refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
