package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper is anything that can reap sessions idle for longer than idle.
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// Scheduler periodically closes idle screen sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	idle      time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(sweeper Sweeper, idle, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sweeper:   sweeper,
		idle:      idle,
		interval:  interval,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.idle <= 0 {
		s.logger.Info("session idle timeout disabled; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) run() {
	n := s.sweeper.Sweep(s.idle)
	s.logger.Debug("session sweep completed", "closed", n)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
