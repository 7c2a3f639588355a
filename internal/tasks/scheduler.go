package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Scheduler runs the sync pipeline immediately and then on a fixed interval.
// Each run is independent: per-run errors are logged and swallowed so one
// bad run never stops the next. A tick that fires while a run is still in
// flight is skipped with a warning rather than overlapping it.
type Scheduler struct {
	engine   Engine
	interval time.Duration
	logger   *log.Logger
	onResult func(*SyncResult, error) // optional hook, e.g. persisting run history

	mu sync.Mutex
}

// NewScheduler creates a scheduler over the given engine and interval.
func NewScheduler(engine Engine, interval time.Duration, logger *log.Logger, onResult func(*SyncResult, error)) *Scheduler {
	return &Scheduler{
		engine:   engine,
		interval: interval,
		logger:   logger,
		onResult: onResult,
	}
}

// Start blocks until the context is cancelled, running the pipeline once
// immediately and then on every interval tick. Runs execute off the timer
// goroutine so a slow run is detected and skipped instead of queueing.
func (s *Scheduler) Start(ctx context.Context) error {
	go s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			go s.runOnce(ctx)
		}
	}
}

// runOnce executes a single run unless one is already in flight.
func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.mu.TryLock() {
		s.logger.Warn("previous sync still running, skipping this interval")
		return
	}
	defer s.mu.Unlock()

	s.logger.Info("starting sync run")

	result, err := s.engine.Run(ctx, nil)
	if err != nil {
		s.logger.Error("sync run failed", "error", err)
	}
	if result != nil {
		s.logger.Info("sync run finished",
			"run", result.RunID,
			"created", result.Created,
			"updated", result.Updated,
			"failed", result.Failed,
			"skipped", result.Skipped,
			"exported", result.Exported,
			"mail_sent", result.MailSent,
			"duration", result.Duration().Round(time.Millisecond),
		)
		if s.onResult != nil {
			s.onResult(result, err)
		}
	}
}
