// Package jobs runs periodic maintenance in the background.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper marks overdue redemptions expired.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

type SessionPruner interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type LimiterCleaner interface {
	Cleanup() int
}

// Scheduler runs one maintenance pass per interval.
type Scheduler struct {
	mu       sync.Mutex
	sweeper  Sweeper
	sessions SessionPruner
	limiter  LimiterCleaner
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler builds a scheduler. limiter may be nil.
func NewScheduler(sweeper Sweeper, sessions SessionPruner, limiter LimiterCleaner, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		sessions: sessions,
		limiter:  limiter,
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start runs an immediate pass and then one per interval until Stop or ctx
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.RunOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// RunOnce performs a single maintenance pass. Failures are logged and the
// remaining steps still run.
func (s *Scheduler) RunOnce(ctx context.Context) {
	now := s.now()

	if n, err := s.sweeper.SweepExpired(ctx, now); err != nil {
		s.logger.Error("jobs: sweep redemptions", "error", err)
	} else if n > 0 {
		s.logger.Info("jobs: expired redemptions", "count", n)
	}

	if n, err := s.sessions.DeleteExpired(ctx, now); err != nil {
		s.logger.Error("jobs: prune sessions", "error", err)
	} else if n > 0 {
		s.logger.Debug("jobs: pruned sessions", "count", n)
	}

	if s.limiter != nil {
		s.limiter.Cleanup()
	}
}
