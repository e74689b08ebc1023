package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// SchedulerConfig holds configuration for the periodic backup loop
type SchedulerConfig struct {
	// Interval is how often a full backup runs regardless of messages (default: 1h)
	Interval time.Duration
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Interval: time.Hour}
}

// Backuper is the unit of work the scheduler repeats.
type Backuper interface {
	Backup(ctx context.Context) error
}

// Scheduler re-runs backups on a ticker, covering messages lost while the
// broker or the worker was down.
type Scheduler struct {
	backuper Backuper
	config   SchedulerConfig

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	stopOnce *sync.Once
	doneCh   chan struct{}
}

func NewScheduler(b Backuper, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	return &Scheduler{backuper: b, config: config}
}

// Start begins the loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("backup scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.stopOnce = &sync.Once{}
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	go s.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Backup scheduler started", "interval", s.config.Interval)
	return nil
}

// Stop signals the loop and waits for it to finish. It may be called again
// after a timed out attempt.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, once, doneCh := s.stopCh, s.stopOnce, s.doneCh
	s.mu.Unlock()

	once.Do(func() { close(stopCh) })

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Backup scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Backup scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

// IsRunning returns whether the loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.backuper.Backup(ctx); err != nil {
				// retried on the next tick
				slog.WarnContext(ctx, "Periodic backup failed", "error", err)
			}
		}
	}
}
