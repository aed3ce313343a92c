package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bilan/internal/log"
)

// SchedulerConfig holds configuration for the snapshot scheduler
type SchedulerConfig struct {
	// Interval between refreshes (default: 1h)
	Interval time.Duration

	// Months is how many months, current included, each refresh covers (default: 2)
	Months int
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval: time.Hour,
		Months:   2,
	}
}

// Scheduler refreshes recent statement snapshots on a fixed interval so
// that changes missed by the message queue are eventually picked up.
type Scheduler struct {
	worker *StatementWorker
	config SchedulerConfig
	logger *log.Logger

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce *sync.Once
}

func NewScheduler(worker *StatementWorker, config SchedulerConfig) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Months <= 0 {
		config.Months = defaults.Months
	}
	return &Scheduler{
		worker: worker,
		config: config,
		logger: worker.logger,
	}
}

// Start begins the refresh loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.stopOnce = &sync.Once{}
	s.mu.Unlock()

	go s.runLoop(ctx)

	s.logger.InfoContext(ctx, "Snapshot scheduler started",
		"interval", s.config.Interval,
		"months", s.config.Months)
	return nil
}

// Stop signals the loop and waits for it, or for ctx to expire. After a
// timeout Stop may be called again to keep waiting.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh, once := s.stopCh, s.doneCh, s.stopOnce
	s.mu.Unlock()

	once.Do(func() { close(stopCh) })

	select {
	case <-doneCh:
		s.logger.InfoContext(ctx, "Snapshot scheduler stopped gracefully")
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Snapshot scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Refresh immediately on startup
	s.refresh(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	if err := s.worker.RefreshRecent(ctx, s.config.Months); err != nil {
		s.logger.ErrorContext(ctx, "Snapshot refresh failed", log.FieldError, err)
	}
}
