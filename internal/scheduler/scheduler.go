package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/config"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/rs/zerolog"
)

const (
	defaultRetryDelay   = 5 * time.Minute
	defaultErrorBackoff = 5 * time.Minute
)

// ErrAlreadyRunning is returned by Start when the loop is active.
var ErrAlreadyRunning = errors.New("scheduler is already running")

// CollectionRunner performs one collection.
type CollectionRunner interface {
	Run(ctx context.Context, ts time.Time) (models.CollectionSummary, error)
}

// History tells the scheduler when the last batch was stored.
type History interface {
	BatchTimestamps(ctx context.Context) ([]time.Time, error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRetryDelay sets the pause between failed attempts of one cycle.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.retryDelay = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler runs collections periodically in automated mode.
type Scheduler struct {
	cfg        config.SchedulerConfig
	runner     CollectionRunner
	history    History
	logger     zerolog.Logger
	retryDelay time.Duration
	now        func() time.Time

	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastAttempt time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(cfg config.SchedulerConfig, runner CollectionRunner, history History, logger zerolog.Logger, opts ...Option) (*Scheduler, error) {
	if runner == nil {
		return nil, common.NewValidationError("runner", nil, "collection runner is required")
	}
	if cfg.CycleMinutes < 1 {
		return nil, common.NewValidationError("cycle_minutes", cfg.CycleMinutes, "must be at least 1")
	}

	s := &Scheduler{
		cfg:        cfg,
		runner:     runner,
		history:    history,
		logger:     logger.With().Str("module", "Scheduler").Logger(),
		retryDelay: defaultRetryDelay,
		now:        time.Now,
		stopChan:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Scheduler) interval() time.Duration {
	return time.Duration(s.cfg.CycleMinutes) * time.Minute
}

// Start runs the loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.isRunning = true
	s.mu.Unlock()

	s.logger.Info().Int("cycle_minutes", s.cfg.CycleMinutes).Msg("Starting collection scheduler")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()

	select {
	case <-s.stopChan:
	case <-ctx.Done():
		s.logger.Info().Msg("Context cancelled, shutting down scheduler")
		s.Stop()
	}

	s.wg.Wait()

	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// Stop signals the loop to exit. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		nextRun, err := s.calculateNextRunTime(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to calculate next collection time")
			if !s.wait(ctx, defaultErrorBackoff) {
				return
			}
			continue
		}

		s.logger.Info().Time("next_run_time", nextRun).Msg("Next collection scheduled")
		if !s.wait(ctx, nextRun.Sub(s.now())) {
			return
		}

		s.runCycleWithRetries(ctx)
	}
}

// wait blocks for d and reports false when the scheduler should exit instead.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return false
		case <-s.stopChan:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}

// calculateNextRunTime is one interval after the newer of the last stored batch and the
// last attempted cycle, or now when that is overdue. Failed cycles count as attempts.
func (s *Scheduler) calculateNextRunTime(ctx context.Context) (time.Time, error) {
	now := s.now()
	last := s.lastAttemptTime()

	if s.history != nil {
		timestamps, err := s.history.BatchTimestamps(ctx)
		if err != nil {
			return time.Time{}, common.WrapError(err, "failed to read last collection time")
		}
		if n := len(timestamps); n > 0 && timestamps[n-1].After(last) {
			last = timestamps[n-1]
		}
	}

	if last.IsZero() {
		return now, nil
	}

	next := last.Add(s.interval())
	if next.Before(now) {
		return now, nil
	}
	return next, nil
}

func (s *Scheduler) lastAttemptTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAttempt
}

func (s *Scheduler) recordAttempt(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAttempt = t
}

func (s *Scheduler) runCycleWithRetries(ctx context.Context) {
	maxRetries := s.cfg.RetryAttempts
	s.recordAttempt(s.now())

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			s.logger.Warn().Int("attempt", attempt+1).Dur("delay", s.retryDelay).Msg("Retrying collection")
			if !s.wait(ctx, s.retryDelay) {
				return
			}
		}

		summary, err := s.runner.Run(ctx, time.Time{})
		if err == nil {
			s.logger.Info().
				Str("run_id", summary.RunID).
				Int("successful", len(summary.Successful)).
				Int("failed", len(summary.Failed)).
				Msg("Scheduled collection finished")
			return
		}

		if ctx.Err() != nil {
			s.logger.Info().Str("run_id", summary.RunID).Msg("Collection interrupted by shutdown")
			return
		}

		s.logger.Error().Err(err).Str("run_id", summary.RunID).Int("attempt", attempt+1).Msg("Scheduled collection failed")
	}

	s.logger.Error().Int("attempts", maxRetries+1).Msg("All collection attempts failed; waiting for next cycle")
}
