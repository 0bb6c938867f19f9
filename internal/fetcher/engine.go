package fetcher

import (
	"context"
	"time"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/config"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/rs/zerolog"
)

// CountFetcher is a single fetch strategy.
type CountFetcher interface {
	FetchCount(ctx context.Context, target models.Target) (int, error)
}

// Sleeper pauses between fetches and returns early when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSleeper replaces the delay function used between page fetches.
func WithSleeper(sleeper Sleeper) EngineOption {
	return func(e *Engine) {
		e.sleep = sleeper
	}
}

// WithDelay overrides the pause inserted after page-scrape fetches.
func WithDelay(delay time.Duration) EngineOption {
	return func(e *Engine) {
		e.delay = delay
	}
}

// WithBrowserFallback sets the fallback for structured-api targets. Nil disables it.
func WithBrowserFallback(fallback BrowserFallback) EngineOption {
	return func(e *Engine) {
		e.browser = fallback
	}
}

// WithPageScraper replaces the page-scrape strategy.
func WithPageScraper(scraper CountFetcher) EngineOption {
	return func(e *Engine) {
		e.pageScraper = scraper
	}
}

// WithAPIFetcher replaces the structured-api strategy.
func WithAPIFetcher(api CountFetcher) EngineOption {
	return func(e *Engine) {
		e.api = api
	}
}

// Engine fetches counts for targets, one at a time, and never fails as a whole.
type Engine struct {
	pageScraper CountFetcher
	api         CountFetcher
	browser     BrowserFallback
	sleep       Sleeper
	delay       time.Duration
	logger      zerolog.Logger
}

// NewEngine wires the default strategies from configuration.
func NewEngine(fetcherCfg config.FetcherConfig, browserCfg config.HeadlessBrowserConfig, logger zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	engineLogger := logger.With().Str("component", "FetchEngine").Logger()

	api, err := NewAPIFetcher(fetcherCfg, logger)
	if err != nil {
		return nil, common.WrapError(err, "failed to create API fetcher")
	}

	e := &Engine{
		pageScraper: NewPageScraper(fetcherCfg, logger),
		api:         api,
		browser:     NewRodBrowser(browserCfg, fetcherCfg.UserAgent, logger),
		sleep:       ContextSleep,
		delay:       fetcherCfg.Delay(),
		logger:      engineLogger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Fetch obtains one target's count. Failures are returned as typed results, never as errors.
func (e *Engine) Fetch(ctx context.Context, target models.Target) models.FetchResult {
	start := time.Now()

	var (
		count int
		err   error
	)
	switch target.Kind {
	case models.KindPageScrape:
		count, err = e.pageScraper.FetchCount(ctx, target)
	case models.KindStructuredAPI:
		count, err = e.fetchStructured(ctx, target)
	default:
		err = newFetchError(models.ReasonUnavailable, common.NewValidationError("kind", target.Kind, "unknown target kind"))
	}

	if err != nil {
		reason := classifyError(err)
		e.logger.Warn().
			Err(err).
			Str("target", target.Name).
			Str("kind", string(target.Kind)).
			Str("reason", string(reason)).
			Dur("duration", time.Since(start)).
			Msg("Failed to fetch member count")
		return models.NewFailureResult(target, reason, err)
	}

	e.logger.Info().
		Str("target", target.Name).
		Int("count", count).
		Dur("duration", time.Since(start)).
		Msg("Fetched member count")
	return models.NewSuccessResult(target, count)
}

func (e *Engine) fetchStructured(ctx context.Context, target models.Target) (int, error) {
	count, err := e.api.FetchCount(ctx, target)
	if err == nil {
		return count, nil
	}
	if e.browser == nil || ctx.Err() != nil {
		return 0, err
	}

	e.logger.Info().
		Err(err).
		Str("target", target.Name).
		Str("primary_reason", string(classifyError(err))).
		Msg("Invite API failed, trying browser fallback")

	return e.browser.FetchCount(ctx, target)
}

// FetchAll attempts every target in order. Every target gets an entry; once ctx is
// done the remaining targets are recorded as failed without being requested.
func (e *Engine) FetchAll(ctx context.Context, targets []models.Target) models.FetchResults {
	results := make(models.FetchResults, 0, len(targets))

	for i, target := range targets {
		if err := ctx.Err(); err != nil {
			results = append(results, models.NewFailureResult(target, classifyError(err), err))
			continue
		}

		results = append(results, e.Fetch(ctx, target))

		if target.Kind == models.KindPageScrape && i < len(targets)-1 && e.delay > 0 {
			if err := e.sleep(ctx, e.delay); err != nil {
				e.logger.Warn().Err(err).Msg("Collection interrupted between fetches")
			}
		}
	}

	e.logger.Info().
		Int("targets", len(targets)).
		Int("successful", len(results.Successful())).
		Int("failed", len(results.Failed())).
		Msg("Fetch round completed")
	return results
}

// Close releases the browser fallback, if any.
func (e *Engine) Close() error {
	if e.browser == nil {
		return nil
	}
	return e.browser.Close()
}
