package fetcher

import (
	"context"
	"net/http"
	"time"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/config"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// PageScraper fetches public channel pages and parses the count from their text.
type PageScraper struct {
	userAgent string
	headers   map[string]string
	timeout   time.Duration
	parser    *CountParser
	logger    zerolog.Logger
}

// NewPageScraper creates a page scraper from the fetcher configuration.
func NewPageScraper(cfg config.FetcherConfig, logger zerolog.Logger) *PageScraper {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = common.DefaultBrowserUserAgent
	}

	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
	for k, v := range cfg.CustomHeaders {
		headers[k] = v
	}

	return &PageScraper{
		userAgent: userAgent,
		headers:   headers,
		timeout:   cfg.Timeout(),
		parser:    NewCountParser(cfg.FallbackSelector),
		logger:    logger.With().Str("component", "PageScraper").Logger(),
	}
}

// FetchCount downloads the target page and extracts its member count.
func (s *PageScraper) FetchCount(ctx context.Context, target models.Target) (int, error) {
	body, err := s.fetchPage(ctx, target.URL)
	if err != nil {
		return 0, err
	}

	count, ok := s.parser.ParseHTML(body)
	if !ok {
		return 0, newFetchError(models.ReasonParseMiss, ErrNoCountFound)
	}
	return count, nil
}

func (s *PageScraper) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	// A fresh collector per page keeps the request bound to ctx.
	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.timeout)

	var (
		body   []byte
		status int
	)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range s.headers {
			r.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})

	start := time.Now()
	if err := c.Visit(pageURL); err != nil {
		s.logger.Debug().Err(err).Str("url", pageURL).Dur("duration", time.Since(start)).Msg("Page request failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, common.NewNetworkError(pageURL, "request aborted", ctxErr)
		}
		return nil, common.NewNetworkError(pageURL, "request failed", err)
	}

	s.logger.Debug().Int("status_code", status).Str("url", pageURL).Dur("duration", time.Since(start)).Msg("Page fetched")

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, common.NewHTTPErrorWithURL(status, http.StatusText(status), pageURL)
	}
	return body, nil
}
