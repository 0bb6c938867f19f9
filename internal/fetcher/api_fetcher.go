package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/config"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const memberCountField = "approximate_member_count"

// APIFetcher reads member counts from the public invite endpoint.
type APIFetcher struct {
	client  *common.HTTPClient
	baseURL string
	logger  zerolog.Logger
}

// NewAPIFetcher builds an API fetcher with its own HTTP client.
func NewAPIFetcher(cfg config.FetcherConfig, logger zerolog.Logger) (*APIFetcher, error) {
	builder := common.NewHTTPClientBuilder(logger).
		WithTimeout(cfg.Timeout()).
		WithCustomHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		builder = builder.WithUserAgent(cfg.UserAgent)
	}

	client, err := builder.Build()
	if err != nil {
		return nil, common.WrapError(err, "failed to create API HTTP client")
	}

	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = config.DefaultFetcherAPIBaseURL
	}

	return &APIFetcher{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "APIFetcher").Logger(),
	}, nil
}

// InviteEndpoint returns the counts URL for target.
func (f *APIFetcher) InviteEndpoint(target models.Target) string {
	return fmt.Sprintf("%s/invites/%s?with_counts=true", f.baseURL, url.PathEscape(target.InviteCode()))
}

// FetchCount queries the invite endpoint. A missing or zero count is a parse miss.
func (f *APIFetcher) FetchCount(ctx context.Context, target models.Target) (int, error) {
	if target.InviteCode() == "" {
		return 0, newFetchError(models.ReasonParseMiss, common.NewValidationError("url", target.URL, "no invite code in URL"))
	}

	endpoint := f.InviteEndpoint(target)
	resp, err := f.client.Do(ctx, &common.HTTPRequest{URL: endpoint, Method: http.MethodGet})
	if err != nil {
		return 0, err
	}
	if !resp.IsSuccess() {
		return 0, common.NewHTTPErrorWithURL(resp.StatusCode, http.StatusText(resp.StatusCode), endpoint)
	}

	if !gjson.ValidBytes(resp.Body) {
		return 0, newFetchError(models.ReasonParseMiss, common.WrapError(ErrNoCountFound, "invalid JSON response"))
	}

	value := gjson.GetBytes(resp.Body, memberCountField)
	if !value.Exists() || value.Int() <= 0 {
		return 0, newFetchError(models.ReasonParseMiss, ErrNoCountFound)
	}

	f.logger.Debug().Str("target", target.Name).Int64("count", value.Int()).Msg("Invite API returned member count")
	return int(value.Int()), nil
}
