package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/membertrack/internal/config"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBrowser struct {
	count int
	err   error
	calls int32
}

func (f *fakeBrowser) FetchCount(ctx context.Context, target models.Target) (int, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.count, f.err
}

func (f *fakeBrowser) Close() error { return nil }

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestEngine(t *testing.T, apiBase string, opts ...EngineOption) *Engine {
	t.Helper()
	fetcherCfg := config.NewDefaultFetcherConfig()
	fetcherCfg.TimeoutSecs = 5
	if apiBase != "" {
		fetcherCfg.APIBaseURL = apiBase
	}
	opts = append([]EngineOption{WithSleeper(noSleep)}, opts...)
	engine, err := NewEngine(fetcherCfg, config.NewDefaultHeadlessBrowserConfig(), zerolog.Nop(), opts...)
	require.NoError(t, err)
	return engine
}

func telegramPage(extra string) string {
	return fmt.Sprintf(`<html><body><div class="tgme_page_title">Group</div>
<div class="tgme_page_extra">%s</div></body></html>`, extra)
}

func TestEngine_FetchAll_OneFailingTarget(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			fmt.Fprint(w, telegramPage("1,500 members"))
		case "/b":
			w.WriteHeader(http.StatusInternalServerError)
		case "/c":
			fmt.Fprint(w, telegramPage("1.2K subscribers"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	engine := newTestEngine(t, "")
	targets := []models.Target{
		{Name: "A", URL: server.URL + "/a", Kind: models.KindPageScrape},
		{Name: "B", URL: server.URL + "/b", Kind: models.KindPageScrape},
		{Name: "C", URL: server.URL + "/c", Kind: models.KindPageScrape},
		{Name: "D", URL: closedURL + "/d", Kind: models.KindPageScrape},
	}

	results := engine.FetchAll(context.Background(), targets)
	require.Len(t, results, 4)

	assert.Equal(t, map[string]int{"A": 1500, "C": 1200}, results.Successful())
	assert.Equal(t, []string{"B", "D"}, results.Failed())
	assert.Equal(t, models.ReasonHTTPError, results.ByTarget()["B"].Reason)
	assert.Equal(t, models.ReasonTransport, results.ByTarget()["D"].Reason)

	// input order is preserved
	assert.Equal(t, []string{"A", "B", "C", "D"}, models.TargetNames([]models.Target{results[0].Target, results[1].Target, results[2].Target, results[3].Target}))
}

func TestEngine_Fetch_ParseMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>This channel is private</p></body></html>")
	}))
	defer server.Close()

	engine := newTestEngine(t, "")
	result := engine.Fetch(context.Background(), models.Target{Name: "Private", URL: server.URL, Kind: models.KindPageScrape})

	assert.False(t, result.OK())
	assert.Equal(t, models.ReasonParseMiss, result.Reason)
	assert.ErrorIs(t, result.Err, ErrNoCountFound)
}

func TestEngine_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	engine := newTestEngine(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := engine.Fetch(ctx, models.Target{Name: "Slow", URL: server.URL, Kind: models.KindPageScrape})
	assert.Equal(t, models.ReasonTimeout, result.Reason)
}

func TestEngine_Fetch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	engine := newTestEngine(t, "")
	result := engine.Fetch(context.Background(), models.Target{Name: "Gone", URL: url, Kind: models.KindPageScrape})
	assert.Equal(t, models.ReasonTransport, result.Reason)
}

func TestEngine_Fetch_UnknownKind(t *testing.T) {
	engine := newTestEngine(t, "")
	result := engine.Fetch(context.Background(), models.Target{Name: "X", URL: "https://example.com", Kind: "rss"})
	assert.False(t, result.OK())
	assert.Equal(t, models.ReasonUnavailable, result.Reason)
}

func TestEngine_Fetch_StructuredAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invites/confluxnetwork", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("with_counts"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"code":"confluxnetwork","approximate_member_count":48211,"approximate_presence_count":3011}`)
	}))
	defer server.Close()

	browser := &fakeBrowser{}
	engine := newTestEngine(t, server.URL, WithBrowserFallback(browser))
	target := models.Target{Name: "English (Discord)", URL: "https://discord.com/invite/confluxnetwork", Kind: models.KindStructuredAPI}

	result := engine.Fetch(context.Background(), target)
	require.True(t, result.OK())
	assert.Equal(t, 48211, result.Count)
	assert.Zero(t, atomic.LoadInt32(&browser.calls))
}

func TestEngine_Fetch_StructuredAPIFallback(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		status     int
		browser    BrowserFallback
		wantOK     bool
		wantCount  int
		wantReason models.FailureReason
	}{
		{
			name:      "zero count falls back to browser",
			body:      `{"approximate_member_count":0}`,
			status:    http.StatusOK,
			browser:   &fakeBrowser{count: 47000},
			wantOK:    true,
			wantCount: 47000,
		},
		{
			name:      "http error falls back to browser",
			body:      `{"message":"Unknown Invite"}`,
			status:    http.StatusNotFound,
			browser:   &fakeBrowser{count: 46000},
			wantOK:    true,
			wantCount: 46000,
		},
		{
			name:       "missing field without fallback",
			body:       `{"code":"x"}`,
			status:     http.StatusOK,
			browser:    nil,
			wantReason: models.ReasonParseMiss,
		},
		{
			name:       "http error without fallback",
			body:       `{}`,
			status:     http.StatusTooManyRequests,
			browser:    nil,
			wantReason: models.ReasonHTTPError,
		},
		{
			name:       "browser failure wins",
			body:       `not json`,
			status:     http.StatusOK,
			browser:    &fakeBrowser{err: newFetchError(models.ReasonTimeout, errors.New("members element did not appear"))},
			wantReason: models.ReasonTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			engine := newTestEngine(t, server.URL, WithBrowserFallback(tt.browser))
			result := engine.Fetch(context.Background(), models.Target{Name: "D", URL: "https://discord.gg/abc", Kind: models.KindStructuredAPI})

			assert.Equal(t, tt.wantOK, result.OK())
			if tt.wantOK {
				assert.Equal(t, tt.wantCount, result.Count)
			} else {
				assert.Equal(t, tt.wantReason, result.Reason)
			}
		})
	}
}

func TestEngine_Fetch_DisabledBrowserIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	// default engine carries a disabled rod browser
	engine := newTestEngine(t, server.URL)
	defer engine.Close()

	result := engine.Fetch(context.Background(), models.Target{Name: "D", URL: "https://discord.gg/abc", Kind: models.KindStructuredAPI})
	assert.Equal(t, models.ReasonUnavailable, result.Reason)
	assert.ErrorIs(t, result.Err, ErrBrowserUnavailable)
}

func TestEngine_FetchAll_DelayAfterPageScrapes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/invites/abc" {
			fmt.Fprint(w, `{"approximate_member_count":10}`)
			return
		}
		fmt.Fprint(w, telegramPage("10 members"))
	}))
	defer server.Close()

	var delays []time.Duration
	recorder := func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	engine := newTestEngine(t, server.URL, WithSleeper(recorder), WithDelay(time.Second), WithBrowserFallback(nil))
	targets := []models.Target{
		{Name: "A", URL: server.URL + "/a", Kind: models.KindPageScrape},
		{Name: "D", URL: "https://discord.gg/abc", Kind: models.KindStructuredAPI},
		{Name: "B", URL: server.URL + "/b", Kind: models.KindPageScrape},
		{Name: "C", URL: server.URL + "/c", Kind: models.KindPageScrape},
	}

	results := engine.FetchAll(context.Background(), targets)
	assert.Len(t, results.Successful(), 4)
	// after A and B only: D is not a page scrape and C is last
	assert.Equal(t, []time.Duration{time.Second, time.Second}, delays)
}

func TestEngine_FetchAll_CancelledMarksRemainingFailed(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, telegramPage("7 members"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cancelling := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	engine := newTestEngine(t, "", WithSleeper(cancelling))
	targets := []models.Target{
		{Name: "A", URL: server.URL + "/a", Kind: models.KindPageScrape},
		{Name: "B", URL: server.URL + "/b", Kind: models.KindPageScrape},
		{Name: "C", URL: server.URL + "/c", Kind: models.KindPageScrape},
	}

	results := engine.FetchAll(ctx, targets)
	require.Len(t, results, 3)
	assert.Equal(t, map[string]int{"A": 7}, results.Successful())
	assert.Equal(t, []string{"B", "C"}, results.Failed())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.ErrorIs(t, results.ByTarget()["B"].Err, context.Canceled)
}

func TestContextSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ContextSleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, ContextSleep(context.Background(), time.Millisecond))
}
