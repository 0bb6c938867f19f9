package fetcher

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/config"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

const membersXPath = `//*[contains(text(), 'members')]`

// BrowserFallback renders a page in a real browser when the structured endpoint fails.
type BrowserFallback interface {
	FetchCount(ctx context.Context, target models.Target) (int, error)
	Close() error
}

// RodBrowser is a lazily launched headless Chrome driven by rod.
type RodBrowser struct {
	config    config.HeadlessBrowserConfig
	userAgent string
	logger    zerolog.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewRodBrowser creates the browser fallback. Nothing is launched until the first fetch.
func NewRodBrowser(cfg config.HeadlessBrowserConfig, userAgent string, logger zerolog.Logger) *RodBrowser {
	return &RodBrowser{
		config:    cfg,
		userAgent: userAgent,
		logger:    logger.With().Str("component", "RodBrowser").Logger(),
	}
}

// FetchCount loads the target page and reads the first integer from the element mentioning members.
func (b *RodBrowser) FetchCount(ctx context.Context, target models.Target) (int, error) {
	if !b.config.Enabled {
		return 0, newFetchError(models.ReasonUnavailable, ErrBrowserUnavailable)
	}

	browser, err := b.ensureBrowser(ctx)
	if err != nil {
		if classifyError(err) == models.ReasonTimeout {
			return 0, err
		}
		return 0, newFetchError(models.ReasonUnavailable, common.WrapError(err, ErrBrowserUnavailable.Error()))
	}

	var page *rod.Page
	if b.config.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return 0, common.WrapError(err, "failed to create page")
	}
	defer page.Close()

	if b.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.userAgent}); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to set user agent")
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.config.WaitTimeout())
	defer cancel()
	p := page.Context(waitCtx)

	if err := p.Navigate(target.URL); err != nil {
		return 0, common.NewNetworkError(target.URL, "navigation failed", err)
	}

	element, err := p.ElementX(membersXPath)
	if err != nil {
		if waitCtx.Err() != nil {
			return 0, newFetchError(models.ReasonTimeout, common.WrapError(err, "members element did not appear"))
		}
		return 0, common.WrapError(err, "failed to find members element")
	}

	text, err := element.Text()
	if err != nil {
		return 0, common.WrapError(err, "failed to read members element")
	}

	count, ok := ParseLeadingInteger(text)
	if !ok {
		return 0, newFetchError(models.ReasonParseMiss, ErrNoCountFound)
	}
	return count, nil
}

type launchResult struct {
	controlURL string
	err        error
}

// launchWithin runs launch and gives up after timeout or when ctx is done, calling kill.
func launchWithin(ctx context.Context, timeout time.Duration, launch func() (string, error), kill func()) (string, error) {
	launchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan launchResult, 1)
	go func() {
		controlURL, err := launch()
		done <- launchResult{controlURL: controlURL, err: err}
	}()

	select {
	case res := <-done:
		return res.controlURL, res.err
	case <-launchCtx.Done():
		kill()
		return "", newFetchError(models.ReasonTimeout, common.WrapError(launchCtx.Err(), "browser launch timed out"))
	}
}

func (b *RodBrowser) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	l := launcher.New().Headless(true)
	if b.config.ChromePath != "" {
		l = l.Bin(b.config.ChromePath)
	}
	for _, arg := range b.config.BrowserArgs {
		l = l.Set(flags.Flag(strings.TrimPrefix(arg, "--")))
	}
	l = l.Set("disable-blink-features", "AutomationControlled")

	controlURL, err := launchWithin(ctx, b.config.WaitTimeout(), l.Launch, l.Kill)
	if err != nil {
		return nil, common.WrapError(err, "failed to launch browser")
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, common.WrapError(err, "failed to connect browser")
	}

	b.browser = browser
	b.launcher = l
	b.logger.Info().Bool("stealth", b.config.Stealth).Msg("Headless browser started")
	return browser, nil
}

// Close shuts down the browser if it was started.
func (b *RodBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
		b.launcher = nil
	}
	return err
}
