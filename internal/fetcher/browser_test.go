package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aleister1102/membertrack/internal/config"
	"github.com/aleister1102/membertrack/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLaunchWithin_HungLaunchIsKilled(t *testing.T) {
	release := make(chan struct{})
	killed := make(chan struct{}, 1)

	launch := func() (string, error) {
		<-release
		return "", errors.New("process killed")
	}
	kill := func() {
		killed <- struct{}{}
		close(release)
	}

	start := time.Now()
	_, err := launchWithin(context.Background(), 50*time.Millisecond, launch, kill)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, models.ReasonTimeout, classifyError(err))

	select {
	case <-killed:
	default:
		t.Fatal("launcher was not killed after the timeout")
	}
}

func TestLaunchWithin_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := make(chan struct{})
	defer close(block)

	var killedCalls int
	_, err := launchWithin(ctx, time.Minute, func() (string, error) {
		<-block
		return "", nil
	}, func() { killedCalls++ })
	require.Error(t, err)
	assert.Equal(t, 1, killedCalls)
}

func TestLaunchWithin_Success(t *testing.T) {
	url, err := launchWithin(context.Background(), time.Second, func() (string, error) {
		return "ws://127.0.0.1:9222/devtools", nil
	}, func() { t.Fatal("kill must not be called") })
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:9222/devtools", url)
}

func TestRodBrowser_DisabledIsUnavailable(t *testing.T) {
	b := NewRodBrowser(config.HeadlessBrowserConfig{Enabled: false}, "", zerolog.Nop())
	_, err := b.FetchCount(context.Background(), models.Target{Name: "Discord", URL: "https://discord.gg/x"})
	assert.Equal(t, models.ReasonUnavailable, classifyError(err))
	assert.ErrorIs(t, err, ErrBrowserUnavailable)
	assert.NoError(t, b.Close())
}
