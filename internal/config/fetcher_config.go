package config

import "time"

// FetcherConfig controls outbound requests made while collecting counts
type FetcherConfig struct {
	UserAgent        string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	TimeoutSecs      int               `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"omitempty,min=1"`
	DelayMillis      int               `json:"delay_millis,omitempty" yaml:"delay_millis,omitempty" validate:"omitempty,min=0"`
	FallbackSelector string            `json:"fallback_selector,omitempty" yaml:"fallback_selector,omitempty"`
	APIBaseURL       string            `json:"api_base_url,omitempty" yaml:"api_base_url,omitempty" validate:"omitempty,url"`
	CustomHeaders    map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`
}

func NewDefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		UserAgent:        DefaultFetcherUserAgent,
		TimeoutSecs:      DefaultFetcherTimeoutSecs,
		DelayMillis:      DefaultFetcherDelayMillis,
		FallbackSelector: DefaultFetcherFallbackSelector,
		APIBaseURL:       DefaultFetcherAPIBaseURL,
		CustomHeaders:    map[string]string{},
	}
}

// Timeout returns the per-request timeout
func (c FetcherConfig) Timeout() time.Duration {
	if c.TimeoutSecs <= 0 {
		return DefaultFetcherTimeoutSecs * time.Second
	}
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Delay returns the pause inserted between page fetches
func (c FetcherConfig) Delay() time.Duration {
	if c.DelayMillis < 0 {
		return 0
	}
	return time.Duration(c.DelayMillis) * time.Millisecond
}
