package config

import "time"

// HeadlessBrowserConfig configures the browser fallback for structured-api targets
type HeadlessBrowserConfig struct {
	Enabled         bool     `json:"enabled" yaml:"enabled"`
	ChromePath      string   `json:"chrome_path,omitempty" yaml:"chrome_path,omitempty"`
	WaitTimeoutSecs int      `json:"wait_timeout_secs,omitempty" yaml:"wait_timeout_secs,omitempty" validate:"omitempty,min=1"`
	Stealth         bool     `json:"stealth" yaml:"stealth"`
	BrowserArgs     []string `json:"browser_args,omitempty" yaml:"browser_args,omitempty"`
}

func NewDefaultHeadlessBrowserConfig() HeadlessBrowserConfig {
	return HeadlessBrowserConfig{
		Enabled:         false,
		WaitTimeoutSecs: DefaultHeadlessWaitTimeoutSecs,
		Stealth:         true,
		BrowserArgs:     []string{"no-sandbox", "disable-dev-shm-usage", "disable-gpu"},
	}
}

// WaitTimeout returns how long to wait for the members element
func (c HeadlessBrowserConfig) WaitTimeout() time.Duration {
	if c.WaitTimeoutSecs <= 0 {
		return DefaultHeadlessWaitTimeoutSecs * time.Second
	}
	return time.Duration(c.WaitTimeoutSecs) * time.Second
}
