package config

const (
	// Fetcher Defaults
	DefaultFetcherUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultFetcherTimeoutSecs      = 10
	DefaultFetcherDelayMillis      = 1000
	DefaultFetcherFallbackSelector = "div.tgme_page_extra"
	DefaultFetcherAPIBaseURL       = "https://discord.com/api/v10"

	// Headless Browser Defaults
	DefaultHeadlessWaitTimeoutSecs = 10

	// Storage Defaults
	DefaultStorageSQLitePath = "data/member_counts.db"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Scheduler Defaults
	DefaultSchedulerCycleMinutes  = 1440 // daily
	DefaultSchedulerRetryAttempts = 0

	// ConfigPathEnv overrides the config file location
	ConfigPathEnv = "MEMBERTRACK_CONFIG_PATH"
)

// Collector modes
const (
	ModeOnetime   = "onetime"
	ModeAutomated = "automated"
	ModeReport    = "report"
	ModeExport    = "export"
)
