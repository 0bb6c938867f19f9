package logger

import (
	"github.com/aleister1102/membertrack/internal/config"
	"github.com/rs/zerolog"
)

// ConvertConfig maps the file-level log section onto a LoggerConfig.
func ConvertConfig(cfg config.LogConfig) LoggerConfig {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	maxSize := cfg.MaxLogSizeMB
	if maxSize <= 0 {
		maxSize = config.DefaultMaxLogSizeMB
	}
	maxBackups := cfg.MaxLogBackups
	if maxBackups <= 0 {
		maxBackups = config.DefaultMaxLogBackups
	}

	return LoggerConfig{
		Level:         level,
		Format:        ParseFormat(cfg.LogFormat),
		EnableConsole: true,
		EnableFile:    cfg.LogFile != "",
		FilePath:      cfg.LogFile,
		MaxSizeMB:     maxSize,
		MaxBackups:    maxBackups,
		UseSubdirs:    true,
	}
}
