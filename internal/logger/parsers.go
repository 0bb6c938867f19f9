package logger

import (
	"strings"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/rs/zerolog"
)

// ParseLevel parses string log level to zerolog.Level
func ParseLevel(levelStr string) (zerolog.Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(levelStr))
	if normalized == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(normalized)
	if err != nil {
		return zerolog.InfoLevel, common.WrapError(err, "invalid log level")
	}
	return level, nil
}

// ParseFormat parses string format to LogFormat, defaulting to console
func ParseFormat(formatStr string) LogFormat {
	switch strings.ToLower(strings.TrimSpace(formatStr)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatConsole
	}
}
