package logger

import (
	"io"
	stdlog "log"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/aleister1102/membertrack/internal/config"
	"github.com/rs/zerolog"
)

// LoggerBuilder provides fluent interface for building loggers
type LoggerBuilder struct {
	config  LoggerConfig
	factory *WriterFactory
}

// NewLoggerBuilder creates a new logger builder
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		config:  DefaultLoggerConfig(),
		factory: NewWriterFactory(),
	}
}

// WithConfig sets the logger configuration from the application log section
func (lb *LoggerBuilder) WithConfig(cfg config.LogConfig) *LoggerBuilder {
	runID := lb.config.RunID
	lb.config = ConvertConfig(cfg)
	lb.config.RunID = runID
	return lb
}

func (lb *LoggerBuilder) WithLevel(level zerolog.Level) *LoggerBuilder {
	lb.config.Level = level
	return lb
}

func (lb *LoggerBuilder) WithFormat(format LogFormat) *LoggerBuilder {
	lb.config.Format = format
	return lb
}

func (lb *LoggerBuilder) WithConsole(enabled bool) *LoggerBuilder {
	lb.config.EnableConsole = enabled
	return lb
}

// WithFile enables rotating file output
func (lb *LoggerBuilder) WithFile(path string, maxSizeMB, maxBackups int) *LoggerBuilder {
	lb.config.EnableFile = path != ""
	lb.config.FilePath = path
	lb.config.MaxSizeMB = maxSizeMB
	lb.config.MaxBackups = maxBackups
	return lb
}

// WithRunID sets the collection run ID for organizing logs by run
func (lb *LoggerBuilder) WithRunID(runID string) *LoggerBuilder {
	lb.config.RunID = runID
	return lb
}

// Build creates the logger instance
func (lb *LoggerBuilder) Build() (*Logger, error) {
	if err := lb.validateConfig(); err != nil {
		return nil, err
	}

	var writers []io.Writer
	var closers []io.Closer
	if lb.config.EnableConsole {
		writers = append(writers, lb.factory.CreateConsoleWriter(lb.config.Format))
	}
	if lb.config.EnableFile {
		w, c := lb.factory.CreateFileWriter(lb.config)
		writers = append(writers, w)
		closers = append(closers, c)
	}
	if len(writers) == 0 {
		return nil, common.NewError("no output writers configured")
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.config.Level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(lb.config.Level)
	stdlog.SetOutput(zl)
	stdlog.SetFlags(0)

	return &Logger{
		zerolog: zl,
		config:  lb.config,
		closers: closers,
	}, nil
}

func (lb *LoggerBuilder) validateConfig() error {
	if lb.config.EnableFile && lb.config.FilePath == "" {
		return common.NewValidationError("file_path", lb.config.FilePath, "file path required when file logging enabled")
	}
	if lb.config.EnableFile && lb.config.MaxSizeMB <= 0 {
		return common.NewValidationError("max_size_mb", lb.config.MaxSizeMB, "max size must be positive")
	}
	return nil
}
