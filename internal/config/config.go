package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aleister1102/membertrack/internal/common"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// maxConfigFileSize caps the config file read
const maxConfigFileSize = 10 * 1024 * 1024

type GlobalConfig struct {
	Mode                  string                `json:"mode,omitempty" yaml:"mode,omitempty" validate:"required,mode"`
	TargetsConfig         TargetsConfig         `json:"targets_config,omitempty" yaml:"targets_config,omitempty"`
	FetcherConfig         FetcherConfig         `json:"fetcher_config,omitempty" yaml:"fetcher_config,omitempty"`
	HeadlessBrowserConfig HeadlessBrowserConfig `json:"headless_browser_config,omitempty" yaml:"headless_browser_config,omitempty"`
	StorageConfig         StorageConfig         `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	LogConfig             LogConfig             `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	NotificationConfig    NotificationConfig    `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	SchedulerConfig       SchedulerConfig       `json:"scheduler_config,omitempty" yaml:"scheduler_config,omitempty"`
}

func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Mode:                  ModeOnetime,
		TargetsConfig:         NewDefaultTargetsConfig(),
		FetcherConfig:         NewDefaultFetcherConfig(),
		HeadlessBrowserConfig: NewDefaultHeadlessBrowserConfig(),
		StorageConfig:         NewDefaultStorageConfig(),
		LogConfig:             NewDefaultLogConfig(),
		NotificationConfig:    NewDefaultNotificationConfig(),
		SchedulerConfig:       NewDefaultSchedulerConfig(),
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// YAML is used for .yaml/.yml files, JSON otherwise. Values absent from the file keep their defaults.
func LoadGlobalConfig(providedPath string, logger zerolog.Logger) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	if providedPath != "" && !fileExists(providedPath) {
		return nil, common.NewValidationError("config_file", providedPath, "config file does not exist")
	}

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		logger.Info().Msg("No config file found, using defaults")
		return cfg, nil
	}

	data, err := readConfigFile(filePath)
	if err != nil {
		return nil, common.WrapError(err, "failed to load config file content")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, common.WrapError(err, "failed to parse config content")
	}

	logger.Debug().Str("path", filePath).Msg("Loaded config file")
	return cfg, nil
}

func readConfigFile(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSize {
		return nil, common.NewValidationError("config_file", filePath, "config file too large")
	}
	return os.ReadFile(filePath)
}

func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	if isYAMLFile(filepath.Ext(filePath)) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}

func isYAMLFile(ext string) bool {
	return ext == ".yaml" || ext == ".yml"
}
