package config

// SchedulerConfig defines configuration for automated mode
type SchedulerConfig struct {
	CycleMinutes  int `json:"cycle_minutes,omitempty" yaml:"cycle_minutes,omitempty" validate:"min=1"`
	RetryAttempts int `json:"retry_attempts,omitempty" yaml:"retry_attempts,omitempty" validate:"min=0"`
}

// NewDefaultSchedulerConfig creates default scheduler configuration
func NewDefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CycleMinutes:  DefaultSchedulerCycleMinutes,
		RetryAttempts: DefaultSchedulerRetryAttempts,
	}
}
