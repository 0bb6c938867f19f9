package config

// StorageConfig defines where snapshots are persisted
type StorageConfig struct {
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty" validate:"required"`
}

func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		SQLitePath: DefaultStorageSQLitePath,
	}
}
