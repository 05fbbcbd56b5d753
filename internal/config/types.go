package config

// Config is the full on-disk configuration.
//
// Durations are strings ("5s", "1m30s") so the yaml stays readable; use
// ParseDurationOrDefault when mapping them into component configs.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type TelegramConfig struct {
	Token       string `yaml:"token"`
	SendTimeout string `yaml:"send_timeout"` // per-send deadline, default 10s
	RatePerSec  int    `yaml:"rate_per_sec"` // outgoing message budget, default 3
}

type StorageConfig struct {
	Path        string `yaml:"path"`
	BusyTimeout string `yaml:"busy_timeout"` // sqlite busy_timeout pragma
	OpTimeout   string `yaml:"op_timeout"`   // per-operation deadline, default 5s
}

type SchedulerConfig struct {
	// Timezone is the single process-wide IANA zone every trigger is
	// evaluated in. There are no per-user timezones.
	Timezone        string `yaml:"timezone"`
	Workers         int    `yaml:"workers"`
	DeliveryTimeout string `yaml:"delivery_timeout"` // per-fire deadline, default 10s
}

type LoggingConfig struct {
	Level   string            `yaml:"level"`
	Console bool              `yaml:"console"`
	File    LoggingFileConfig `yaml:"file"`
}

type LoggingFileConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}
