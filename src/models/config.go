package models

// -----------------------------------------------------------------------------
// Configuration structures, loaded from YAML by src/config.
// -----------------------------------------------------------------------------

type MConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`

	// Fixed display offset in hours, applied by the time codec.
	Timezone int `yaml:"timezone"`

	Feed     MFeedConfig     `yaml:"feed"`
	Snapshot MSnapshotConfig `yaml:"snapshot"`
	Network  MNetworkConfig  `yaml:"network"`
}

// -----------------------------------------------------------------------------

type MFeedConfig struct {
	URL    string `yaml:"url"`
	Symbol string `yaml:"symbol"`

	// Minute digit that triggers a snapshot reload, e.g. "5" reloads on
	// HH:05, HH:15, HH:25 and so on.
	TriggerDigit string `yaml:"trigger_digit"`

	ReconnectBaseDelaySeconds int `yaml:"reconnect_base_delay_seconds"`
	ReconnectMaxDelaySeconds  int `yaml:"reconnect_max_delay_seconds"`
}

// -----------------------------------------------------------------------------

type MSnapshotConfig struct {
	// "archive" fetches one zip with the logical files inside, "files"
	// fetches the discrete resources.
	Mode string `yaml:"mode"`

	BaseURL     string `yaml:"base_url"`
	ArchiveName string `yaml:"archive_name"`

	// Fallback refresh schedule for when the feed is down and no tick can
	// trigger a reload.
	FallbackCron string `yaml:"fallback_cron"`
}

// -----------------------------------------------------------------------------

type MNetworkConfig struct {
	RequestTimeout int `yaml:"request_timeout"`
	MaxRetries     int `yaml:"max_retries"`
	RetryBaseDelay int `yaml:"retry_base_delay"`
}
