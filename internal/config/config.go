package config

import "time"

// MonitorConfig is the root configuration for a monitor instance.
type MonitorConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Source   SourceConfig   `yaml:"source"`
	Detector DetectorConfig `yaml:"detector"`
	Notify   NotifyConfig   `yaml:"notify"`
	Store    StoreConfig    `yaml:"store"`
	Poller   PollerConfig   `yaml:"poller"`
	Server   ServerConfig   `yaml:"server"`
}

// InstanceConfig identifies this monitor.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// CatalogConfig holds the tracked-item catalog settings.
type CatalogConfig struct {
	SheetURL string        `yaml:"sheet_url"` // Google Sheet URL (converted to CSV export form)
	Timeout  time.Duration `yaml:"timeout"`
}

// SourceConfig holds price source (Serper.dev shopping API) settings.
type SourceConfig struct {
	APIURL            string        `yaml:"api_url"`
	APIKey            string        `yaml:"api_key"` // X-API-KEY header value
	Country           string        `yaml:"country"` // gl parameter, e.g. "uk"
	Language          string        `yaml:"language"`
	Location          string        `yaml:"location"`
	MaxResults        int           `yaml:"max_results"`
	Timeout           time.Duration `yaml:"timeout"`
	ExcludedRetailers []string      `yaml:"excluded_retailers"`
}

// DetectorConfig holds the default change policy. Per-item drop thresholds
// from the catalog sheet override MinPercentDelta for that item.
type DetectorConfig struct {
	MinAbsoluteDelta float64 `yaml:"min_absolute_delta"`
	MinPercentDelta  float64 `yaml:"min_percent_delta"`
	Direction        string  `yaml:"direction"` // any, decrease_only, increase_only
}

// NotifyConfig holds alert delivery settings.
type NotifyConfig struct {
	DiscordWebhookURL string        `yaml:"discord_webhook_url"`
	Username          string        `yaml:"username"`
	Timeout           time.Duration `yaml:"timeout"`
}

// StoreConfig holds state persistence settings.
type StoreConfig struct {
	Backend  string        `yaml:"backend"`   // "file" or "postgres"
	FilePath string        `yaml:"file_path"` // file backend only
	Postgres DBConfig      `yaml:"postgres"`  // postgres backend only
	History  HistoryConfig `yaml:"history"`
}

// HistoryConfig holds price-history recorder settings (postgres backend only).
type HistoryConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// PollerConfig holds scheduler settings.
type PollerConfig struct {
	Interval               time.Duration `yaml:"interval"`
	ItemDelay              time.Duration `yaml:"item_delay"` // pause between items within a cycle
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures"`
}

// ServerConfig holds status server settings (web variant only).
type ServerConfig struct {
	Port int `yaml:"port"`
}
