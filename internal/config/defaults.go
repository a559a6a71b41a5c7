package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultSourceURL        = "https://google.serper.dev/shopping"
	DefaultSourceCountry    = "uk"
	DefaultSourceLanguage   = "en"
	DefaultSourceLocation   = "London, England, United Kingdom"
	DefaultSourceMaxResults = 20
	DefaultSourceTimeout    = 15 * time.Second
	DefaultCatalogTimeout   = 10 * time.Second
	DefaultNotifyUsername   = "Price Monitor"
	DefaultNotifyTimeout    = 10 * time.Second
	DefaultStoreBackend     = "file"
	DefaultStoreFilePath    = "data/monitor-state.json"
	DefaultHistoryBatch     = 100
	DefaultHistoryFlush     = 5 * time.Second
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultPollInterval     = 30 * time.Minute
	DefaultItemDelay        = 5 * time.Second
	DefaultMaxFailures      = 3
	DefaultServerPort       = 10000
	DefaultMinPercentDelta  = 5.0
	DefaultDirection        = "any"
)

// DefaultExcludedRetailers are filtered out of every source response.
var DefaultExcludedRetailers = []string{"shein", "amazon", "ebay"}

func (c *MonitorConfig) applyDefaults() {
	// Catalog defaults
	if c.Catalog.Timeout == 0 {
		c.Catalog.Timeout = DefaultCatalogTimeout
	}

	// Source defaults
	if c.Source.APIURL == "" {
		c.Source.APIURL = DefaultSourceURL
	}
	if c.Source.Country == "" {
		c.Source.Country = DefaultSourceCountry
	}
	if c.Source.Language == "" {
		c.Source.Language = DefaultSourceLanguage
	}
	if c.Source.Location == "" {
		c.Source.Location = DefaultSourceLocation
	}
	if c.Source.MaxResults == 0 {
		c.Source.MaxResults = DefaultSourceMaxResults
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = DefaultSourceTimeout
	}
	if c.Source.ExcludedRetailers == nil {
		c.Source.ExcludedRetailers = DefaultExcludedRetailers
	}

	// Detector defaults
	if c.Detector.MinPercentDelta == 0 {
		c.Detector.MinPercentDelta = DefaultMinPercentDelta
	}
	if c.Detector.Direction == "" {
		c.Detector.Direction = DefaultDirection
	}

	// Notify defaults
	if c.Notify.Username == "" {
		c.Notify.Username = DefaultNotifyUsername
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = DefaultNotifyTimeout
	}

	// Store defaults
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultStoreBackend
	}
	if c.Store.FilePath == "" {
		c.Store.FilePath = DefaultStoreFilePath
	}
	if c.Store.History.BatchSize == 0 {
		c.Store.History.BatchSize = DefaultHistoryBatch
	}
	if c.Store.History.FlushInterval == 0 {
		c.Store.History.FlushInterval = DefaultHistoryFlush
	}
	applyDBDefaults(&c.Store.Postgres)

	// Poller defaults
	if c.Poller.Interval == 0 {
		c.Poller.Interval = DefaultPollInterval
	}
	if c.Poller.ItemDelay == 0 {
		c.Poller.ItemDelay = DefaultItemDelay
	}
	if c.Poller.MaxConsecutiveFailures == 0 {
		c.Poller.MaxConsecutiveFailures = DefaultMaxFailures
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
