package config

import (
	"errors"
	"fmt"
)

// Directions accepted by detector.direction.
var validDirections = map[string]bool{
	"any":           true,
	"decrease_only": true,
	"increase_only": true,
}

// Validate checks that all required fields are set and values are valid.
func (c *MonitorConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Catalog.SheetURL == "" {
		return errors.New("catalog.sheet_url is required")
	}

	if c.Source.APIKey == "" {
		return errors.New("source.api_key is required")
	}
	if c.Source.MaxResults < 1 {
		return errors.New("source.max_results must be >= 1")
	}

	if c.Detector.MinAbsoluteDelta < 0 {
		return errors.New("detector.min_absolute_delta must be >= 0")
	}
	if c.Detector.MinPercentDelta < 0 {
		return errors.New("detector.min_percent_delta must be >= 0")
	}
	if !validDirections[c.Detector.Direction] {
		return fmt.Errorf("detector.direction must be one of any, decrease_only, increase_only, got %q", c.Detector.Direction)
	}

	switch c.Store.Backend {
	case "file":
		if c.Store.FilePath == "" {
			return errors.New("store.file_path is required for the file backend")
		}
	case "postgres":
		if err := c.Store.Postgres.validate("store.postgres"); err != nil {
			return err
		}
		if c.Store.History.BatchSize < 1 {
			return errors.New("store.history.batch_size must be >= 1")
		}
	default:
		return fmt.Errorf("store.backend must be file or postgres, got %q", c.Store.Backend)
	}

	if c.Poller.Interval <= 0 {
		return errors.New("poller.interval must be > 0")
	}
	if c.Poller.MaxConsecutiveFailures < 1 {
		return errors.New("poller.max_consecutive_failures must be >= 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
