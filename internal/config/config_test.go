package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-monitor
catalog:
  sheet_url: https://docs.google.com/spreadsheets/d/abc123/edit
source:
  api_key: test-key
  country: gb
notify:
  discord_webhook_url: https://discord.com/api/webhooks/1/x
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-monitor" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-monitor")
	}
	if cfg.Source.Country != "gb" {
		t.Errorf("Source.Country = %q, want %q", cfg.Source.Country, "gb")
	}
	if cfg.Notify.DiscordWebhookURL != "https://discord.com/api/webhooks/1/x" {
		t.Errorf("Notify.DiscordWebhookURL = %q", cfg.Notify.DiscordWebhookURL)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_SERPER_KEY", "secret123")

	yaml := `
instance:
  id: test-monitor
source:
  api_key: ${TEST_SERPER_KEY}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Source.APIKey != "secret123" {
		t.Errorf("Source.APIKey = %q, want %q", cfg.Source.APIKey, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-monitor
catalog:
  sheet_url: https://docs.google.com/spreadsheets/d/abc123/edit
source:
  api_key: test-key
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Source.APIURL != DefaultSourceURL {
		t.Errorf("Source.APIURL = %q, want default %q", cfg.Source.APIURL, DefaultSourceURL)
	}
	if cfg.Poller.Interval != 30*time.Minute {
		t.Errorf("Poller.Interval = %s, want 30m", cfg.Poller.Interval)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("Store.Backend = %q, want file", cfg.Store.Backend)
	}
	if cfg.Server.Port != 10000 {
		t.Errorf("Server.Port = %d, want 10000", cfg.Server.Port)
	}
	if len(cfg.Source.ExcludedRetailers) != 3 {
		t.Errorf("ExcludedRetailers = %v, want 3 defaults", cfg.Source.ExcludedRetailers)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *MonitorConfig {
		cfg := &MonitorConfig{}
		cfg.Instance.ID = "m1"
		cfg.Catalog.SheetURL = "https://docs.google.com/spreadsheets/d/abc/edit"
		cfg.Source.APIKey = "key"
		cfg.applyDefaults()
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config failed validation: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*MonitorConfig)
		wantErr string
	}{
		{
			name:    "missing instance id",
			mutate:  func(c *MonitorConfig) { c.Instance.ID = "" },
			wantErr: "instance.id",
		},
		{
			name:    "missing sheet url",
			mutate:  func(c *MonitorConfig) { c.Catalog.SheetURL = "" },
			wantErr: "catalog.sheet_url",
		},
		{
			name:    "missing api key",
			mutate:  func(c *MonitorConfig) { c.Source.APIKey = "" },
			wantErr: "source.api_key",
		},
		{
			name:    "bad direction",
			mutate:  func(c *MonitorConfig) { c.Detector.Direction = "sideways" },
			wantErr: "detector.direction",
		},
		{
			name:    "bad backend",
			mutate:  func(c *MonitorConfig) { c.Store.Backend = "redis" },
			wantErr: "store.backend",
		},
		{
			name: "postgres backend without host",
			mutate: func(c *MonitorConfig) {
				c.Store.Backend = "postgres"
			},
			wantErr: "store.postgres.host",
		},
		{
			name:    "bad port",
			mutate:  func(c *MonitorConfig) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
