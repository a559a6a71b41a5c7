package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pricewatch/internal/config"
)

func TestBuild_FileBackend(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")

	cfgYAML := `
instance:
  id: test-monitor
catalog:
  sheet_url: https://docs.google.com/spreadsheets/d/1AbCdEfGh123/edit#gid=0
source:
  api_key: test-key
store:
  backend: file
  file_path: ` + statePath + `
`
	cfgPath := filepath.Join(dir, "monitor.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	cfg, err := config.LoadAndValidate(cfgPath)
	require.NoError(t, err)

	a, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, a.Monitor)
	require.NotNil(t, a.Catalog)
	require.NotNil(t, a.Store)

	// No webhook configured: alerts fall back to the log notifier, and the
	// single cleanup path closes the store without a history writer.
	a.Close(context.Background())
}

func TestBuild_BadSheetURL(t *testing.T) {
	dir := t.TempDir()
	cfgYAML := `
instance:
  id: test-monitor
catalog:
  sheet_url: https://example.com/not-a-sheet
source:
  api_key: test-key
store:
  backend: file
  file_path: ` + filepath.Join(dir, "state.json") + `
`
	cfgPath := filepath.Join(dir, "monitor.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	cfg, err := config.LoadAndValidate(cfgPath)
	require.NoError(t, err)

	_, err = Build(context.Background(), cfg, nil)
	require.Error(t, err)
}
