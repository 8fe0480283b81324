package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
files:
  contacts_csv_path: contacts.csv
  messages_path: messages.yaml
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "en-US", cfg.Browser.Locale)
	assert.Equal(t, 60, cfg.Browser.QRTimeoutSeconds)
	assert.Equal(t, 30, cfg.Browser.PageLoadTimeout)
	assert.Equal(t, 20, cfg.Automation.MinIntervalSeconds)
	assert.Equal(t, 45, cfg.Automation.MaxIntervalSeconds)
	assert.Equal(t, "selectors.json", cfg.Files.SelectorsPath)
	assert.Equal(t, "completed.csv", cfg.Files.CompletedCSVPath)
	assert.True(t, filepath.IsAbs(cfg.Browser.UserDataDir), "relative profile paths are resolved")
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
browser:
  headless: true
  locale: es-MX
  qr_timeout_seconds: 120
automation:
  min_interval_seconds: 5
  max_interval_seconds: 10
  keep_browser_open: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "es-MX", cfg.Browser.Locale)
	assert.Equal(t, 120, cfg.Browser.QRTimeoutSeconds)
	assert.Equal(t, 5, cfg.Automation.MinIntervalSeconds)
	assert.Equal(t, 10, cfg.Automation.MaxIntervalSeconds)
	assert.True(t, cfg.Automation.KeepBrowserOpen)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "browser: [not: a map")
	_, err := Load(path)
	assert.Error(t, err)
}
