package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvAPIURL, "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 30*time.Second, time.Duration(cfg.Timeout))
	require.Equal(t, filepath.Join(Dir(), "session.json"), cfg.Store.Path)
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	p := writeConfig(t, `
base_url: https://api.example.com
timeout: 5s
store:
  driver: sqlite
  path: /tmp/geocam/session.db
capture:
  dir: /tmp/geocam/shots
location:
  mode: static
  latitude: -23.5
  longitude: -46.6
log_level: debug
`)
	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com", cfg.BaseURL)
	require.Equal(t, 5*time.Second, time.Duration(cfg.Timeout))
	require.Equal(t, StoreConfig{Driver: "sqlite", Path: "/tmp/geocam/session.db"}, cfg.Store)
	require.Equal(t, "/tmp/geocam/shots", cfg.Capture.Dir)
	require.Equal(t, LocationStatic, cfg.Location.Mode)
	require.Equal(t, -23.5, *cfg.Location.Latitude)
	require.Equal(t, -46.6, *cfg.Location.Longitude)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_EnvOverridesBaseURL(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://10.0.0.2:9000")
	cfg, err := LoadConfig(writeConfig(t, "base_url: https://api.example.com\n"))
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.2:9000", cfg.BaseURL)
}

func TestLoadConfig_SqliteDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvAPIURL, "")
	cfg, err := LoadConfig(writeConfig(t, "store:\n  driver: sqlite\n"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(Dir(), "session.db"), cfg.Store.Path)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	cases := map[string]string{
		"bad yaml":       "base_url: [",
		"bad duration":   "timeout: soon\n",
		"negative":       "timeout: -1s\n",
		"unknown driver": "store:\n  driver: keychain\n",
		"static w/o lat": "location:\n  mode: static\n  longitude: 1\n",
		"file w/o path":  "location:\n  mode: file\n",
		"unknown mode":   "location:\n  mode: gps\n",
		"empty base url": "base_url: \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestDuration_MarshalYAML(t *testing.T) {
	v, err := Duration(90 * time.Second).MarshalYAML()
	require.NoError(t, err)
	require.Equal(t, "1m30s", v)
}
