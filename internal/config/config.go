// Package config loads the client configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvAPIURL overrides base_url when set.
const EnvAPIURL = "GEOCAM_API_URL"

// Location modes.
const (
	LocationPrompt = "prompt" // ask on the terminal
	LocationStatic = "static" // latitude/longitude from config or flags
	LocationFile   = "file"   // latest fix from fix_file
	LocationOff    = "off"    // always deny
)

// Config is the client configuration.
type Config struct {
	BaseURL  string         `yaml:"base_url"`
	Timeout  Duration       `yaml:"timeout"`
	Store    StoreConfig    `yaml:"store"`
	Capture  CaptureConfig  `yaml:"capture"`
	Location LocationConfig `yaml:"location"`
	LogLevel string         `yaml:"log_level"`
}

// StoreConfig selects the session store driver.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// CaptureConfig holds capture settings.
type CaptureConfig struct {
	Dir string `yaml:"dir"`
}

// LocationConfig selects how positions are obtained.
type LocationConfig struct {
	Mode      string   `yaml:"mode"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
	FixFile   string   `yaml:"fix_file"`
	MaxAge    Duration `yaml:"max_age"`
}

// Duration is a time.Duration written as "30s" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	v, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config.Duration: failed to parse: %s", err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Dir is the per-user configuration directory.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "geocam")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "geocam")
}

// DefaultPath is where the config file is looked up when no path is given.
func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

// Default returns the built-in configuration.
func Default() *Config {
	dir := Dir()
	return &Config{
		BaseURL:  "http://localhost:8080",
		Timeout:  Duration(30 * time.Second),
		Store:    StoreConfig{Driver: "file", Path: filepath.Join(dir, "session.json")},
		Capture:  CaptureConfig{Dir: filepath.Join(dir, "captures")},
		Location: LocationConfig{Mode: LocationPrompt},
		LogLevel: "info",
	}
}

// LoadConfig reads path over the defaults. A missing file yields the defaults.
// The GEOCAM_API_URL environment variable wins over base_url.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.BaseURL = v
	}
	if cfg.Store.Driver == "sqlite" && filepath.Ext(cfg.Store.Path) == ".json" {
		cfg.Store.Path = filepath.Join(filepath.Dir(cfg.Store.Path), "session.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field combinations.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base_url is required")
	}
	if c.Timeout < 0 {
		return errors.New("config: timeout must not be negative")
	}
	switch c.Store.Driver {
	case "memory":
	case "file", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("config: store.path is required for driver %q", c.Store.Driver)
		}
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	switch c.Location.Mode {
	case LocationPrompt, LocationOff:
	case LocationStatic:
		if c.Location.Latitude == nil || c.Location.Longitude == nil {
			return errors.New("config: location.latitude and location.longitude are required in static mode")
		}
	case LocationFile:
		if c.Location.FixFile == "" {
			return errors.New("config: location.fix_file is required in file mode")
		}
	default:
		return fmt.Errorf("config: unknown location.mode %q", c.Location.Mode)
	}
	return nil
}
