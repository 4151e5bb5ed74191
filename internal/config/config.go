// Package config loads the server configuration from a YAML file, with
// sensible defaults when the file is absent.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr        = ":8080"
	defaultSaveDelayMS = 750
	defaultLogLevel    = "info"
)

// ServerConfig models the http block.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
}

// WizardConfig models wizard tunables.
type WizardConfig struct {
	SaveDelayMS int `yaml:"save_delay_ms"`
}

// LogConfig models logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full runtime configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Wizard WizardConfig `yaml:"wizard"`
	Log    LogConfig    `yaml:"log"`

	// SchemaDir optionally overrides the embedded questionnaires with a
	// directory of YAML files.
	SchemaDir string `yaml:"schema_dir"`
}

// Load reads the config file at path. A missing file yields defaults; a
// malformed one is an error. An empty path checks FILINGWIZ_CONFIG and then
// falls back to defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("FILINGWIZ_CONFIG")
	}
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            defaultAddr,
			ReadTimeoutSec:  15,
			WriteTimeoutSec: 30,
		},
		Wizard: WizardConfig{SaveDelayMS: defaultSaveDelayMS},
		Log:    LogConfig{Level: defaultLogLevel, Format: "text"},
	}
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = 15
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = 30
	}
	if c.Wizard.SaveDelayMS < 0 {
		c.Wizard.SaveDelayMS = 0
	}
	if c.Wizard.SaveDelayMS == 0 {
		c.Wizard.SaveDelayMS = defaultSaveDelayMS
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Log.Format) == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// SaveDelay returns the wizard debounce as a duration.
func (c *Config) SaveDelay() time.Duration {
	return time.Duration(c.Wizard.SaveDelayMS) * time.Millisecond
}

// ReadTimeout returns the HTTP read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSec) * time.Second
}

// WriteTimeout returns the HTTP write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSec) * time.Second
}
