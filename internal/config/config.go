package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the agent configuration, loaded from a YAML file.
type Config struct {
	Watch struct {
		Paths  []string `yaml:"paths"`  // directories (or files) to monitor
		Mounts bool     `yaml:"mounts"` // follow removable media on/off
	} `yaml:"watch"`

	Ignore []string `yaml:"ignore"` // glob patterns dropped before delivery

	Journal string `yaml:"journal"` // sqlite path, empty disables journaling

	Inspect struct {
		Enabled    bool `yaml:"enabled"`    // magic-byte check on changed files
		Quarantine bool `yaml:"quarantine"` // rename HIGH-risk masquerades away
	} `yaml:"inspect"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{LogLevel: "info"}
	cfg.Inspect.Enabled = true
	return cfg
}

// Load reads path into a Config. A missing file is not an error: the
// defaults apply and paths come from the command line.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}
