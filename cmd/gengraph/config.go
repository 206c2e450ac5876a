package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the project-local configuration file, resolved against the
// working directory.
const ConfigPath = ".gengraph/config.yaml"

// Config holds project-level defaults. Command-line flags override config
// values; config values override built-in defaults.
type Config struct {
	// Root is the default source tree to analyze.
	Root string `yaml:"root"`

	// Output is the default context document path.
	Output string `yaml:"output"`

	// Exclude adds glob patterns to the discovery exclusion set.
	Exclude []string `yaml:"exclude"`

	// Externals enables external dependency tracking.
	Externals bool `yaml:"externals"`

	// Workers overrides the analysis worker count.
	Workers int `yaml:"workers"`
}

// LoadConfig reads the project config if present. A missing file yields an
// empty config; a malformed file is an error.
func LoadConfig() (*Config, error) {
	data, err := os.ReadFile(filepath.FromSlash(ConfigPath))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", ConfigPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigPath, err)
	}

	return &cfg, nil
}

// rootOr returns the flag value, then the config value, then the fallback.
func (c *Config) rootOr(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	if c.Root != "" {
		return c.Root
	}
	return fallback
}

// outputOr returns the flag value, then the config value, then the fallback.
func (c *Config) outputOr(flag, fallback string) string {
	if flag != "" {
		return flag
	}
	if c.Output != "" {
		return c.Output
	}
	return fallback
}
