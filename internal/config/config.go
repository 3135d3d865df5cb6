// Package config loads pyscope project configuration from .pyscope.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Filename is the project configuration file looked up under the root.
const Filename = ".pyscope.yaml"

// Config is the project-level configuration. Values omitted from the file
// keep their defaults.
type Config struct {
	Runner      RunnerConfig  `yaml:"runner"`
	Monitor     MonitorConfig `yaml:"monitor"`
	RootMarkers []string      `yaml:"root_markers"`
}

// RunnerConfig controls how test targets are launched. Command is an argv
// prefix; the dotted target is appended as the final argument.
type RunnerConfig struct {
	Command        []string `yaml:"command"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// MonitorConfig controls the open-file warning.
type MonitorConfig struct {
	MaxOpenFiles         int `yaml:"max_open_files"`
	CheckIntervalSeconds int `yaml:"check_interval_seconds"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Runner: RunnerConfig{
			Command:        []string{"python", "-m", "unittest"},
			TimeoutSeconds: 300,
		},
		Monitor: MonitorConfig{
			MaxOpenFiles:         10,
			CheckIntervalSeconds: 300,
		},
		RootMarkers: []string{"pyproject.toml", "setup.py", "setup.cfg", ".git"},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// LoadDir loads root/.pyscope.yaml, falling back to defaults when the file
// does not exist.
func LoadDir(root string) (*Config, error) {
	cfg, err := Load(filepath.Join(root, Filename))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) validate() error {
	if len(c.Runner.Command) == 0 {
		return fmt.Errorf("runner.command must not be empty")
	}
	if c.Runner.TimeoutSeconds <= 0 {
		return fmt.Errorf("runner.timeout_seconds must be positive, got %d", c.Runner.TimeoutSeconds)
	}
	if c.Monitor.MaxOpenFiles <= 0 {
		return fmt.Errorf("monitor.max_open_files must be positive, got %d", c.Monitor.MaxOpenFiles)
	}
	if c.Monitor.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("monitor.check_interval_seconds must be positive, got %d", c.Monitor.CheckIntervalSeconds)
	}
	if len(c.RootMarkers) == 0 {
		return fmt.Errorf("root_markers must not be empty")
	}
	return nil
}

// RunnerTimeout returns the runner timeout as a duration.
func (c *Config) RunnerTimeout() time.Duration {
	return time.Duration(c.Runner.TimeoutSeconds) * time.Second
}

// CheckInterval returns the monitor period as a duration.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Monitor.CheckIntervalSeconds) * time.Second
}
