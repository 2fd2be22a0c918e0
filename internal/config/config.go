// Package config provides unified configuration loading for spikeloop.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config contains all spikeloop configuration settings.
type Config struct {
	// Simulation contains time stepping and training parameters.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Store contains settings for run persistence.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig configures the integration loop and training schedule.
type SimulationConfig struct {
	// DT is the integration time step in milliseconds.
	DT float64 `json:"dt" yaml:"dt"`

	// Seed initializes the random number generators for encoders
	// and weight initialization. Runs with the same seed and inputs
	// are bit-for-bit reproducible.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Timesteps is the number of integration steps per presented sample.
	Timesteps int `json:"timesteps" yaml:"timesteps"`

	// Epochs is the number of passes over the dataset during training.
	Epochs int `json:"epochs" yaml:"epochs"`

	// TopologyPath optionally points to a YAML topology description.
	// When empty, the standard layered topology is built from Hidden.
	TopologyPath string `json:"topology_path,omitempty" yaml:"topology_path,omitempty"`

	// Hidden lists hidden layer widths for the standard topology.
	Hidden []int `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	// Dir is the directory holding the run database and exports.
	Dir string `json:"dir" yaml:"dir"`
}

// LoggingConfig configures spikeloop's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables step tracing to trace.jsonl.
	// "trace" additionally includes per-step spike and goodness detail.
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			DT:        0.1,
			Seed:      42,
			Timesteps: 40,
			Epochs:    50,
			Hidden:    []int{4, 4},
		},
		Store: StoreConfig{
			Dir: ".spikeloop",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.spikeloop/config.yaml -> environment variables
func Load() (*Config, error) {
	config := Default()

	// Try to load from default config file
	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".spikeloop", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Simulation.DT <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Simulation.DT)
	}

	if c.Simulation.Timesteps <= 0 {
		return fmt.Errorf("timesteps must be positive, got %d", c.Simulation.Timesteps)
	}

	if c.Simulation.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Simulation.Epochs)
	}

	for i, w := range c.Simulation.Hidden {
		if w <= 0 {
			return fmt.Errorf("hidden layer %d width must be positive, got %d", i, w)
		}
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("SPIKELOOP_DT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Simulation.DT = f
		}
	}

	if v := os.Getenv("SPIKELOOP_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}

	if v := os.Getenv("SPIKELOOP_TIMESTEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Timesteps = n
		}
	}

	if v := os.Getenv("SPIKELOOP_EPOCHS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Epochs = n
		}
	}

	if v := os.Getenv("SPIKELOOP_TOPOLOGY"); v != "" {
		config.Simulation.TopologyPath = v
	}

	if v := os.Getenv("SPIKELOOP_STORE_DIR"); v != "" {
		config.Store.Dir = v
	}

	if v := os.Getenv("SPIKELOOP_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}
