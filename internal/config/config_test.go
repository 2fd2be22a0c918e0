package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	config := Default()

	if config.Simulation.DT != 0.1 {
		t.Errorf("expected DT 0.1, got %f", config.Simulation.DT)
	}
	if config.Simulation.Seed != 42 {
		t.Errorf("expected Seed 42, got %d", config.Simulation.Seed)
	}
	if config.Simulation.Timesteps != 40 {
		t.Errorf("expected Timesteps 40, got %d", config.Simulation.Timesteps)
	}
	if config.Simulation.Epochs != 50 {
		t.Errorf("expected Epochs 50, got %d", config.Simulation.Epochs)
	}
	if len(config.Simulation.Hidden) != 2 || config.Simulation.Hidden[0] != 4 || config.Simulation.Hidden[1] != 4 {
		t.Errorf("expected Hidden [4 4], got %v", config.Simulation.Hidden)
	}
	if config.Store.Dir != ".spikeloop" {
		t.Errorf("expected Store.Dir '.spikeloop', got '%s'", config.Store.Dir)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
simulation:
  dt: 0.05
  seed: 7
  timesteps: 80
  epochs: 100
  hidden: [8, 8, 8]

store:
  dir: /tmp/runs

logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Simulation.DT != 0.05 {
		t.Errorf("expected DT 0.05, got %f", config.Simulation.DT)
	}
	if config.Simulation.Seed != 7 {
		t.Errorf("expected Seed 7, got %d", config.Simulation.Seed)
	}
	if config.Simulation.Timesteps != 80 {
		t.Errorf("expected Timesteps 80, got %d", config.Simulation.Timesteps)
	}
	if config.Simulation.Epochs != 100 {
		t.Errorf("expected Epochs 100, got %d", config.Simulation.Epochs)
	}
	if len(config.Simulation.Hidden) != 3 {
		t.Errorf("expected 3 hidden layers, got %v", config.Simulation.Hidden)
	}
	if config.Store.Dir != "/tmp/runs" {
		t.Errorf("expected Store.Dir '/tmp/runs', got '%s'", config.Store.Dir)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: trace
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Logging.Level != "trace" {
		t.Errorf("expected Logging.Level 'trace', got '%s'", config.Logging.Level)
	}
	// Unspecified sections keep defaults
	if config.Simulation.Timesteps != 40 {
		t.Errorf("expected default Timesteps 40, got %d", config.Simulation.Timesteps)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SPIKELOOP_DT", "0.2")
	t.Setenv("SPIKELOOP_SEED", "99")
	t.Setenv("SPIKELOOP_TIMESTEPS", "20")
	t.Setenv("SPIKELOOP_EPOCHS", "5")
	t.Setenv("SPIKELOOP_STORE_DIR", "/var/spikeloop")
	t.Setenv("SPIKELOOP_LOG_LEVEL", "debug")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.DT != 0.2 {
		t.Errorf("expected DT 0.2, got %f", config.Simulation.DT)
	}
	if config.Simulation.Seed != 99 {
		t.Errorf("expected Seed 99, got %d", config.Simulation.Seed)
	}
	if config.Simulation.Timesteps != 20 {
		t.Errorf("expected Timesteps 20, got %d", config.Simulation.Timesteps)
	}
	if config.Simulation.Epochs != 5 {
		t.Errorf("expected Epochs 5, got %d", config.Simulation.Epochs)
	}
	if config.Store.Dir != "/var/spikeloop" {
		t.Errorf("expected Store.Dir '/var/spikeloop', got '%s'", config.Store.Dir)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestEnvOverrides_MalformedValuesIgnored(t *testing.T) {
	t.Setenv("SPIKELOOP_DT", "not-a-number")
	t.Setenv("SPIKELOOP_TIMESTEPS", "forty")

	config := Default()
	applyEnvOverrides(config)

	if config.Simulation.DT != 0.1 {
		t.Errorf("malformed DT override should be ignored, got %f", config.Simulation.DT)
	}
	if config.Simulation.Timesteps != 40 {
		t.Errorf("malformed Timesteps override should be ignored, got %d", config.Simulation.Timesteps)
	}
}

func TestValidate_Valid(t *testing.T) {
	config := Default()
	if err := config.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Simulation.DT = 0 }},
		{"negative dt", func(c *Config) { c.Simulation.DT = -0.1 }},
		{"zero timesteps", func(c *Config) { c.Simulation.Timesteps = 0 }},
		{"negative epochs", func(c *Config) { c.Simulation.Epochs = -1 }},
		{"zero hidden width", func(c *Config) { c.Simulation.Hidden = []int{4, 0} }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			if err := config.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_ValidLogLevels(t *testing.T) {
	validLevels := []string{"", "info", "debug", "trace"}

	for _, level := range validLevels {
		t.Run(level, func(t *testing.T) {
			config := Default()
			config.Logging.Level = level
			if err := config.Validate(); err != nil {
				t.Errorf("expected log level '%s' to be valid, got error: %v", level, err)
			}
		})
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
simulation:
  dt: [invalid yaml
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := LoadFromFile(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}
