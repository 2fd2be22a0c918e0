package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig writes a minimal config pointing the store at a temp
// directory and returns its path.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	storeDir := filepath.Join(dir, "store")
	content := fmt.Sprintf(`simulation:
  dt: 0.1
  seed: 7
  timesteps: 5
  epochs: 1
  hidden: [4]
store:
  dir: %s
logging:
  level: info
`, storeDir)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// execute runs the root command with args and returns stdout. Stderr is
// captured separately so log lines cannot leak into parsed output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("output %q missing version %q", out, version)
	}
}

func TestVersionCmd_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version --json: %v", err)
	}
	var result map[string]string
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output %q: %v", out, err)
	}
	if result["version"] != version {
		t.Errorf("version = %q, want %q", result["version"], version)
	}
}

func TestInitCmd(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spikeloop-home")

	out, err := execute(t, "init", "--dir", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, dir) {
		t.Errorf("output %q missing directory %q", out, dir)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config.yaml not created: %v", err)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spikeloop-home")

	if _, err := execute(t, "init", "--dir", dir); err != nil {
		t.Fatalf("first init: %v", err)
	}

	// A second init must not clobber the existing config.
	marker := []byte("# touched\n")
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, marker, 0644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if _, err := execute(t, "init", "--dir", dir); err != nil {
		t.Fatalf("second init: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !bytes.Equal(data, marker) {
		t.Error("second init overwrote existing config.yaml")
	}
}

func TestRunsListCmd_Empty(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	out, err := execute(t, "runs", "list", "--config", configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	if !strings.Contains(out, "No runs recorded") {
		t.Errorf("output %q missing empty-store message", out)
	}
}

func TestExportCmd_UnknownRun(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	if _, err := execute(t, "export", "nonexistent", "--config", configPath); err == nil {
		t.Error("expected error for unknown run ID")
	}
}

func TestRunCmd_NoRuns(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir())

	if _, err := execute(t, "run", "--input", "1,0", "--config", configPath); err == nil {
		t.Error("expected error when no runs exist")
	}
}
