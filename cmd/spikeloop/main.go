package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/spikeloop/internal/config"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "spikeloop",
		Short: "Spiking neural network simulator with local contrastive plasticity",
		Long: `spikeloop simulates leaky integrate-and-fire networks that learn with
a local, contrastive, signal-dependent plasticity rule.

Networks are driven by Bernoulli spike encoders, train on contrastive
sample pairs, and persist runs, episodes, and weight statistics to a
local SQLite store.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ~/.spikeloop/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newTrainCmd(),
		newRunCmd(),
		newRunsCmd(),
		newTopologyCmd(),
		newExportCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}

// loadConfig resolves the effective configuration: the --config file when
// given, otherwise the default lookup chain (defaults, ~/.spikeloop/config.yaml,
// environment).
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "spikeloop version %s\n", version)
			}
		},
	}
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the spikeloop store directory and default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("failed to get home directory: %w", err)
				}
				dir = filepath.Join(home, ".spikeloop")
			}

			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}

			configPath := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				cfg := config.Default()
				cfg.Store.Dir = dir
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				header := fmt.Sprintf("# spikeloop configuration\n# created: %s\n", time.Now().Format(time.RFC3339))
				if err := os.WriteFile(configPath, append([]byte(header), data...), 0644); err != nil {
					return fmt.Errorf("failed to write config.yaml: %w", err)
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "initialized",
					"path":   dir,
				})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Initialized spikeloop store at %s\n", dir)
			}
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Store directory (default: ~/.spikeloop)")

	return cmd
}
