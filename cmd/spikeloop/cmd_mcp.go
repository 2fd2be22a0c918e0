package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spikeloop/internal/mcp"
	"github.com/nvandessel/spikeloop/internal/network"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Run a Model Context Protocol server exposing a live network to agent
clients over stdio.

Tools: spikeloop_process, spikeloop_topology, spikeloop_weights,
spikeloop_pause.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			inputs, _ := cmd.Flags().GetInt("inputs")
			outputs, _ := cmd.Flags().GetInt("outputs")
			hidden, _ := cmd.Flags().GetIntSlice("hidden")
			if len(hidden) == 0 {
				hidden = cfg.Simulation.Hidden
			}

			netCfg := network.DefaultConfig()
			netCfg.DT = cfg.Simulation.DT

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "spikeloop",
				Version: version,
				Inputs:  inputs,
				Outputs: outputs,
				Hidden:  hidden,
				Seed:    cfg.Simulation.Seed,
				Network: &netCfg,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().Int("inputs", 2, "Input encoder width")
	cmd.Flags().Int("outputs", 1, "Output layer width")
	cmd.Flags().IntSlice("hidden", nil, "Hidden layer widths (default: config)")

	return cmd
}
