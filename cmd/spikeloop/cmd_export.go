package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spikeloop/internal/recorder"
	"github.com/nvandessel/spikeloop/internal/store"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a run's episodes to an Arrow IPC file",
		Long: `Export a run's episode records (epoch, sample, polarity, goodness,
loss, output spikes) to an Arrow IPC file for external analysis.

Example:
  spikeloop export 4f1c... -o episodes.arrow`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			jsonOut, _ := cmd.Flags().GetBool("json")
			runID := args[0]

			if output == "" {
				output = runID + "-episodes.arrow"
			}

			rs, err := store.Open(cfg.Store.Dir)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer rs.Close()

			ctx := context.Background()

			// Fails fast on an unknown run ID.
			if _, err := rs.GetRun(ctx, runID); err != nil {
				return err
			}

			episodes, err := rs.Episodes(ctx, runID)
			if err != nil {
				return err
			}

			if err := recorder.WriteEpisodes(output, episodes); err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"run_id":   runID,
					"path":     output,
					"episodes": len(episodes),
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d episodes to %s\n", len(episodes), output)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (default: <run-id>-episodes.arrow)")

	return cmd
}
