package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spikeloop/internal/store"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded training runs",
	}

	cmd.AddCommand(newRunsListCmd(), newRunsShowCmd())

	return cmd
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")

			rs, err := store.Open(cfg.Store.Dir)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer rs.Close()

			runs, err := rs.ListRuns(context.Background(), limit)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet. Use 'spikeloop train' to create one.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded runs (%d):\n\n", len(runs))
			for i, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s [%s]\n", i+1, r.ID, r.Status)
				fmt.Fprintf(cmd.OutOrStdout(), "   Dataset: %s, epochs: %d, timesteps: %d, seed: %d\n",
					r.Dataset, r.Epochs, r.Timesteps, r.Seed)
				fmt.Fprintf(cmd.OutOrStdout(), "   Created: %s\n", r.CreatedAt.Format(time.RFC3339))
				if r.FinishedAt != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "   Finished: %s\n", r.FinishedAt.Format(time.RFC3339))
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")

	return cmd
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run's episodes and goodness summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			runID := args[0]

			rs, err := store.Open(cfg.Store.Dir)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer rs.Close()

			ctx := context.Background()

			run, err := rs.GetRun(ctx, runID)
			if err != nil {
				return err
			}
			episodes, err := rs.Episodes(ctx, runID)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"run":      run,
					"episodes": episodes,
					"count":    len(episodes),
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s [%s]\n", run.ID, run.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "  Dataset: %s, epochs: %d, timesteps: %d, seed: %d\n\n",
				run.Dataset, run.Epochs, run.Timesteps, run.Seed)

			if len(episodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No episodes recorded.")
				return nil
			}

			// Per-epoch goodness means, split by polarity.
			type agg struct {
				posSum, negSum float64
				pos, neg       int
			}
			byEpoch := map[int]*agg{}
			maxEpoch := 0
			for _, e := range episodes {
				a := byEpoch[e.Epoch]
				if a == nil {
					a = &agg{}
					byEpoch[e.Epoch] = a
				}
				if e.Positive {
					a.posSum += e.Goodness
					a.pos++
				} else {
					a.negSum += e.Goodness
					a.neg++
				}
				if e.Epoch > maxEpoch {
					maxEpoch = e.Epoch
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Episodes: %d\n\n", len(episodes))
			fmt.Fprintln(cmd.OutOrStdout(), "Epoch  Goodness(+)  Goodness(-)")
			for epoch := 0; epoch <= maxEpoch; epoch++ {
				a := byEpoch[epoch]
				if a == nil {
					continue
				}
				pos, neg := 0.0, 0.0
				if a.pos > 0 {
					pos = a.posSum / float64(a.pos)
				}
				if a.neg > 0 {
					neg = a.negSum / float64(a.neg)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%5d  %11.4f  %11.4f\n", epoch, pos, neg)
			}
			return nil
		},
	}

	return cmd
}
