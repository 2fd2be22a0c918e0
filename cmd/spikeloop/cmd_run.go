package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/network"
	"github.com/nvandessel/spikeloop/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Present one sample to a trained network",
		Long: `Rebuild a network from a run's latest checkpoint and present a single
sample with frozen weights.

Example:
  spikeloop run --input 1,0 --context 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			runID, _ := cmd.Flags().GetString("run")
			input, _ := cmd.Flags().GetFloat64Slice("input")
			contextDrive, _ := cmd.Flags().GetFloat64Slice("context")
			timesteps, _ := cmd.Flags().GetInt("timesteps")
			jsonOut, _ := cmd.Flags().GetBool("json")

			if len(input) == 0 {
				return fmt.Errorf("--input is required")
			}
			if timesteps <= 0 {
				timesteps = cfg.Simulation.Timesteps
			}

			rs, err := store.Open(cfg.Store.Dir)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer rs.Close()

			ctx := context.Background()

			if runID == "" {
				runs, err := rs.ListRuns(ctx, 1)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
				if len(runs) == 0 {
					return fmt.Errorf("no runs found; train a network first")
				}
				runID = runs[0].ID
			}

			run, err := rs.GetRun(ctx, runID)
			if err != nil {
				return err
			}

			cpData, step, err := rs.LatestCheckpoint(ctx, runID)
			if err != nil {
				return fmt.Errorf("load checkpoint: %w", err)
			}
			var cp network.Checkpoint
			if err := json.Unmarshal(cpData, &cp); err != nil {
				return fmt.Errorf("decode checkpoint: %w", err)
			}

			netCfg := network.DefaultConfig()
			netCfg.DT = run.DT
			net, err := network.Build(cp.Spec, netCfg, layer.NewRNG(run.Seed))
			if err != nil {
				return fmt.Errorf("rebuild network: %w", err)
			}
			if err := net.Restore(&cp); err != nil {
				return err
			}

			if contextDrive == nil {
				ctxLayer, err := net.Layer(1)
				if err != nil {
					return err
				}
				contextDrive = make([]float64, ctxLayer.Size())
			}

			res, err := net.Process(input, contextDrive, timesteps, false)
			if err != nil {
				return err
			}

			out, err := net.Layer(net.NumLayers() - 1)
			if err != nil {
				return err
			}
			lif, ok := out.(*layer.LIF)
			if !ok {
				return fmt.Errorf("output layer %s is not a LIF layer", out.Name())
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"run_id":          runID,
					"checkpoint_step": step,
					"timesteps":       timesteps,
					"output":          res.Final,
					"goodness":        lif.Goodness(),
					"loss":            lif.Loss(),
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s (checkpoint at step %d)\n", runID, step)
			fmt.Fprintf(cmd.OutOrStdout(), "  Input:    %v\n", input)
			fmt.Fprintf(cmd.OutOrStdout(), "  Context:  %v\n", contextDrive)
			fmt.Fprintf(cmd.OutOrStdout(), "  Output:   %v\n", res.Final)
			fmt.Fprintf(cmd.OutOrStdout(), "  Goodness: %.4f\n", lif.Goodness())
			fmt.Fprintf(cmd.OutOrStdout(), "  Loss:     %.4f\n", lif.Loss())
			return nil
		},
	}

	cmd.Flags().String("run", "", "Run ID to load (default: most recent run)")
	cmd.Flags().Float64Slice("input", nil, "Input drive vector (required)")
	cmd.Flags().Float64Slice("context", nil, "Context drive vector (default: zeros)")
	cmd.Flags().Int("timesteps", 0, "Timesteps to present (default: run's configured timesteps)")

	return cmd
}
