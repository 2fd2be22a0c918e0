package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spikeloop/internal/config"
	"github.com/nvandessel/spikeloop/internal/dataset"
	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/logging"
	"github.com/nvandessel/spikeloop/internal/network"
	"github.com/nvandessel/spikeloop/internal/recorder"
	"github.com/nvandessel/spikeloop/internal/simulation"
	"github.com/nvandessel/spikeloop/internal/store"
	"github.com/nvandessel/spikeloop/internal/topology"
	"github.com/nvandessel/spikeloop/internal/visualization"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a network on a contrastive dataset",
		Long: `Train a network with contrastive signal-dependent plasticity.

Every epoch presents each dataset sample for a fixed number of timesteps.
Episodes, per-synapse weight statistics, and a final checkpoint are
persisted to the run store.

Examples:
  spikeloop train --dataset xor --epochs 50
  spikeloop train --dataset or --hidden 8,4 --record raster.arrow
  spikeloop train --dataset xor --serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyTrainFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			datasetName, _ := cmd.Flags().GetString("dataset")
			record, _ := cmd.Flags().GetString("record")
			serve, _ := cmd.Flags().GetBool("serve")
			noOpen, _ := cmd.Flags().GetBool("no-open")
			jsonOut, _ := cmd.Flags().GetBool("json")

			ds, err := dataset.ByName(datasetName)
			if err != nil {
				return err
			}

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

			net, spec, err := buildNetwork(cfg, ds)
			if err != nil {
				return err
			}

			rs, err := store.Open(cfg.Store.Dir)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer rs.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			notifySignals(sigChan)
			go func() {
				<-sigChan
				logger.Info("interrupted, stopping training")
				cancel()
			}()

			runID, err := rs.CreateRun(ctx, store.Run{
				Seed:      cfg.Simulation.Seed,
				DT:        cfg.Simulation.DT,
				Timesteps: cfg.Simulation.Timesteps,
				Epochs:    cfg.Simulation.Epochs,
				Dataset:   ds.Name,
				Topology:  cfg.Simulation.TopologyPath,
			})
			if err != nil {
				return fmt.Errorf("create run: %w", err)
			}

			hooks := simulation.Hooks{
				Logger: logger,
				Tracer: logging.NewTraceLogger(cfg.Store.Dir, cfg.Logging.Level),
				Store:  rs,
				RunID:  runID,
			}
			if hooks.Tracer != nil {
				defer hooks.Tracer.Close()
			}

			if record != "" {
				raster, err := recorder.NewRasterWriter(record)
				if err != nil {
					return fmt.Errorf("open raster file: %w", err)
				}
				defer raster.Close()
				hooks.Raster = raster
			}

			if serve {
				board := visualization.NewBoard()
				hooks.Board = board
				srv := visualization.NewServer(board, spec)
				go func() {
					if err := srv.ListenAndServe(ctx); err != nil {
						logger.Error("dashboard server failed", "error", err)
					}
				}()
				addr := waitForAddr(srv, 2*time.Second)
				if addr != "" {
					url := "http://" + addr
					logger.Info("dashboard serving", "url", url)
					if !noOpen {
						if err := visualization.OpenBrowser(url); err != nil {
							fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
						}
					}
				}
			}

			trainer, err := simulation.NewTrainer(net, ds, cfg.Simulation.Timesteps, hooks)
			if err != nil {
				return err
			}

			logger.Info("training started",
				"run_id", runID,
				"dataset", ds.Name,
				"epochs", cfg.Simulation.Epochs,
				"timesteps", cfg.Simulation.Timesteps,
				"seed", cfg.Simulation.Seed)

			result, err := trainer.RunEpochs(ctx, cfg.Simulation.Epochs)
			if err != nil {
				rs.FinishRun(context.Background(), runID, store.StatusFailed)
				return fmt.Errorf("training failed: %w", err)
			}

			cpData, err := json.Marshal(net.Checkpoint())
			if err != nil {
				return fmt.Errorf("marshal checkpoint: %w", err)
			}
			if err := rs.SaveCheckpoint(ctx, runID, int64(net.Steps()), cpData); err != nil {
				return fmt.Errorf("save checkpoint: %w", err)
			}
			if err := rs.FinishRun(ctx, runID, store.StatusComplete); err != nil {
				return fmt.Errorf("finish run: %w", err)
			}

			final := result.FinalEpoch()
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"run_id":       runID,
					"dataset":      ds.Name,
					"epochs":       len(result.Epochs),
					"steps":        net.Steps(),
					"goodness_pos": final.MeanGoodness(true),
					"goodness_neg": final.MeanGoodness(false),
					"separation":   result.Separation(len(result.Epochs) - 1),
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Training complete: run %s\n", runID)
			fmt.Fprintf(cmd.OutOrStdout(), "  Dataset:    %s\n", ds.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "  Epochs:     %d\n", len(result.Epochs))
			fmt.Fprintf(cmd.OutOrStdout(), "  Steps:      %d\n", net.Steps())
			fmt.Fprintf(cmd.OutOrStdout(), "  Goodness:   %.4f (positive) / %.4f (negative)\n",
				final.MeanGoodness(true), final.MeanGoodness(false))
			return nil
		},
	}

	cmd.Flags().String("dataset", "xor", "Dataset to train on (xor, or, and)")
	cmd.Flags().Int("epochs", 0, "Number of training epochs (overrides config)")
	cmd.Flags().Int("timesteps", 0, "Timesteps per sample presentation (overrides config)")
	cmd.Flags().IntSlice("hidden", nil, "Hidden layer widths (overrides config)")
	cmd.Flags().Uint64("seed", 0, "RNG seed (overrides config)")
	cmd.Flags().String("topology", "", "Topology YAML file (overrides config)")
	cmd.Flags().String("record", "", "Record spike rasters to an Arrow IPC file")
	cmd.Flags().Bool("serve", false, "Serve a live dashboard while training")
	cmd.Flags().Bool("no-open", false, "Don't open the browser when serving the dashboard")

	return cmd
}

// applyTrainFlags overlays explicitly-set command flags on the loaded config.
func applyTrainFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("epochs") {
		cfg.Simulation.Epochs, _ = cmd.Flags().GetInt("epochs")
	}
	if cmd.Flags().Changed("timesteps") {
		cfg.Simulation.Timesteps, _ = cmd.Flags().GetInt("timesteps")
	}
	if cmd.Flags().Changed("hidden") {
		cfg.Simulation.Hidden, _ = cmd.Flags().GetIntSlice("hidden")
	}
	if cmd.Flags().Changed("seed") {
		cfg.Simulation.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	if cmd.Flags().Changed("topology") {
		cfg.Simulation.TopologyPath, _ = cmd.Flags().GetString("topology")
	}
}

// buildNetwork constructs the network either from a topology file or from
// the standard layered shape for the dataset's widths.
func buildNetwork(cfg *config.Config, ds *dataset.Dataset) (*network.Network, *topology.Spec, error) {
	netCfg := network.DefaultConfig()
	netCfg.DT = cfg.Simulation.DT
	rng := layer.NewRNG(cfg.Simulation.Seed)

	if cfg.Simulation.TopologyPath != "" {
		spec, err := topology.LoadFile(cfg.Simulation.TopologyPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load topology: %w", err)
		}
		net, err := network.Build(spec, netCfg, rng)
		if err != nil {
			return nil, nil, err
		}
		return net, spec, nil
	}

	net, err := network.NewLayered(ds.Inputs, ds.Outputs, cfg.Simulation.Hidden, netCfg, rng)
	if err != nil {
		return nil, nil, err
	}
	return net, net.Spec(), nil
}

// waitForAddr polls the server until it has bound a listener.
func waitForAddr(srv *visualization.Server, timeout time.Duration) string {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if addr := srv.Addr(); addr != "" {
			return addr
		}
		time.Sleep(10 * time.Millisecond)
	}
	return ""
}
