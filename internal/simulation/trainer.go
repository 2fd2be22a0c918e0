package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/spikeloop/internal/dataset"
	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/logging"
	"github.com/nvandessel/spikeloop/internal/network"
	"github.com/nvandessel/spikeloop/internal/recorder"
	"github.com/nvandessel/spikeloop/internal/store"
	"github.com/nvandessel/spikeloop/internal/visualization"
)

// Hooks are the optional collaborators a Trainer reports to. Every field
// may be nil (or empty); the trainer only does the work that has a consumer.
type Hooks struct {
	// Logger receives operational progress. Nil disables logging.
	Logger *slog.Logger

	// Tracer receives rate-limited per-episode diagnostic events.
	Tracer *logging.TraceLogger

	// Store persists episodes and weight statistics under RunID.
	Store *store.RunStore
	RunID string

	// Board receives a state snapshot after every timestep and is polled
	// for the pause flag between timesteps.
	Board *visualization.Board

	// Raster receives the full spike raster, one record batch per episode.
	Raster *recorder.RasterWriter
}

// Trainer runs contrastive training epochs over a network and dataset.
type Trainer struct {
	net       *network.Network
	ds        *dataset.Dataset
	timesteps int
	hooks     Hooks
}

// NewTrainer validates widths and builds a trainer. The dataset's input and
// output widths must match the network's encoder layers.
func NewTrainer(net *network.Network, ds *dataset.Dataset, timesteps int, hooks Hooks) (*Trainer, error) {
	if timesteps <= 0 {
		return nil, fmt.Errorf("simulation: timesteps must be positive, got %d", timesteps)
	}
	in, err := net.Layer(0)
	if err != nil {
		return nil, err
	}
	if in.Size() != ds.Inputs {
		return nil, fmt.Errorf("simulation: dataset %s has %d inputs, network expects %d", ds.Name, ds.Inputs, in.Size())
	}
	return &Trainer{net: net, ds: ds, timesteps: timesteps, hooks: hooks}, nil
}

// RunEpochs presents the whole dataset once per epoch and returns the
// collected results. Cancelling the context stops between episodes.
func (tr *Trainer) RunEpochs(ctx context.Context, epochs int) (*TrainResult, error) {
	if epochs <= 0 {
		return nil, fmt.Errorf("simulation: epochs must be positive, got %d", epochs)
	}

	result := &TrainResult{Network: tr.net}
	for epoch := 0; epoch < epochs; epoch++ {
		er := EpochResult{Index: epoch}
		for i, sample := range tr.ds.Samples() {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			ep, err := tr.runEpisode(ctx, epoch, i, sample)
			if err != nil {
				return result, err
			}
			er.Episodes = append(er.Episodes, ep)
		}

		if err := tr.sampleWeights(ctx, &er); err != nil {
			return result, err
		}
		result.Epochs = append(result.Epochs, er)

		if tr.hooks.Logger != nil {
			tr.hooks.Logger.Debug("epoch complete",
				"epoch", epoch,
				"dataset", tr.ds.Name,
				"goodness_pos", er.MeanGoodness(true),
				"goodness_neg", er.MeanGoodness(false))
		}
	}
	return result, nil
}

// runEpisode presents one sample for the configured number of timesteps.
func (tr *Trainer) runEpisode(ctx context.Context, epoch, index int, sample dataset.Sample) (EpisodeResult, error) {
	tr.net.SetSamplePolarity(sample.Positive)
	tr.net.Reset()

	spec := tr.net.Spec()
	outputSpikes := 0
	for t := 0; t < tr.timesteps; t++ {
		if err := tr.waitWhilePaused(ctx); err != nil {
			return EpisodeResult{}, err
		}
		if err := tr.net.Step(sample.Input, sample.Context); err != nil {
			return EpisodeResult{}, err
		}

		for _, s := range tr.net.Output() {
			if s != 0 {
				outputSpikes++
			}
		}

		if tr.hooks.Raster != nil {
			for i := 0; i < tr.net.NumLayers(); i++ {
				l, err := tr.net.Layer(i)
				if err != nil {
					return EpisodeResult{}, err
				}
				tr.hooks.Raster.Append(int64(t), spec.LayerName(i), l.Output())
			}
		}
		if tr.hooks.Board != nil {
			tr.hooks.Board.Publish(tr.net.Snapshot())
		}
	}

	ep := EpisodeResult{
		Epoch:        epoch,
		SampleIndex:  index,
		Positive:     sample.Positive,
		OutputSpikes: outputSpikes,
	}
	if out, ok := tr.outputLIF(); ok {
		ep.Goodness = out.Goodness()
		ep.Loss = out.Loss()
	}

	if tr.hooks.Raster != nil {
		if err := tr.hooks.Raster.FlushEpisode(); err != nil {
			return EpisodeResult{}, err
		}
	}
	if tr.hooks.Store != nil {
		err := tr.hooks.Store.RecordEpisode(ctx, store.Episode{
			RunID:        tr.hooks.RunID,
			Epoch:        epoch,
			SampleIndex:  index,
			Positive:     sample.Positive,
			Goodness:     ep.Goodness,
			Loss:         ep.Loss,
			OutputSpikes: outputSpikes,
		})
		if err != nil {
			return EpisodeResult{}, err
		}
	}
	tr.hooks.Tracer.LogLimited("episode", map[string]any{
		"epoch":         epoch,
		"sample":        index,
		"positive":      sample.Positive,
		"goodness":      ep.Goodness,
		"loss":          ep.Loss,
		"output_spikes": outputSpikes,
	})

	return ep, nil
}

// waitWhilePaused blocks while the board's pause flag is set.
func (tr *Trainer) waitWhilePaused(ctx context.Context) error {
	if tr.hooks.Board == nil {
		return nil
	}
	for tr.hooks.Board.Paused() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

// sampleWeights captures per-synapse weight statistics into the epoch
// result and, when a store is attached, persists them keyed by the
// network's global step counter.
func (tr *Trainer) sampleWeights(ctx context.Context, er *EpochResult) error {
	var rows []store.WeightStat
	for i := 0; i < tr.net.NumSynapses(); i++ {
		s, err := tr.net.Synapse(i)
		if err != nil {
			return err
		}
		st := s.Stats()
		er.WeightStats = append(er.WeightStats, st)
		if tr.hooks.Store != nil {
			rows = append(rows, store.WeightStat{
				RunID:   tr.hooks.RunID,
				Step:    int64(tr.net.Steps()),
				Synapse: i,
				Mean:    st.Mean,
				Std:     st.Std,
				Min:     st.Min,
				Max:     st.Max,
			})
		}
	}
	if len(rows) > 0 {
		return tr.hooks.Store.RecordWeightStats(ctx, rows)
	}
	return nil
}

// outputLIF returns the output layer when it is a LIF population.
func (tr *Trainer) outputLIF() (*layer.LIF, bool) {
	l, err := tr.net.Layer(tr.net.NumLayers() - 1)
	if err != nil {
		return nil, false
	}
	lif, ok := l.(*layer.LIF)
	return lif, ok
}
