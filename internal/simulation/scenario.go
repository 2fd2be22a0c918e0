package simulation

import (
	"github.com/nvandessel/spikeloop/internal/network"
	"github.com/nvandessel/spikeloop/internal/synapse"
)

// Scenario defines a complete training experiment.
type Scenario struct {
	Name    string
	Dataset string // "xor", "or", "and"
	Hidden  []int  // hidden layer widths; defaults to [4, 4]
	Seed    uint64
	Epochs  int
	// Timesteps per presented sample; defaults to 40.
	Timesteps int

	// Config overrides the engine defaults when non-nil.
	Config *network.Config

	// Frozen disables plasticity for the whole run.
	Frozen bool

	// BeforeEpoch, when non-nil, is called before each epoch executes.
	// Use it to toggle learning or perturb the network mid-run.
	BeforeEpoch func(epoch int, net *network.Network)
}

// EpisodeResult captures the outcome of presenting one sample.
type EpisodeResult struct {
	Epoch        int
	SampleIndex  int
	Positive     bool
	Goodness     float64
	Loss         float64
	OutputSpikes int
}

// EpochResult aggregates one pass over the dataset.
type EpochResult struct {
	Index    int
	Episodes []EpisodeResult

	// WeightStats holds one entry per synapse, sampled after the epoch.
	WeightStats []synapse.WeightStats
}

// MeanGoodness returns the mean end-of-episode goodness over episodes of
// the given polarity. Returns 0 if no episode matches.
func (e EpochResult) MeanGoodness(positive bool) float64 {
	sum, n := 0.0, 0
	for _, ep := range e.Episodes {
		if ep.Positive == positive {
			sum += ep.Goodness
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// TrainResult captures all epochs and the final network.
type TrainResult struct {
	Epochs  []EpochResult
	Network *network.Network
}

// FinalEpoch returns the last epoch result.
func (r TrainResult) FinalEpoch() EpochResult {
	return r.Epochs[len(r.Epochs)-1]
}

// Separation returns the positive-minus-negative mean goodness of an epoch.
func (r TrainResult) Separation(epoch int) float64 {
	e := r.Epochs[epoch]
	return e.MeanGoodness(true) - e.MeanGoodness(false)
}
