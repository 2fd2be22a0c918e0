package simulation

import (
	"context"
	"testing"

	"github.com/nvandessel/spikeloop/internal/dataset"
	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/network"
)

// Runner executes scenarios for tests, building a fresh network per run.
type Runner struct {
	t *testing.T
}

// NewRunner creates a scenario runner.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	return &Runner{t: t}
}

// Run executes the scenario and returns the collected results.
func (r *Runner) Run(scenario Scenario) TrainResult {
	r.t.Helper()

	ds, err := dataset.ByName(scenario.Dataset)
	if err != nil {
		r.t.Fatalf("Run(%s): %v", scenario.Name, err)
	}

	hidden := scenario.Hidden
	if len(hidden) == 0 {
		hidden = []int{4, 4}
	}
	timesteps := scenario.Timesteps
	if timesteps == 0 {
		timesteps = 40
	}
	cfg := network.DefaultConfig()
	if scenario.Config != nil {
		cfg = *scenario.Config
	}

	net, err := network.NewLayered(ds.Inputs, ds.Outputs, hidden, cfg, layer.NewRNG(scenario.Seed))
	if err != nil {
		r.t.Fatalf("Run(%s): build network: %v", scenario.Name, err)
	}
	if scenario.Frozen {
		net.SetLearning(false)
	}

	trainer, err := NewTrainer(net, ds, timesteps, Hooks{})
	if err != nil {
		r.t.Fatalf("Run(%s): %v", scenario.Name, err)
	}

	result := &TrainResult{Network: net}
	for epoch := 0; epoch < scenario.Epochs; epoch++ {
		if scenario.BeforeEpoch != nil {
			scenario.BeforeEpoch(epoch, net)
		}
		partial, err := trainer.RunEpochs(context.Background(), 1)
		if err != nil {
			r.t.Fatalf("Run(%s): epoch %d: %v", scenario.Name, epoch, err)
		}
		er := partial.Epochs[0]
		er.Index = epoch
		for i := range er.Episodes {
			er.Episodes[i].Epoch = epoch
		}
		result.Epochs = append(result.Epochs, er)
	}
	return *result
}
