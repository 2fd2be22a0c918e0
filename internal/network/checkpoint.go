package network

import (
	"fmt"

	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/topology"
)

// Checkpoint captures the learned state of a network: every synapse's weight
// matrix plus the adapted threshold of every LIF layer. Transient state
// (membranes, spikes, traces) is deliberately excluded; restoring a
// checkpoint is equivalent to resuming after a Reset.
type Checkpoint struct {
	Spec       *topology.Spec `json:"spec"`
	Weights    [][]float64    `json:"weights"`
	Thresholds []float64      `json:"thresholds"`
}

// Checkpoint exports the network's learned state.
func (n *Network) Checkpoint() *Checkpoint {
	cp := &Checkpoint{
		Spec:       n.spec,
		Weights:    make([][]float64, len(n.synapses)),
		Thresholds: make([]float64, len(n.layers)),
	}
	for i, s := range n.synapses {
		cp.Weights[i] = s.Weights()
	}
	for i, l := range n.layers {
		if lif, ok := l.(*layer.LIF); ok {
			cp.Thresholds[i] = lif.Threshold()
		}
	}
	return cp
}

// Restore loads a checkpoint's weights into the network. The checkpoint must
// come from a network with the same synapse count and shapes.
func (n *Network) Restore(cp *Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("network: nil checkpoint")
	}
	if len(cp.Weights) != len(n.synapses) {
		return fmt.Errorf("network: checkpoint has %d synapses, network has %d", len(cp.Weights), len(n.synapses))
	}
	for i, w := range cp.Weights {
		if err := n.synapses[i].SetWeights(w); err != nil {
			return fmt.Errorf("network: restore: %w", err)
		}
	}
	if len(cp.Thresholds) == len(n.layers) {
		for i, l := range n.layers {
			if lif, ok := l.(*layer.LIF); ok {
				lif.SetThreshold(cp.Thresholds[i])
			}
		}
	}
	return nil
}
