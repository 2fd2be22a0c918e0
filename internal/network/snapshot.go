package network

import (
	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/synapse"
)

// LayerSnapshot is the read-only view of one layer for collaborators.
type LayerSnapshot struct {
	Index      int       `json:"index"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Size       int       `json:"size"`
	Spikes     []float64 `json:"spikes"`
	SpikeCount int       `json:"spike_count"`

	// Threshold and Goodness are only meaningful for LIF layers.
	Threshold float64 `json:"threshold,omitempty"`
	Goodness  float64 `json:"goodness,omitempty"`
}

// SynapseSnapshot is the read-only view of one synapse.
type SynapseSnapshot struct {
	Index    int                 `json:"index"`
	Pre      int                 `json:"pre"`
	Post     int                 `json:"post"`
	Rule     string              `json:"rule"`
	Learning bool                `json:"learning"`
	Stats    synapse.WeightStats `json:"stats"`
}

// Snapshot is a fully-owned copy of the network's observable state,
// published to the visualization boundary. Nothing in it aliases live
// simulation memory.
type Snapshot struct {
	Step     uint64            `json:"step"`
	Learning bool              `json:"learning"`
	Layers   []LayerSnapshot   `json:"layers"`
	Synapses []SynapseSnapshot `json:"synapses"`
}

// Snapshot builds a fresh snapshot of the current network state.
func (n *Network) Snapshot() Snapshot {
	snap := Snapshot{
		Step:     n.steps,
		Learning: n.learning,
		Layers:   make([]LayerSnapshot, len(n.layers)),
		Synapses: make([]SynapseSnapshot, len(n.synapses)),
	}

	for i, l := range n.layers {
		ls := LayerSnapshot{
			Index:  i,
			Name:   l.Name(),
			Kind:   n.spec.Layers[i].Kind,
			Size:   l.Size(),
			Spikes: append([]float64(nil), l.Output()...),
		}
		for _, s := range ls.Spikes {
			if s != 0 {
				ls.SpikeCount++
			}
		}
		if lif, ok := l.(*layer.LIF); ok {
			ls.Threshold = lif.Threshold()
			ls.Goodness = lif.Goodness()
		}
		snap.Layers[i] = ls
	}

	for i, s := range n.synapses {
		snap.Synapses[i] = SynapseSnapshot{
			Index:    i,
			Pre:      s.Pre,
			Post:     s.Post,
			Rule:     s.RuleName(),
			Learning: s.Learning(),
			Stats:    s.Stats(),
		}
	}

	return snap
}
