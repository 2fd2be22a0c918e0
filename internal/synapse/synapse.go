// Package synapse implements the weighted connections between layers and
// their local plasticity rules. The forward pass is a plain affine map; the
// learning rule is pluggable, with contrastive signal-dependent plasticity
// (CSDP) as the concrete rule shipped today.
package synapse

import (
	"fmt"

	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/vecmath"
)

// Rule is the plasticity strategy applied to a synapse's weights.
// Implementations mutate w (post×pre, row-major) in place.
type Rule interface {
	// Name identifies the rule in snapshots and stored runs.
	Name() string

	// Apply computes and applies the weight delta for one timestep.
	// modSignal and postSpikes have post length; preSpikes has pre length.
	Apply(w []float64, preSpikes, modSignal, postSpikes []float64) error
}

// WeightStats summarizes a synapse's weight matrix for diagnostics and
// the visualization boundary.
type WeightStats struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Synapse is a directed edge between two layers. The weight matrix shape is
// fixed at construction and never resized. Bias is applied in the forward
// direction only and is not touched by the learning rule.
type Synapse struct {
	Pre  int // pre-layer index in the network's layer list
	Post int // post-layer index

	weights  []float64 // post×pre, row-major
	bias     []float64 // post
	preSize  int
	postSize int

	rule     Rule
	learning bool
}

// New creates a synapse with small gaussian-initialized weights (sigma 0.1)
// and zero bias, learning enabled.
func New(pre, post, preSize, postSize int, rule Rule, rng layer.RNG) (*Synapse, error) {
	if preSize <= 0 || postSize <= 0 {
		return nil, fmt.Errorf("synapse %d->%d: sizes must be positive, got %dx%d", pre, post, postSize, preSize)
	}
	if rule == nil {
		return nil, fmt.Errorf("synapse %d->%d: rule is required", pre, post)
	}
	if rng == nil {
		return nil, fmt.Errorf("synapse %d->%d: rng is required", pre, post)
	}

	w := make([]float64, postSize*preSize)
	for i := range w {
		w[i] = rng.NormFloat64() * 0.1
	}

	return &Synapse{
		Pre:      pre,
		Post:     post,
		weights:  w,
		bias:     vecmath.Zeros(postSize),
		preSize:  preSize,
		postSize: postSize,
		rule:     rule,
		learning: true,
	}, nil
}

// Forward computes W·preSpikes + bias. Stateless per call.
func (s *Synapse) Forward(preSpikes []float64) ([]float64, error) {
	out, err := vecmath.MatVec(s.weights, s.postSize, s.preSize, preSpikes)
	if err != nil {
		return nil, fmt.Errorf("synapse %d->%d forward: %w", s.Pre, s.Post, err)
	}
	for i, b := range s.bias {
		out[i] += b
	}
	return out, nil
}

// UpdateWeights applies the plasticity rule for one timestep. It is a no-op
// when learning is disabled on this synapse.
func (s *Synapse) UpdateWeights(preSpikes, modSignal, postSpikes []float64) error {
	if !s.learning {
		return nil
	}
	if len(preSpikes) != s.preSize {
		return fmt.Errorf("synapse %d->%d update: pre length %d, want %d", s.Pre, s.Post, len(preSpikes), s.preSize)
	}
	if len(modSignal) != s.postSize || len(postSpikes) != s.postSize {
		return fmt.Errorf("synapse %d->%d update: post lengths %d/%d, want %d", s.Pre, s.Post, len(modSignal), len(postSpikes), s.postSize)
	}
	if err := s.rule.Apply(s.weights, preSpikes, modSignal, postSpikes); err != nil {
		return fmt.Errorf("synapse %d->%d update: %w", s.Pre, s.Post, err)
	}
	return nil
}

// SetLearning toggles the learning gate.
func (s *Synapse) SetLearning(enabled bool) { s.learning = enabled }

// Learning reports whether the learning gate is open.
func (s *Synapse) Learning() bool { return s.learning }

// RuleName returns the name of the plasticity rule.
func (s *Synapse) RuleName() string { return s.rule.Name() }

// Stats returns summary statistics over every weight entry.
func (s *Synapse) Stats() WeightStats {
	st := vecmath.Summarize(s.weights)
	return WeightStats{Mean: st.Mean, Std: st.Std, Min: st.Min, Max: st.Max, Count: st.Count}
}

// Weights returns a copy of the weight matrix, row-major post×pre.
func (s *Synapse) Weights() []float64 {
	return append([]float64(nil), s.weights...)
}

// SetWeights replaces the weight matrix, e.g. when restoring a checkpoint.
// The length must match the fixed shape.
func (s *Synapse) SetWeights(w []float64) error {
	if len(w) != len(s.weights) {
		return fmt.Errorf("synapse %d->%d: checkpoint has %d weights, want %d", s.Pre, s.Post, len(w), len(s.weights))
	}
	copy(s.weights, w)
	return nil
}

// Shape returns (postSize, preSize).
func (s *Synapse) Shape() (int, int) { return s.postSize, s.preSize }
