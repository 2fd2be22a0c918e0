package layer

import (
	"fmt"

	"github.com/nvandessel/spikeloop/internal/vecmath"
)

// Encoder converts real-valued drive in [0, 1] into stochastic spike trains.
// Each Step draws one independent uniform sample per neuron and emits a spike
// where the clamped input meets or exceeds the draw, so an input of 0.7 spikes
// on roughly 70% of steps. There is no persistent membrane state.
type Encoder struct {
	name   string
	inputs []float64
	spikes []float64
	rng    RNG
}

// NewEncoder creates an encoder layer of the given size.
func NewEncoder(name string, size int, rng RNG) (*Encoder, error) {
	if size <= 0 {
		return nil, fmt.Errorf("layer: encoder %q: size must be positive, got %d", name, size)
	}
	if rng == nil {
		return nil, fmt.Errorf("layer: encoder %q: rng is required", name)
	}
	return &Encoder{
		name:   name,
		inputs: vecmath.Zeros(size),
		spikes: vecmath.Zeros(size),
		rng:    rng,
	}, nil
}

// Step samples a Bernoulli spike per neuron from the accumulated input.
// The input compartment is left intact; the orchestrator clears it at the
// start of each timestep.
func (e *Encoder) Step(dt float64) error {
	vecmath.Clamp01(e.inputs)
	for i, p := range e.inputs {
		if p >= e.rng.Float64() {
			e.spikes[i] = 1
		} else {
			e.spikes[i] = 0
		}
	}
	return nil
}

func (e *Encoder) Output() []float64 { return e.spikes }

func (e *Encoder) AddInput(v []float64) error {
	if err := vecmath.AddInto(e.inputs, v); err != nil {
		return fmt.Errorf("layer %q: %w", e.name, err)
	}
	return nil
}

func (e *Encoder) ResetInput() {
	vecmath.Fill(e.inputs, 0)
}

func (e *Encoder) Reset() {
	vecmath.Fill(e.inputs, 0)
	vecmath.Fill(e.spikes, 0)
}

func (e *Encoder) Size() int    { return len(e.spikes) }
func (e *Encoder) Name() string { return e.name }
