// Package layer implements the neuron populations of the simulator: a
// stochastic Bernoulli encoder for inputs and labels, and an adaptive
// leaky-integrate-and-fire population with an embedded modulatory-signal
// tracker that produces the local learning signal for CSDP synapses.
//
// The variant set is closed (Encoder, LIF). Optional capabilities are
// discovered by type assertion rather than widening the base interface.
package layer

import "math/rand/v2"

// Layer is the capability set shared by every neuron population.
// Implementations are not safe for concurrent use; the simulation loop is
// strictly sequential.
type Layer interface {
	// Step advances the layer by one timestep of length dt, consuming the
	// accumulated input and producing a fresh spike vector.
	Step(dt float64) error

	// Output returns the current spike vector, elements in {0, 1}.
	// The returned slice is owned by the layer; callers must not mutate it.
	Output() []float64

	// AddInput accumulates drive into the input compartment. Multiple calls
	// superpose before the next Step.
	AddInput(v []float64) error

	// ResetInput zeroes the input compartment only.
	ResetInput()

	// Reset clears all state: input, spikes, and any membrane or trace state.
	Reset()

	// Size returns the number of neurons.
	Size() int

	// Name returns the layer's display name.
	Name() string
}

// ModSource is implemented by layers that compute a local modulatory signal
// usable as a learning gate by downstream synapses.
type ModSource interface {
	// ModSignal returns the per-neuron modulatory vector computed during the
	// most recent Step.
	ModSignal() []float64
}

// PolarityAware is implemented by layers whose goodness computation depends
// on whether the current presentation is a positive or negative sample.
type PolarityAware interface {
	SetSamplePolarity(positive bool)
}

// RNG is the random source used for stochastic spiking and weight init.
// It is passed in explicitly so runs are seedable and tests deterministic.
type RNG = *rand.Rand

// NewRNG returns a seeded generator.
func NewRNG(seed uint64) RNG {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
