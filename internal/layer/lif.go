package layer

import (
	"fmt"

	"github.com/nvandessel/spikeloop/internal/vecmath"
)

// LIFConfig holds the tunable parameters of a LIF population.
type LIFConfig struct {
	// Tau is the membrane time constant.
	Tau float64

	// Threshold is the initial spike threshold, shared by the population.
	Threshold float64

	// ThresholdLambda is the homeostatic adaptation rate.
	ThresholdLambda float64

	// SpikeTarget is the desired total spike count per timestep for the
	// whole population. The default of 1 keeps activity sparse: on average
	// one neuron fires per step.
	SpikeTarget float64

	// Mod configures the embedded modulatory tracker.
	Mod ModConfig
}

// DefaultLIFConfig returns the default LIF parameters.
func DefaultLIFConfig() LIFConfig {
	return LIFConfig{
		Tau:             13.0,
		Threshold:       2.0,
		ThresholdLambda: 0.01,
		SpikeTarget:     1.0,
		Mod:             DefaultModConfig(),
	}
}

// LIF is an adaptive leaky-integrate-and-fire population. Membrane potential
// decays toward the accumulated input; neurons that cross the shared
// threshold spike and are reset by subtraction, preserving the overshoot.
// A single population-level threshold drifts homeostatically toward a fixed
// total firing target:
//
//	threshold += dt * lambda * (spikeSum - target)
//
// The spike-count term is deliberately not normalized by population size;
// see DESIGN.md for the rationale.
type LIF struct {
	name      string
	inputs    []float64
	potential []float64
	spikes    []float64

	threshold float64
	cfg       LIFConfig
	tracker   *ModTracker
}

// NewLIF creates a LIF population with the given parameters. Polarity starts
// positive.
func NewLIF(name string, size int, cfg LIFConfig) (*LIF, error) {
	if size <= 0 {
		return nil, fmt.Errorf("layer: lif %q: size must be positive, got %d", name, size)
	}
	if cfg.Tau <= 0 {
		return nil, fmt.Errorf("layer: lif %q: tau must be positive, got %v", name, cfg.Tau)
	}
	if cfg.Mod.TraceTau <= 0 {
		return nil, fmt.Errorf("layer: lif %q: trace tau must be positive, got %v", name, cfg.Mod.TraceTau)
	}
	return &LIF{
		name:      name,
		inputs:    vecmath.Zeros(size),
		potential: vecmath.Zeros(size),
		spikes:    vecmath.Zeros(size),
		threshold: cfg.Threshold,
		cfg:       cfg,
		tracker:   NewModTracker(size, cfg.Mod),
	}, nil
}

// Step integrates the membrane toward the accumulated input, emits spikes,
// resets spiking neurons by subtraction, adapts the threshold, and updates
// the modulatory tracker from the fresh spike vector.
func (l *LIF) Step(dt float64) error {
	k := dt / l.cfg.Tau
	var spikeSum float64
	for i := range l.potential {
		l.potential[i] += (l.inputs[i] - l.potential[i]) * k
		if l.potential[i] > l.threshold {
			l.spikes[i] = 1
			l.potential[i] -= l.threshold
			spikeSum++
		} else {
			l.spikes[i] = 0
		}
	}

	l.threshold += dt * l.cfg.ThresholdLambda * (spikeSum - l.cfg.SpikeTarget)

	l.tracker.Update(l.spikes, dt)
	return nil
}

func (l *LIF) Output() []float64 { return l.spikes }

func (l *LIF) AddInput(v []float64) error {
	if err := vecmath.AddInto(l.inputs, v); err != nil {
		return fmt.Errorf("layer %q: %w", l.name, err)
	}
	return nil
}

func (l *LIF) ResetInput() {
	vecmath.Fill(l.inputs, 0)
}

// Reset clears membrane, spikes, input and the modulatory tracker. The
// adapted threshold is intentionally preserved: homeostasis accumulates
// across presentations just like the weights.
func (l *LIF) Reset() {
	vecmath.Fill(l.inputs, 0)
	vecmath.Fill(l.potential, 0)
	vecmath.Fill(l.spikes, 0)
	l.tracker.Reset()
}

func (l *LIF) Size() int    { return len(l.spikes) }
func (l *LIF) Name() string { return l.name }

// ModSignal implements ModSource.
func (l *LIF) ModSignal() []float64 { return l.tracker.Signal() }

// SetSamplePolarity implements PolarityAware.
func (l *LIF) SetSamplePolarity(positive bool) { l.tracker.SetPolarity(positive) }

// Threshold returns the current adaptive threshold.
func (l *LIF) Threshold() float64 { return l.threshold }

// SetThreshold overrides the adaptive threshold, e.g. when restoring a
// checkpoint.
func (l *LIF) SetThreshold(v float64) { l.threshold = v }

// Potential returns the membrane potential vector. The slice is owned by
// the layer; callers must not mutate it.
func (l *LIF) Potential() []float64 { return l.potential }

// Goodness returns the layer's current goodness value.
func (l *LIF) Goodness() float64 { return l.tracker.Goodness() }

// Loss returns the layer's current cross-entropy loss.
func (l *LIF) Loss() float64 { return l.tracker.Loss() }
