// Package network composes layers and synapses into a runnable spiking
// network and drives them with the two-phase timestep protocol. Phase one
// feeds external drive into the encoder layers and accumulates every synapse
// forward pass; phase two steps the remaining layers once and then applies
// plasticity. The split keeps multi-edge, partially bidirectional topologies
// well defined under sequential execution: every synapse in a timestep sees
// a consistent pre-synaptic spike vector.
package network

import (
	"fmt"

	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/synapse"
	"github.com/nvandessel/spikeloop/internal/topology"
)

// Config holds engine-level parameters applied to every layer and synapse
// a topology builds, unless the layer spec overrides them.
type Config struct {
	// DT is the integration timestep.
	DT float64

	// LIF holds the default LIF parameters.
	LIF layer.LIFConfig

	// CSDP holds the plasticity parameters.
	CSDP synapse.CSDPConfig
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		DT:   0.1,
		LIF:  layer.DefaultLIFConfig(),
		CSDP: synapse.DefaultCSDPConfig(),
	}
}

// Network is the simulation orchestrator. It is not safe for concurrent
// use: Step and Process run to completion on the caller's goroutine.
type Network struct {
	spec     *topology.Spec
	cfg      Config
	layers   []layer.Layer
	synapses []*synapse.Synapse

	// driven is the number of leading layers that receive external drive
	// and step in phase one (the input encoder, plus the context encoder
	// when present).
	driven int

	learning bool
	steps    uint64
}

// Build constructs a network from a validated topology spec. Layer and
// synapse construction failures surface as errors, never panics.
func Build(spec *topology.Spec, cfg Config, rng layer.RNG) (*Network, error) {
	if spec == nil {
		return nil, fmt.Errorf("network: topology spec is required")
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("network: invalid topology: %w", err)
	}
	if cfg.DT <= 0 {
		return nil, fmt.Errorf("network: dt must be positive, got %v", cfg.DT)
	}
	if rng == nil {
		return nil, fmt.Errorf("network: rng is required")
	}

	n := &Network{spec: spec, cfg: cfg, learning: true}

	for i, ls := range spec.Layers {
		name := spec.LayerName(i)
		switch ls.Kind {
		case topology.KindEncoder:
			enc, err := layer.NewEncoder(name, ls.Size, rng)
			if err != nil {
				return nil, fmt.Errorf("network: %w", err)
			}
			n.layers = append(n.layers, enc)
		case topology.KindLIF:
			lc := lifConfigFor(cfg.LIF, ls)
			lif, err := layer.NewLIF(name, ls.Size, lc)
			if err != nil {
				return nil, fmt.Errorf("network: %w", err)
			}
			n.layers = append(n.layers, lif)
		}
	}

	// Synapses are created in edge declaration order; a bidirectional edge
	// expands into forward then reverse. This order is also the fixed
	// iteration order of the step protocol.
	for _, e := range spec.Edges {
		if err := n.addSynapse(e.Pre, e.Post, rng); err != nil {
			return nil, err
		}
		if e.Bidirectional {
			if err := n.addSynapse(e.Post, e.Pre, rng); err != nil {
				return nil, err
			}
		}
	}

	// Layer 0 is always externally driven; layer 1 joins it when it is an
	// encoder (the context/label layer of the standard topology).
	n.driven = 1
	if len(n.layers) > 1 {
		if _, ok := n.layers[1].(*layer.Encoder); ok {
			n.driven = 2
		}
	}

	return n, nil
}

// NewLayered builds the standard layered topology (see topology.Layered)
// with the given engine configuration.
func NewLayered(inputWidth, outputWidth int, hiddenWidths []int, cfg Config, rng layer.RNG) (*Network, error) {
	spec, err := topology.Layered(inputWidth, outputWidth, hiddenWidths)
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}
	return Build(spec, cfg, rng)
}

func (n *Network) addSynapse(pre, post int, rng layer.RNG) error {
	s, err := synapse.New(pre, post, n.layers[pre].Size(), n.layers[post].Size(), synapse.NewCSDP(n.cfg.CSDP), rng)
	if err != nil {
		return fmt.Errorf("network: %w", err)
	}
	n.synapses = append(n.synapses, s)
	return nil
}

func lifConfigFor(base layer.LIFConfig, ls topology.LayerSpec) layer.LIFConfig {
	cfg := base
	if ls.Tau > 0 {
		cfg.Tau = ls.Tau
	}
	if ls.Threshold > 0 {
		cfg.Threshold = ls.Threshold
	}
	if ls.ThresholdLambda > 0 {
		cfg.ThresholdLambda = ls.ThresholdLambda
	}
	if ls.TraceTau > 0 {
		cfg.Mod.TraceTau = ls.TraceTau
	}
	if ls.MaxTraceAmplitude > 0 {
		cfg.Mod.MaxAmp = ls.MaxTraceAmplitude
	}
	if ls.GoodnessOffset > 0 {
		cfg.Mod.Omega = ls.GoodnessOffset
	}
	return cfg
}

// Step runs one timestep of the two-phase protocol. context may be nil when
// no label drive is presented. Any layer or synapse failure aborts the
// remainder of the timestep and is returned to the caller.
func (n *Network) Step(input, context []float64) error {
	// Phase 1a: clear every input accumulator.
	for _, l := range n.layers {
		l.ResetInput()
	}

	// Phase 1b: drive and step the encoder layers. They are the only layers
	// with freshly computed spikes at this point; every other layer still
	// exposes its spikes from the previous timestep.
	if input != nil {
		if err := n.layers[0].AddInput(input); err != nil {
			return err
		}
	}
	if err := n.layers[0].Step(n.cfg.DT); err != nil {
		return fmt.Errorf("network: stepping %s: %w", n.layers[0].Name(), err)
	}
	if n.driven > 1 {
		if context != nil {
			if err := n.layers[1].AddInput(context); err != nil {
				return err
			}
		}
		if err := n.layers[1].Step(n.cfg.DT); err != nil {
			return fmt.Errorf("network: stepping %s: %w", n.layers[1].Name(), err)
		}
	}

	// Phase 1c: accumulate every synapse's forward contribution, in the
	// fixed construction order.
	for _, s := range n.synapses {
		out, err := s.Forward(n.layers[s.Pre].Output())
		if err != nil {
			return fmt.Errorf("network: %w", err)
		}
		if err := n.layers[s.Post].AddInput(out); err != nil {
			return fmt.Errorf("network: %w", err)
		}
	}

	// Phase 2a: step every non-driven layer exactly once.
	for i := n.driven; i < len(n.layers); i++ {
		if err := n.layers[i].Step(n.cfg.DT); err != nil {
			return fmt.Errorf("network: stepping %s: %w", n.layers[i].Name(), err)
		}
	}

	// Phase 2b: plasticity, gated on the network learning flag. Pre spikes
	// and post modulatory signals are both current now. Synapses whose post
	// layer has no modulatory source (an encoder) are skipped.
	if n.learning {
		for _, s := range n.synapses {
			mod, ok := n.layers[s.Post].(layer.ModSource)
			if !ok {
				continue
			}
			if err := s.UpdateWeights(n.layers[s.Pre].Output(), mod.ModSignal(), n.layers[s.Post].Output()); err != nil {
				return fmt.Errorf("network: %w", err)
			}
		}
	}

	n.steps++
	return nil
}

// ProcessResult is the outcome of a multi-timestep presentation.
type ProcessResult struct {
	// Final is the output layer's spike vector after the last timestep.
	Final []float64

	// History holds the output layer's spike vector at every timestep when
	// recording was requested, nil otherwise.
	History [][]float64
}

// Process presents one sample: it resets all transient layer state once,
// then runs exactly timesteps steps. When record is true the output layer's
// spike vector is captured at every timestep.
func (n *Network) Process(input, context []float64, timesteps int, record bool) (*ProcessResult, error) {
	if timesteps <= 0 {
		return nil, fmt.Errorf("network: timesteps must be positive, got %d", timesteps)
	}
	n.Reset()

	res := &ProcessResult{}
	out := n.layers[len(n.layers)-1]
	for t := 0; t < timesteps; t++ {
		if err := n.Step(input, context); err != nil {
			return nil, err
		}
		if record {
			res.History = append(res.History, append([]float64(nil), out.Output()...))
		}
	}
	res.Final = append([]float64(nil), out.Output()...)
	return res, nil
}

// Reset clears every layer's transient state (membrane potential, spikes,
// input, modulatory trace). Weights and adapted thresholds persist.
func (n *Network) Reset() {
	for _, l := range n.layers {
		l.Reset()
	}
}

// SetSamplePolarity broadcasts the contrastive polarity of the upcoming
// presentation to every polarity-aware layer. Call it before Process.
func (n *Network) SetSamplePolarity(positive bool) {
	for _, l := range n.layers {
		if p, ok := l.(layer.PolarityAware); ok {
			p.SetSamplePolarity(positive)
		}
	}
}

// SetLearning opens or closes the network-wide learning gate.
func (n *Network) SetLearning(enabled bool) { n.learning = enabled }

// Learning reports the network-wide learning gate.
func (n *Network) Learning() bool { return n.learning }

// Steps returns the total number of completed timesteps.
func (n *Network) Steps() uint64 { return n.steps }

// NumLayers returns the layer count.
func (n *Network) NumLayers() int { return len(n.layers) }

// NumSynapses returns the synapse count.
func (n *Network) NumSynapses() int { return len(n.synapses) }

// Spec returns the topology this network was built from.
func (n *Network) Spec() *topology.Spec { return n.spec }

// Output returns the output layer's current spike vector.
func (n *Network) Output() []float64 {
	return n.layers[len(n.layers)-1].Output()
}

// NeuronOutput returns the current spike value of one neuron. Out-of-range
// indices are descriptive errors, never panics.
func (n *Network) NeuronOutput(layerIndex, neuronIndex int) (float64, error) {
	if layerIndex < 0 || layerIndex >= len(n.layers) {
		return 0, fmt.Errorf("network: layer index %d out of range [0, %d)", layerIndex, len(n.layers))
	}
	l := n.layers[layerIndex]
	if neuronIndex < 0 || neuronIndex >= l.Size() {
		return 0, fmt.Errorf("network: neuron index %d out of range [0, %d) in layer %s", neuronIndex, l.Size(), l.Name())
	}
	return l.Output()[neuronIndex], nil
}

// LayerSpikeCounts returns the number of neurons currently spiking in each
// layer, indexed by layer position.
func (n *Network) LayerSpikeCounts() []int {
	counts := make([]int, len(n.layers))
	for i, l := range n.layers {
		for _, s := range l.Output() {
			if s > 0 {
				counts[i]++
			}
		}
	}
	return counts
}

// Layer returns the layer at the given index.
func (n *Network) Layer(i int) (layer.Layer, error) {
	if i < 0 || i >= len(n.layers) {
		return nil, fmt.Errorf("network: layer index %d out of range [0, %d)", i, len(n.layers))
	}
	return n.layers[i], nil
}

// Synapse returns the synapse at the given index.
func (n *Network) Synapse(i int) (*synapse.Synapse, error) {
	if i < 0 || i >= len(n.synapses) {
		return nil, fmt.Errorf("network: synapse index %d out of range [0, %d)", i, len(n.synapses))
	}
	return n.synapses[i], nil
}
