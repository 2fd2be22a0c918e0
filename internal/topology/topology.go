// Package topology defines the declarative network description: an ordered
// list of layer specs and a list of directed, optionally bidirectional,
// synapse edges. Topologies load from YAML and are fully validated before
// any layer is constructed, so a malformed file is a "could not build"
// error rather than a crash mid-run.
package topology

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layer kinds.
const (
	KindEncoder = "encoder"
	KindLIF     = "lif"
)

// LayerSpec describes one layer. Zero-valued numeric parameters take the
// engine defaults for the layer kind.
type LayerSpec struct {
	// Name is the display name; defaulted from the index when empty.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Kind is "encoder" or "lif".
	Kind string `yaml:"kind" json:"kind"`

	// Size is the number of neurons. Required, positive.
	Size int `yaml:"size" json:"size"`

	// Tau is the LIF membrane time constant.
	Tau float64 `yaml:"tau,omitempty" json:"tau,omitempty"`

	// Threshold is the initial adaptive threshold.
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// ThresholdLambda is the homeostatic adaptation rate.
	ThresholdLambda float64 `yaml:"threshold_lambda,omitempty" json:"threshold_lambda,omitempty"`

	// TraceTau is the modulatory trace time constant.
	TraceTau float64 `yaml:"trace_tau,omitempty" json:"trace_tau,omitempty"`

	// MaxTraceAmplitude bounds the modulatory trace.
	MaxTraceAmplitude float64 `yaml:"max_trace_amplitude,omitempty" json:"max_trace_amplitude,omitempty"`

	// GoodnessOffset is the omega term in the goodness computation.
	GoodnessOffset float64 `yaml:"goodness_offset,omitempty" json:"goodness_offset,omitempty"`
}

// EdgeSpec describes a synapse from the layer at index Pre to the layer at
// index Post. Bidirectional edges expand into two independent synapses with
// independent weights.
type EdgeSpec struct {
	Pre           int  `yaml:"pre" json:"pre"`
	Post          int  `yaml:"post" json:"post"`
	Bidirectional bool `yaml:"bidirectional,omitempty" json:"bidirectional,omitempty"`
}

// Spec is a complete topology declaration.
type Spec struct {
	Layers []LayerSpec `yaml:"layers" json:"layers"`
	Edges  []EdgeSpec  `yaml:"edges" json:"edges"`
}

// LoadFile reads and validates a topology from a YAML file.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("topology: reading %s: %w", path, err)
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("topology: parsing %s: %w", path, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("topology: %s: %w", path, err)
	}
	return &spec, nil
}

// Validate checks structural consistency: known kinds, positive sizes,
// in-range edge indices, no self-edges.
func (s *Spec) Validate() error {
	if len(s.Layers) == 0 {
		return fmt.Errorf("no layers declared")
	}
	for i, l := range s.Layers {
		switch l.Kind {
		case KindEncoder, KindLIF:
		default:
			return fmt.Errorf("layer %d: unknown kind %q", i, l.Kind)
		}
		if l.Size <= 0 {
			return fmt.Errorf("layer %d: size must be positive, got %d", i, l.Size)
		}
	}
	for i, e := range s.Edges {
		if e.Pre < 0 || e.Pre >= len(s.Layers) {
			return fmt.Errorf("edge %d: pre index %d out of range [0, %d)", i, e.Pre, len(s.Layers))
		}
		if e.Post < 0 || e.Post >= len(s.Layers) {
			return fmt.Errorf("edge %d: post index %d out of range [0, %d)", i, e.Post, len(s.Layers))
		}
		if e.Pre == e.Post {
			return fmt.Errorf("edge %d: self-edge on layer %d", i, e.Pre)
		}
	}
	return nil
}

// LayerName returns the declared name of layer i, or a positional default.
func (s *Spec) LayerName(i int) string {
	if s.Layers[i].Name != "" {
		return s.Layers[i].Name
	}
	return fmt.Sprintf("%s-%d", s.Layers[i].Kind, i)
}

// Layered builds the standard topology used throughout the project: an input
// encoder (index 0), a context encoder the width of the output (index 1), one
// LIF layer per hidden width, and a LIF output layer. Edges: input to first
// hidden, context to first hidden, adjacent hidden pairs bidirectionally, and
// every hidden layer bidirectionally to the output. An empty hidden list is
// a construction error.
func Layered(inputWidth, outputWidth int, hiddenWidths []int) (*Spec, error) {
	if inputWidth <= 0 || outputWidth <= 0 {
		return nil, fmt.Errorf("topology: widths must be positive, got input %d output %d", inputWidth, outputWidth)
	}
	if len(hiddenWidths) == 0 {
		return nil, fmt.Errorf("topology: at least one hidden layer is required")
	}

	spec := &Spec{}
	spec.Layers = append(spec.Layers,
		LayerSpec{Name: "input", Kind: KindEncoder, Size: inputWidth},
		LayerSpec{Name: "context", Kind: KindEncoder, Size: outputWidth},
	)
	for i, w := range hiddenWidths {
		if w <= 0 {
			return nil, fmt.Errorf("topology: hidden width %d must be positive, got %d", i, w)
		}
		spec.Layers = append(spec.Layers, LayerSpec{
			Name: fmt.Sprintf("hidden-%d", i),
			Kind: KindLIF,
			Size: w,
		})
	}
	out := len(spec.Layers)
	spec.Layers = append(spec.Layers, LayerSpec{Name: "output", Kind: KindLIF, Size: outputWidth})

	firstHidden := 2
	spec.Edges = append(spec.Edges,
		EdgeSpec{Pre: 0, Post: firstHidden},
		EdgeSpec{Pre: 1, Post: firstHidden},
	)
	for i := 0; i < len(hiddenWidths)-1; i++ {
		spec.Edges = append(spec.Edges, EdgeSpec{Pre: firstHidden + i, Post: firstHidden + i + 1, Bidirectional: true})
	}
	for i := range hiddenWidths {
		spec.Edges = append(spec.Edges, EdgeSpec{Pre: firstHidden + i, Post: out, Bidirectional: true})
	}

	return spec, nil
}

// SynapseCount returns the number of synapses the spec expands to, counting
// bidirectional edges twice.
func (s *Spec) SynapseCount() int {
	n := 0
	for _, e := range s.Edges {
		n++
		if e.Bidirectional {
			n++
		}
	}
	return n
}
