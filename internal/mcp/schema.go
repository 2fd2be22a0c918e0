// Package mcp provides an MCP (Model Context Protocol) server exposing a
// live spiking network to agent clients.
package mcp

// ProcessInput defines the input for the spikeloop_process tool.
type ProcessInput struct {
	Input     []float64 `json:"input" jsonschema:"Input drive vector; one probability in [0;1] per input neuron,required"`
	Context   []float64 `json:"context,omitempty" jsonschema:"Context/label drive vector; defaults to all zeros"`
	Timesteps int       `json:"timesteps,omitempty" jsonschema:"Number of timesteps to run (default: 40)"`
	Learn     bool      `json:"learn,omitempty" jsonschema:"Enable plasticity during this presentation (default: false)"`
	Positive  bool      `json:"positive,omitempty" jsonschema:"Contrastive polarity of the sample when learning (default: false)"`
}

// ProcessOutput defines the output for the spikeloop_process tool.
type ProcessOutput struct {
	Steps        uint64    `json:"steps" jsonschema:"Total network steps after this presentation"`
	Output       []float64 `json:"output" jsonschema:"Output layer spike vector after the last timestep"`
	OutputSpikes int       `json:"output_spikes" jsonschema:"Total output spikes across the presentation"`
	Goodness     float64   `json:"goodness" jsonschema:"Output layer goodness probability after the presentation"`
	Loss         float64   `json:"loss" jsonschema:"Output layer cross-entropy loss after the presentation"`
	Message      string    `json:"message" jsonschema:"Human-readable result message"`
}

// TopologyInput defines the input for the spikeloop_topology tool.
type TopologyInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: 'json' or 'dot' (default: json)"`
}

// TopologyOutput defines the output for the spikeloop_topology tool.
type TopologyOutput struct {
	Format    string      `json:"format" jsonschema:"Format of the rendered graph"`
	Graph     interface{} `json:"graph" jsonschema:"Rendered network graph (string for dot; object for json)"`
	NodeCount int         `json:"node_count" jsonschema:"Number of layers"`
	EdgeCount int         `json:"edge_count" jsonschema:"Number of synapses"`
}

// WeightsInput defines the input for the spikeloop_weights tool.
type WeightsInput struct {
	Synapse *int `json:"synapse,omitempty" jsonschema:"Synapse index to inspect; omit for all synapses"`
}

// SynapseStats summarizes one synapse's weight matrix.
type SynapseStats struct {
	Index    int     `json:"index"`
	Pre      int     `json:"pre"`
	Post     int     `json:"post"`
	Rule     string  `json:"rule"`
	Learning bool    `json:"learning"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// WeightsOutput defines the output for the spikeloop_weights tool.
type WeightsOutput struct {
	Step     uint64         `json:"step" jsonschema:"Network step the stats were sampled at"`
	Synapses []SynapseStats `json:"synapses" jsonschema:"Per-synapse weight statistics"`
	Count    int            `json:"count" jsonschema:"Number of synapses reported"`
}

// PauseInput defines the input for the spikeloop_pause tool.
type PauseInput struct {
	Paused bool `json:"paused" jsonschema:"True to pause a running training loop; false to resume"`
}

// PauseOutput defines the output for the spikeloop_pause tool.
type PauseOutput struct {
	Paused  bool   `json:"paused" jsonschema:"Pause state after the call"`
	Message string `json:"message" jsonschema:"Human-readable result message"`
}
