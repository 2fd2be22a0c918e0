package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/ratelimit"
	"github.com/nvandessel/spikeloop/internal/visualization"
)

// registerTools registers all spikeloop MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spikeloop_process",
		Description: "Present one sample to the network: drive the input and context encoders for a number of timesteps and report output spikes, goodness, and loss",
	}, s.handleProcess)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spikeloop_topology",
		Description: "Render the network topology with live state (spike counts, mean weights) in DOT (Graphviz) or JSON format",
	}, s.handleTopology)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spikeloop_weights",
		Description: "Report per-synapse weight statistics (mean, std, min, max) at the current step",
	}, s.handleWeights)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spikeloop_pause",
		Description: "Pause or resume a training loop attached to the shared board",
	}, s.handlePause)
}

// handleProcess implements the spikeloop_process tool.
func (s *Server) handleProcess(ctx context.Context, req *sdk.CallToolRequest, args ProcessInput) (*sdk.CallToolResult, ProcessOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "spikeloop_process"); err != nil {
		return nil, ProcessOutput{}, err
	}

	timesteps := args.Timesteps
	if timesteps == 0 {
		timesteps = 40
	}
	if timesteps < 0 || timesteps > 10000 {
		return nil, ProcessOutput{}, fmt.Errorf("timesteps must be in [1, 10000], got %d", timesteps)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contextDrive := args.Context
	if contextDrive == nil {
		ctxLayer, err := s.net.Layer(1)
		if err != nil {
			return nil, ProcessOutput{}, err
		}
		contextDrive = make([]float64, ctxLayer.Size())
	}

	prevLearning := s.net.Learning()
	s.net.SetLearning(args.Learn)
	s.net.SetSamplePolarity(args.Positive)

	res, err := s.net.Process(args.Input, contextDrive, timesteps, true)
	s.net.SetLearning(prevLearning)
	if err != nil {
		return nil, ProcessOutput{}, fmt.Errorf("process failed: %w", err)
	}

	outputSpikes := 0
	for _, step := range res.History {
		for _, v := range step {
			if v != 0 {
				outputSpikes++
			}
		}
	}

	out, err := s.net.Layer(s.net.NumLayers() - 1)
	if err != nil {
		return nil, ProcessOutput{}, err
	}
	lif, ok := out.(*layer.LIF)
	if !ok {
		return nil, ProcessOutput{}, fmt.Errorf("output layer %s is not a LIF layer", out.Name())
	}

	s.board.Publish(s.net.Snapshot())

	return nil, ProcessOutput{
		Steps:        s.net.Steps(),
		Output:       res.Final,
		OutputSpikes: outputSpikes,
		Goodness:     lif.Goodness(),
		Loss:         lif.Loss(),
		Message:      fmt.Sprintf("Presented %d timesteps: %d output spikes, goodness %.4f", timesteps, outputSpikes, lif.Goodness()),
	}, nil
}

// handleTopology implements the spikeloop_topology tool.
func (s *Server) handleTopology(ctx context.Context, req *sdk.CallToolRequest, args TopologyInput) (*sdk.CallToolResult, TopologyOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "spikeloop_topology"); err != nil {
		return nil, TopologyOutput{}, err
	}

	format := args.Format
	if format == "" {
		format = "json"
	}

	s.mu.Lock()
	spec := s.net.Spec()
	snap := s.net.Snapshot()
	s.mu.Unlock()

	switch format {
	case "dot":
		return nil, TopologyOutput{
			Format:    "dot",
			Graph:     visualization.RenderDOT(spec, &snap),
			NodeCount: len(snap.Layers),
			EdgeCount: len(snap.Synapses),
		}, nil

	case "json":
		return nil, TopologyOutput{
			Format:    "json",
			Graph:     visualization.RenderJSON(spec, &snap),
			NodeCount: len(snap.Layers),
			EdgeCount: len(snap.Synapses),
		}, nil

	default:
		return nil, TopologyOutput{}, fmt.Errorf("unsupported format %q (use 'dot' or 'json')", format)
	}
}

// handleWeights implements the spikeloop_weights tool.
func (s *Server) handleWeights(ctx context.Context, req *sdk.CallToolRequest, args WeightsInput) (*sdk.CallToolResult, WeightsOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "spikeloop_weights"); err != nil {
		return nil, WeightsOutput{}, err
	}

	s.mu.Lock()
	snap := s.net.Snapshot()
	s.mu.Unlock()

	if args.Synapse != nil && (*args.Synapse < 0 || *args.Synapse >= len(snap.Synapses)) {
		return nil, WeightsOutput{}, fmt.Errorf("synapse index %d out of range [0, %d)", *args.Synapse, len(snap.Synapses))
	}

	stats := make([]SynapseStats, 0, len(snap.Synapses))
	for i, syn := range snap.Synapses {
		if args.Synapse != nil && i != *args.Synapse {
			continue
		}
		stats = append(stats, SynapseStats{
			Index:    i,
			Pre:      syn.Pre,
			Post:     syn.Post,
			Rule:     syn.Rule,
			Learning: syn.Learning,
			Mean:     syn.Stats.Mean,
			Std:      syn.Stats.Std,
			Min:      syn.Stats.Min,
			Max:      syn.Stats.Max,
		})
	}

	return nil, WeightsOutput{
		Step:     snap.Step,
		Synapses: stats,
		Count:    len(stats),
	}, nil
}

// handlePause implements the spikeloop_pause tool.
func (s *Server) handlePause(ctx context.Context, req *sdk.CallToolRequest, args PauseInput) (*sdk.CallToolResult, PauseOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "spikeloop_pause"); err != nil {
		return nil, PauseOutput{}, err
	}

	s.board.SetPaused(args.Paused)

	state := "resumed"
	if args.Paused {
		state = "paused"
	}
	return nil, PauseOutput{
		Paused:  args.Paused,
		Message: fmt.Sprintf("Training %s", state),
	}, nil
}
