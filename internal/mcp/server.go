package mcp

import (
	"context"
	"fmt"
	"os"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/network"
	"github.com/nvandessel/spikeloop/internal/ratelimit"
	"github.com/nvandessel/spikeloop/internal/visualization"
)

// Server wraps the MCP SDK server around a live network.
type Server struct {
	server *sdk.Server
	board  *visualization.Board

	// mu serializes all network access; tool calls arrive concurrently.
	mu  sync.Mutex
	net *network.Network

	toolLimiters ratelimit.ToolLimiters
}

// Config holds server configuration.
type Config struct {
	Name    string // server name (e.g. "spikeloop")
	Version string
	Inputs  int
	Outputs int
	Hidden  []int
	Seed    uint64

	// Network overrides the engine defaults when non-nil.
	Network *network.Config

	// Board, when non-nil, receives the pause state from spikeloop_pause
	// and a snapshot after every spikeloop_process call.
	Board *visualization.Board
}

// NewServer creates an MCP server with a freshly built network.
func NewServer(cfg *Config) (*Server, error) {
	netCfg := network.DefaultConfig()
	if cfg.Network != nil {
		netCfg = *cfg.Network
	}

	net, err := network.NewLayered(cfg.Inputs, cfg.Outputs, cfg.Hidden, netCfg, layer.NewRNG(cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			// Client initialized, ready to serve
		},
	})

	board := cfg.Board
	if board == nil {
		board = visualization.NewBoard()
	}

	s := &Server{
		server:       mcpServer,
		board:        board,
		net:          net,
		toolLimiters: ratelimit.NewToolLimiters(),
	}
	s.registerTools()

	return s, nil
}

// Run starts the MCP server over stdio transport. It blocks until the
// client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		<-sigChan
		cancel()
	}()

	return s.server.Run(ctx, &sdk.StdioTransport{})
}
