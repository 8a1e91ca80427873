// Package mcp exposes the AIRO pipeline as MCP tools over stdio.
//
// Tools:
//   - design_architecture: returns the architecture document for a description
//   - create_project: runs the full pipeline, writes the project and returns
//     a summary
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/orchestrator"
	"github.com/fyrsmithlabs/airo/internal/project"
)

// Runner executes a whole project.
type Runner interface {
	CreateProject(ctx context.Context, req project.Request) (*project.Result, error)
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "airo")
	Name string

	// Version is the server version (default: "0.1.0")
	Version string

	Logger *logging.Logger
	Meter  metric.Meter
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "airo",
		Version: "0.1.0",
		Logger:  logging.Nop(),
	}
}

// Server is an MCP server backed by the agents.
type Server struct {
	mcp       *mcp.Server
	architect orchestrator.Architect
	runner    Runner
	metrics   *Metrics
	logger    *logging.Logger
}

// NewServer creates a server and registers its tools.
func NewServer(cfg *Config, architect orchestrator.Architect, runner Runner) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if architect == nil {
		return nil, fmt.Errorf("architect is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:       mcpServer,
		architect: architect,
		runner:    runner,
		metrics:   NewMetrics(cfg.Meter, cfg.Logger),
		logger:    cfg.Logger.Named("mcp"),
	}
	s.registerTools()
	return s, nil
}

// Run serves on the stdio transport until the client disconnects or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}

// Connect serves a single session on t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}
