// Package app builds the airo pipeline from configuration and hands the
// assembled pieces to the command-line entry points.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/agents"
	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/events"
	airohttp "github.com/fyrsmithlabs/airo/internal/http"
	"github.com/fyrsmithlabs/airo/internal/llm"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/mcp"
	"github.com/fyrsmithlabs/airo/internal/memory"
	"github.com/fyrsmithlabs/airo/internal/orchestrator"
	"github.com/fyrsmithlabs/airo/internal/output"
	"github.com/fyrsmithlabs/airo/internal/quality"
	"github.com/fyrsmithlabs/airo/internal/telemetry"
	"github.com/fyrsmithlabs/airo/internal/workflows"
)

const instrumentationName = "github.com/fyrsmithlabs/airo"

// Options tweak how New assembles the pipeline.
type Options struct {
	// Version is reported by telemetry and the MCP server.
	Version string

	// DryRun replaces the model backend with canned responses.
	DryRun bool

	// Logger overrides the logger built from cfg.Logging.
	Logger *logging.Logger

	// Stream receives model output chunks as components are drafted.
	Stream func(component, chunk string)
}

// App holds the wired pipeline.
type App struct {
	Config    *config.Config
	Logger    *logging.Logger
	Telemetry *telemetry.Telemetry

	Client        llm.Client
	Gate          *quality.Gate
	Memory        memory.Store
	Events        events.Publisher
	Output        *output.Writer
	Architect     *agents.Architect
	Coder         *agents.Coder
	Reviewer      *agents.Reviewer
	TestGenerator *agents.TestGenerator
	Executor      *orchestrator.Executor

	version string
}

// New builds every collaborator named by cfg. Callers must Close the
// returned App.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	c := *cfg
	cfg = &c
	if opts.DryRun {
		cfg.Model.Backend = config.BackendFake
		cfg.Memory.Enabled = false
		cfg.Events.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Observability, opts.Version))
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger, err = NewLogger(cfg)
		if err != nil {
			_ = tel.Shutdown(ctx)
			return nil, err
		}
	}
	if degraded, reasons := tel.Degraded(); degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Strings("reasons", reasons))
	}

	a := &App{Config: cfg, Logger: logger, Telemetry: tel, version: opts.Version}
	if err := a.build(ctx, opts); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

// NewLogger builds the process logger from cfg.Logging. With telemetry
// enabled entries are also bridged to the global OTEL log provider.
func NewLogger(cfg *config.Config) (*logging.Logger, error) {
	lcfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return nil, err
	}
	lcfg.Output.OTEL = cfg.Observability.EnableTelemetry
	return logging.NewLogger(lcfg, global.GetLoggerProvider())
}

func (a *App) build(ctx context.Context, opts Options) error {
	cfg := a.Config
	tracer := a.Telemetry.Tracer(instrumentationName)
	meter := a.Telemetry.Meter(instrumentationName)

	deps := llm.Deps{Tracer: tracer, Meter: meter, Logger: a.Logger.Named("llm")}
	if cfg.Model.Backend == config.BackendFake {
		deps.Fake = llm.NewFakeHandler(agents.DryRunHandler())
	}
	client, err := llm.New(ctx, cfg.Model, cfg.Agents.Coder.Model, deps)
	if err != nil {
		return fmt.Errorf("creating model client: %w", err)
	}
	a.Client = client

	a.Memory, err = memory.New(cfg.Memory, cfg.Model.Host, a.Logger.Named("memory"))
	if err != nil {
		return fmt.Errorf("opening component memory: %w", err)
	}

	a.Events, err = events.New(cfg.Events, a.Logger)
	if err != nil {
		return fmt.Errorf("connecting progress events: %w", err)
	}

	a.Gate = quality.New(cfg.Quality, quality.WithLogger(a.Logger.Named("quality")))
	a.Output = output.New(cfg.Output, a.Logger)

	agentOpts := []agents.Option{
		agents.WithLogger(a.Logger),
		agents.WithMeter(meter),
		agents.WithMemory(a.Memory, cfg.Memory.Results),
	}
	if opts.Stream != nil {
		agentOpts = append(agentOpts, agents.WithStreaming(opts.Stream))
	}
	a.Architect = agents.NewArchitect(client, cfg.Agents.Architect, agentOpts...)
	a.Coder = agents.NewCoder(client, a.Gate, cfg.Agents.Coder, cfg.Pipeline.MaxIterations, agentOpts...)
	a.Reviewer = agents.NewReviewer(client, cfg.Agents.Reviewer, agentOpts...)
	a.TestGenerator = agents.NewTestGenerator(client, cfg.Agents.TestGenerator, agentOpts...)

	a.Executor = orchestrator.NewExecutor(cfg.Pipeline, orchestrator.Deps{
		Architect:     a.Architect,
		Coder:         a.Coder,
		Reviewer:      a.Reviewer,
		TestGenerator: a.TestGenerator,
		Sink:          a.Output,
		Memory:        a.Memory,
		Publisher:     a.Events,
		Logger:        a.Logger,
		Tracer:        tracer,
		Meter:         meter,
	})
	return nil
}

// Activities exposes the pipeline to a Temporal worker.
func (a *App) Activities() *workflows.Activities {
	return &workflows.Activities{
		Architect:     a.Architect,
		Coder:         a.Coder,
		Reviewer:      a.Reviewer,
		TestGenerator: a.TestGenerator,
		Sink:          a.Output,
		Memory:        a.Memory,
		Logger:        a.Logger.Named("activities"),
	}
}

// HTTPServer builds the HTTP API and routes executor progress to its jobs.
func (a *App) HTTPServer() (*airohttp.Server, error) {
	srv, err := airohttp.NewServer(a.Executor, a.Logger, a.Config.Server,
		a.Telemetry.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	a.Executor.OnProgress(srv.Progress)
	return srv, nil
}

// MCPServer builds the MCP tool server.
func (a *App) MCPServer() (*mcp.Server, error) {
	cfg := mcp.DefaultConfig()
	if a.version != "" {
		cfg.Version = a.version
	}
	cfg.Logger = a.Logger
	cfg.Meter = a.Telemetry.Meter(instrumentationName)
	return mcp.NewServer(cfg, a.Architect, a.Executor)
}

// Close releases the event connection and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing events: %w", err))
		}
	}
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
