package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/app"
	"github.com/fyrsmithlabs/airo/internal/workflows"
)

func newServeCmd(global *globalFlags) *cobra.Command {
	var (
		port   int
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Endpoints:
  GET  /health
  GET  /metrics
  POST /v1/projects
  GET  /v1/projects/:id
  GET  /v1/projects/:id/events   (websocket)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, app.Options{Version: version, DryRun: dryRun})
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))

			srv, err := a.HTTPServer()
			if err != nil {
				return err
			}
			a.Logger.Info(ctx, "http api starting", zap.Int("port", cfg.Server.Port))
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port (overrides server.http_port)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "use canned model responses instead of a backend")
	return cmd
}

func newWorkerCmd(global *globalFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run a Temporal worker for project workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, app.Options{Version: version, DryRun: dryRun})
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))

			c, err := workflows.Dial(cfg.Temporal, a.Logger)
			if err != nil {
				return err
			}
			defer c.Close()

			w := workflows.NewWorker(c, cfg.Temporal, a.Activities())
			a.Logger.Info(ctx, "temporal worker starting",
				zap.String("host", cfg.Temporal.Host),
				zap.String("task_queue", cfg.Temporal.TaskQueue),
			)
			stop := make(chan interface{})
			go func() {
				<-ctx.Done()
				close(stop)
			}()
			if err := w.Run(stop); err != nil {
				return fmt.Errorf("worker: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "use canned model responses instead of a backend")
	return cmd
}

func newMCPCmd(global *globalFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the airo tools over MCP stdio",
		Long: `Serve the design_architecture and create_project tools over the
Model Context Protocol on stdin/stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, app.Options{Version: version, DryRun: dryRun})
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(ctx))

			srv, err := a.MCPServer()
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "use canned model responses instead of a backend")
	return cmd
}
