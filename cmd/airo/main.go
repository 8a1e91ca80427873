// Airo generates complete software projects from a natural-language
// description using a team of model-backed agents.
//
// Usage:
//
//	# Generate a project in process
//	airo create todo-api -d "REST API for a todo list" -l go
//
//	# Try the pipeline without a model server
//	airo create demo -d "tiny greeting service" --dry-run
//
//	# Serve the HTTP API or the MCP tools
//	airo serve
//	airo mcp
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/airo/internal/config"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// errFatal marks a run that produced no usable project. The summary has
// already been printed.
var errFatal = errors.New("project generation failed")

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// A fatal run has already printed its summary.
		if !errors.Is(err, errFatal) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "airo",
		Short: "Multi-agent code generation pipeline",
		Long: `airo turns a project description into a working code base.

An architect agent designs the components, a coder agent writes each one
through a quality-gate feedback loop, and optional reviewer and test agents
finish the job. The result is written to the output directory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file (default ~/.config/airo/config.yaml)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newCreateCmd(flags),
		newServeCmd(flags),
		newWorkerCmd(flags),
		newMCPCmd(flags),
		newModelsCmd(flags),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads .env, the config file and the environment, then applies
// the global flags.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		cfg.Logging.Verbose = true
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "airo by Fyrsmith Labs\n")
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}
