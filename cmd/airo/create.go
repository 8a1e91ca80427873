package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/app"
	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/project"
	"github.com/fyrsmithlabs/airo/internal/workflows"
)

type createFlags struct {
	description string
	language    string
	output      string
	skipTests   bool
	skipReview  bool
	dryRun      bool
	jsonOut     bool
	temporal    bool
}

func newCreateCmd(global *globalFlags) *cobra.Command {
	f := &createFlags{}
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Generate a project from a description",
		Long: `Generate a complete project from a natural-language description.

The name defaults to the first words of the description. The exit status is
zero when the project was written, including partial success where some
components did not pass the quality gate.

Examples:
  # Python project with tests and review
  airo create todo-api -d "REST API for a todo list"

  # Go, no tests, results as JSON
  airo create -d "log tailing CLI" -l go --skip-tests --json

  # Run through a Temporal worker
  airo create -d "URL shortener" --temporal`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runCreate(cmd, global, f, name)
		},
	}
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "what the project should do (required)")
	cmd.Flags().StringVarP(&f.language, "language", "l", string(project.Python), "target language: "+languageList())
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory (overrides output.dir)")
	cmd.Flags().BoolVar(&f.skipTests, "skip-tests", false, "do not generate tests")
	cmd.Flags().BoolVar(&f.skipReview, "skip-review", false, "do not review components")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "use canned model responses instead of a backend")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&f.temporal, "temporal", false, "submit the run to a Temporal worker")
	return cmd
}

func languageList() string {
	names := make([]string, 0, len(project.Languages()))
	for _, l := range project.Languages() {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}

// buildRequest turns flags into a validated request.
func buildRequest(name string, f *createFlags) (project.Request, error) {
	lang, err := project.ParseLanguage(f.language)
	if err != nil {
		return project.Request{}, err
	}
	req := project.Request{
		Name:           name,
		Description:    f.description,
		Language:       lang,
		GenerateTests:  !f.skipTests,
		GenerateReview: !f.skipReview,
	}.Normalize()
	if err := req.Validate(); err != nil {
		return project.Request{}, err
	}
	return req, nil
}

func runCreate(cmd *cobra.Command, global *globalFlags, f *createFlags, name string) error {
	req, err := buildRequest(name, f)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}
	if f.output != "" {
		cfg.Output.Dir = f.output
	}

	var res *project.Result
	if f.temporal {
		res, err = createDurable(cmd, cfg, req)
	} else {
		res, err = createLocal(cmd, cfg, f, req)
	}
	if err != nil {
		return err
	}

	if f.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	} else {
		renderSummary(cmd.OutOrStdout(), res)
	}
	if res.Fatal {
		return errFatal
	}
	return nil
}

func createLocal(cmd *cobra.Command, cfg *config.Config, f *createFlags, req project.Request) (*project.Result, error) {
	ctx := cmd.Context()
	opts := app.Options{Version: version, DryRun: f.dryRun}
	if cfg.Model.Streaming && !f.jsonOut {
		errOut := cmd.ErrOrStderr()
		opts.Stream = func(_, chunk string) { fmt.Fprint(errOut, chunk) }
	}

	a, err := app.New(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	defer a.Close(context.WithoutCancel(ctx))

	if !f.jsonOut {
		a.Executor.OnProgress(progressPrinter(cmd.ErrOrStderr()))
	}
	return a.Executor.CreateProject(ctx, req)
}

func createDurable(cmd *cobra.Command, cfg *config.Config, req project.Request) (*project.Result, error) {
	ctx := cmd.Context()
	logger, err := app.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	c, err := workflows.Dial(cfg.Temporal, logger)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	id := uuid.NewString()
	logger.Info(ctx, "submitting project workflow", zap.String("project.id", id), zap.String("task_queue", cfg.Temporal.TaskQueue))
	out, err := workflows.Submit(ctx, c, cfg.Temporal, workflows.ProjectWorkflowInput{
		ProjectID: id,
		Request:   req,
		Pipeline:  cfg.Pipeline,
	})
	if err != nil {
		return nil, err
	}
	if out.Result == nil {
		return nil, errors.New("workflow returned no result")
	}
	for _, msg := range out.Errors {
		logger.Warn(ctx, "workflow step failed", zap.String("error", msg))
	}
	return out.Result, nil
}
