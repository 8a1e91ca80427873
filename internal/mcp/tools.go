package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/project"
)

type designArchitectureInput struct {
	Description string `json:"description" jsonschema:"required,What the project should do"`
	Language    string `json:"language,omitempty" jsonschema:"Target language (default: python)"`
}

type designArchitectureOutput struct {
	Architecture project.ArchitectureDocument `json:"architecture" jsonschema:"Architecture document"`
	Issues       []string                     `json:"issues,omitempty" jsonschema:"Non-fatal problems found in the design"`
}

type createProjectInput struct {
	Name           string `json:"name,omitempty" jsonschema:"Project name (default: derived from the description)"`
	Description    string `json:"description" jsonschema:"required,What the project should do"`
	Language       string `json:"language,omitempty" jsonschema:"Target language (default: python)"`
	GenerateTests  *bool  `json:"generate_tests,omitempty" jsonschema:"Generate unit tests (default: true)"`
	GenerateReview *bool  `json:"generate_review,omitempty" jsonschema:"Generate code reviews (default: true)"`
}

type componentSummary struct {
	Name       string  `json:"name" jsonschema:"Component name"`
	Filename   string  `json:"filename" jsonschema:"Generated file"`
	State      string  `json:"state" jsonschema:"accepted or exhausted"`
	Iterations int     `json:"iterations" jsonschema:"Coder iterations used"`
	Score      float64 `json:"score" jsonschema:"Final quality score"`
}

type createProjectOutput struct {
	ID             string             `json:"id" jsonschema:"Project ID"`
	Success        bool               `json:"success" jsonschema:"Every component passed the quality gate"`
	Partial        bool               `json:"partial" jsonschema:"Completed with components needing attention"`
	Fatal          bool               `json:"fatal" jsonschema:"The run stopped early"`
	OutputDir      string             `json:"output_dir,omitempty" jsonschema:"Where the project was written"`
	Components     []componentSummary `json:"components" jsonschema:"Generated components"`
	NeedsAttention []string           `json:"needs_attention,omitempty" jsonschema:"Components that did not pass the gate"`
	Failures       []string           `json:"failures,omitempty" jsonschema:"Recorded failures"`
	DurationMS     int64              `json:"duration_ms" jsonschema:"Wall time of the run"`
}

func (s *Server) registerTools() {
	// design_architecture
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "design_architecture",
		Description: "Design the component architecture for a project description without generating code",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args designArchitectureInput) (*mcp.CallToolResult, designArchitectureOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "design_architecture")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "design_architecture")
			s.metrics.RecordInvocation(ctx, "design_architecture", time.Since(start), toolErr)
		}()

		request, err := buildRequest(createProjectInput{Description: args.Description, Language: args.Language})
		if err != nil {
			toolErr = err
			return nil, designArchitectureOutput{}, err
		}

		doc, err := s.architect.DesignArchitecture(ctx, request)
		if err != nil {
			toolErr = fmt.Errorf("architecture design failed: %w", err)
			return nil, designArchitectureOutput{}, toolErr
		}

		output := designArchitectureOutput{Architecture: doc}
		for _, issue := range doc.Issues() {
			output.Issues = append(output.Issues, issue.String())
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Designed %s architecture with %d component(s)", doc.ArchitectureType, len(doc.Components))},
			},
		}, output, nil
	})

	// create_project
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "create_project",
		Description: "Generate, validate, review and test a complete project, then write it to the output directory",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args createProjectInput) (*mcp.CallToolResult, createProjectOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, "create_project")
		var toolErr error
		defer func() {
			s.metrics.DecrementActive(ctx, "create_project")
			s.metrics.RecordInvocation(ctx, "create_project", time.Since(start), toolErr)
		}()

		request, err := buildRequest(args)
		if err != nil {
			toolErr = err
			return nil, createProjectOutput{}, err
		}

		res, err := s.runner.CreateProject(ctx, request)
		if err != nil {
			toolErr = fmt.Errorf("project creation failed: %w", err)
			return nil, createProjectOutput{}, toolErr
		}
		output := summarize(res)
		s.logger.Info(ctx, "project created via mcp",
			zap.String("project_id", res.ID),
			zap.Bool("success", res.Success),
			zap.Bool("fatal", res.Fatal))

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: headline(res)},
			},
		}, output, nil
	})
}

func buildRequest(in createProjectInput) (project.Request, error) {
	lang := project.Python
	if in.Language != "" {
		parsed, err := project.ParseLanguage(in.Language)
		if err != nil {
			return project.Request{}, err
		}
		lang = parsed
	}
	req := project.Request{
		Name:           in.Name,
		Description:    in.Description,
		Language:       lang,
		GenerateTests:  in.GenerateTests == nil || *in.GenerateTests,
		GenerateReview: in.GenerateReview == nil || *in.GenerateReview,
	}.Normalize()
	if err := req.Validate(); err != nil {
		return project.Request{}, err
	}
	return req, nil
}

func summarize(res *project.Result) createProjectOutput {
	out := createProjectOutput{
		ID:             res.ID,
		Success:        res.Success,
		Partial:        res.Partial(),
		Fatal:          res.Fatal,
		OutputDir:      res.OutputDir,
		Components:     make([]componentSummary, 0, len(res.Artifacts)),
		NeedsAttention: res.NeedsAttention(),
		DurationMS:     res.Duration().Milliseconds(),
	}
	for _, a := range res.Artifacts {
		c := componentSummary{
			Name:       a.Component,
			Filename:   a.Filename,
			State:      string(a.State),
			Iterations: a.Iterations,
		}
		if r, ok := a.FinalReport(); ok {
			c.Score = r.Score
		}
		out.Components = append(out.Components, c)
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, fmt.Sprintf("%s: %s", f.Kind, f.Message))
	}
	return out
}

func headline(res *project.Result) string {
	switch {
	case res.Fatal:
		return fmt.Sprintf("Project %s failed: %d failure(s) recorded", res.Request.Name, len(res.Failures))
	case res.Success:
		return fmt.Sprintf("Project %s created with %d component(s) in %s", res.Request.Name, len(res.Artifacts), res.OutputDir)
	default:
		return fmt.Sprintf("Project %s created in %s; needs attention: %v", res.Request.Name, res.OutputDir, res.NeedsAttention())
	}
}
