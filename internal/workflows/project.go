// Package workflows runs the AIRO pipeline as a Temporal workflow.
//
// ProjectWorkflow follows the same steps as the in-process orchestrator but
// each agent call is an activity, so a worker restart resumes the run where
// it stopped.
package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/orchestrator"
	"github.com/fyrsmithlabs/airo/internal/project"
)

// DefaultActivityTimeout bounds a single agent call, including every coder
// iteration of one component.
const DefaultActivityTimeout = 30 * time.Minute

// ProjectWorkflowInput configures ProjectWorkflow.
type ProjectWorkflowInput struct {
	ProjectID       string
	Request         project.Request
	Pipeline        config.PipelineConfig
	ActivityTimeout time.Duration
}

// ProjectWorkflowResult contains the pipeline result.
type ProjectWorkflowResult struct {
	Result *project.Result
	Errors []string // HIGH and CRITICAL errors encountered
}

// ProjectWorkflow designs, generates, reviews, tests and persists a project.
func ProjectWorkflow(ctx workflow.Context, input ProjectWorkflowInput) (*ProjectWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting project workflow",
		"project_id", input.ProjectID,
		"name", input.Request.Name,
		"language", input.Request.Language)

	timeout := input.ActivityTimeout
	if timeout <= 0 {
		timeout = DefaultActivityTimeout
	}
	// Agents own their retries.
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})

	var a *Activities
	res := &project.Result{
		ID:        input.ProjectID,
		Request:   input.Request,
		StartedAt: workflow.Now(ctx),
	}
	out := &ProjectWorkflowResult{Result: res}

	// Step 1: architecture (CRITICAL)
	var arch project.ArchitectureDocument
	if err := workflow.ExecuteActivity(ctx, a.DesignArchitectureActivity, input.Request).Get(ctx, &arch); err != nil {
		werr := NewWorkflowError("design architecture", ErrorSeverityCritical, err, input.Request.Name)
		res.AddFailure(project.Failure{
			Step:    string(project.StepArchitect),
			Kind:    project.FailureArchitecture,
			Message: err.Error(),
		})
		res.CompletedAt = workflow.Now(ctx)
		out.Errors = append(out.Errors, FormatErrorForResult("design architecture", err))
		return out, werr
	}
	res.Architecture = &arch

	// Step 2: components (HIGH)
	res.Artifacts = generateComponents(ctx, input, &arch, out)
	orchestrator.DedupeFilenames(res.Artifacts)
	for _, art := range res.Artifacts {
		if !art.Accepted() {
			res.AddFailure(project.Failure{
				Step:      string(project.StepComponents),
				Component: art.Component,
				Kind:      project.FailureExhausted,
				Message:   fmt.Sprintf("not accepted after %d iteration(s)", art.Iterations),
			})
		}
	}

	// Step 3: reviews (HIGH)
	if input.Request.GenerateReview {
		for _, art := range withSource(res.Artifacts) {
			var rev project.ReviewResult
			if err := workflow.ExecuteActivity(ctx, a.ReviewComponentActivity, art).Get(ctx, &rev); err != nil {
				logger.Error("Review activity failed", "component", art.Component, "error", err)
				out.Errors = append(out.Errors, FormatErrorForResult("review "+art.Component, err))
				rev = project.ReviewResult{Component: art.Component, Filename: art.Filename, Failed: true, FailureReason: err.Error()}
			}
			res.Reviews = append(res.Reviews, rev)
			if rev.Failed {
				res.AddFailure(project.Failure{
					Step:      string(project.StepReview),
					Component: art.Component,
					Kind:      project.FailureReview,
					Message:   rev.FailureReason,
				})
			}
		}
	}

	// Step 4: tests (HIGH)
	if input.Request.GenerateTests {
		for _, art := range withSource(res.Artifacts) {
			var ta project.TestArtifact
			if err := workflow.ExecuteActivity(ctx, a.GenerateTestsActivity, art).Get(ctx, &ta); err != nil {
				logger.Error("Test activity failed", "component", art.Component, "error", err)
				out.Errors = append(out.Errors, FormatErrorForResult("generate tests "+art.Component, err))
				ta = project.TestArtifact{Component: art.Component, Failed: true, FailureReason: err.Error()}
			}
			res.Tests = append(res.Tests, ta)
			if ta.Failed {
				res.AddFailure(project.Failure{
					Step:      string(project.StepTests),
					Component: art.Component,
					Kind:      project.FailureTestGeneration,
					Message:   ta.FailureReason,
				})
			}
		}
	}

	// Step 5: aggregate
	res.Success = len(res.Artifacts) > 0
	for _, art := range res.Artifacts {
		if !art.Accepted() {
			res.Success = false
		}
	}
	res.CompletedAt = workflow.Now(ctx)

	// Step 6: persist (HIGH)
	var dir string
	if err := workflow.ExecuteActivity(ctx, a.PersistProjectActivity, res).Get(ctx, &dir); err != nil {
		logger.Error("Persist activity failed", "error", err)
		out.Errors = append(out.Errors, FormatErrorForResult("persist project", err))
		res.AddFailure(project.Failure{
			Step:    string(project.StepPersist),
			Kind:    project.FailurePersistence,
			Message: err.Error(),
		})
	} else {
		res.OutputDir = dir
	}

	logger.Info("Project workflow complete",
		"success", res.Success,
		"components", len(res.Artifacts),
		"needs_attention", res.NeedsAttention())
	return out, nil
}

// generateComponents runs the coder activities batch by batch. A failed
// activity leaves an exhausted artifact without source.
func generateComponents(ctx workflow.Context, input ProjectWorkflowInput, arch *project.ArchitectureDocument, out *ProjectWorkflowResult) []project.Artifact {
	var a *Activities
	comps := arch.Components
	arts := make([]project.Artifact, len(comps))
	limit := max(input.Pipeline.Parallelism, 1)

	for _, batch := range orchestrator.Schedule(comps, input.Pipeline.Parallelism, input.Pipeline.DependencyOrder) {
		for start := 0; start < len(batch); start += limit {
			chunk := batch[start:min(start+limit, len(batch))]
			futures := make([]workflow.Future, len(chunk))
			for j, i := range chunk {
				futures[j] = workflow.ExecuteActivity(ctx, a.GenerateComponentActivity, GenerateComponentInput{
					ProjectID:    input.ProjectID,
					Component:    comps[i],
					Architecture: *arch,
					Language:     input.Request.Language,
				})
			}
			for j, i := range chunk {
				if err := futures[j].Get(ctx, &arts[i]); err != nil {
					workflow.GetLogger(ctx).Error("Component activity failed", "component", comps[i].Name, "error", err)
					out.Errors = append(out.Errors, FormatErrorForResult("generate component "+comps[i].Name, err))
					arts[i] = project.Artifact{
						Component: comps[i].Name,
						Language:  input.Request.Language,
						State:     project.StateExhausted,
					}
				}
			}
		}
	}
	return arts
}

func withSource(arts []project.Artifact) []project.Artifact {
	var out []project.Artifact
	for _, a := range arts {
		if a.Source != "" {
			out = append(out, a)
		}
	}
	return out
}
