package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/orchestrator"
	"github.com/fyrsmithlabs/airo/internal/project"
)

var errNotConfigured = errors.New("not configured")

// Activities runs the agents on behalf of ProjectWorkflow. Register a single
// instance with the worker; each method is one activity.
type Activities struct {
	Architect     orchestrator.Architect
	Coder         orchestrator.Coder
	Reviewer      orchestrator.Reviewer
	TestGenerator orchestrator.TestGenerator
	Sink          orchestrator.Sink
	Memory        orchestrator.Recorder
	Logger        *logging.Logger
}

// GenerateComponentInput is the input of GenerateComponentActivity.
type GenerateComponentInput struct {
	ProjectID    string
	Component    project.ComponentSpec
	Architecture project.ArchitectureDocument
	Language     project.Language
}

func (a *Activities) logger() *logging.Logger {
	if a.Logger == nil {
		return logging.Nop()
	}
	return a.Logger
}

// DesignArchitectureActivity asks the architect for a design.
func (a *Activities) DesignArchitectureActivity(ctx context.Context, req project.Request) (doc project.ArchitectureDocument, err error) {
	defer func(start time.Time) { observe(ctx, "design_architecture", start, err) }(time.Now())
	if a.Architect == nil {
		return doc, fmt.Errorf("architect: %w", errNotConfigured)
	}
	return a.Architect.DesignArchitecture(ctx, req)
}

// GenerateComponentActivity runs the coder loop for one component and
// remembers it when accepted.
func (a *Activities) GenerateComponentActivity(ctx context.Context, in GenerateComponentInput) (art project.Artifact, err error) {
	defer func(start time.Time) { observe(ctx, "generate_component", start, err) }(time.Now())
	if a.Coder == nil {
		return art, fmt.Errorf("coder: %w", errNotConfigured)
	}
	ctx = logging.WithComponent(logging.WithProjectID(ctx, in.ProjectID), in.Component.Name)

	art, _, err = a.Coder.GenerateWithValidation(ctx, in.Component, &in.Architecture, in.Language)
	if err != nil {
		return art, err
	}
	if art.Accepted() && a.Memory != nil {
		if err := a.Memory.Remember(ctx, in.ProjectID, art); err != nil {
			a.logger().Warn(ctx, "remembering component failed", zap.Error(err))
		}
	}
	return art, nil
}

// ReviewComponentActivity reviews one artifact.
func (a *Activities) ReviewComponentActivity(ctx context.Context, art project.Artifact) (rev project.ReviewResult, err error) {
	defer func(start time.Time) { observe(ctx, "review_component", start, err) }(time.Now())
	if a.Reviewer == nil {
		return rev, fmt.Errorf("reviewer: %w", errNotConfigured)
	}
	return a.Reviewer.Review(ctx, art), nil
}

// GenerateTestsActivity writes tests for one artifact.
func (a *Activities) GenerateTestsActivity(ctx context.Context, art project.Artifact) (ta project.TestArtifact, err error) {
	defer func(start time.Time) { observe(ctx, "generate_tests", start, err) }(time.Now())
	if a.TestGenerator == nil {
		return ta, fmt.Errorf("test generator: %w", errNotConfigured)
	}
	return a.TestGenerator.GenerateTests(ctx, art), nil
}

// PersistProjectActivity writes the result and returns the output directory.
func (a *Activities) PersistProjectActivity(ctx context.Context, res *project.Result) (dir string, err error) {
	defer func(start time.Time) { observe(ctx, "persist_project", start, err) }(time.Now())
	if a.Sink == nil {
		return "", nil
	}
	return a.Sink.Write(ctx, res)
}
