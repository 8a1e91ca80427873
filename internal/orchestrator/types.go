package orchestrator

import (
	"context"

	"github.com/fyrsmithlabs/airo/internal/project"
)

// Architect designs the project.
type Architect interface {
	DesignArchitecture(ctx context.Context, req project.Request) (project.ArchitectureDocument, error)
}

// Coder produces one component through the feedback loop.
type Coder interface {
	GenerateWithValidation(ctx context.Context, comp project.ComponentSpec, arch *project.ArchitectureDocument, lang project.Language) (project.Artifact, bool, error)
}

// Reviewer scores an artifact.
type Reviewer interface {
	Review(ctx context.Context, art project.Artifact) project.ReviewResult
}

// TestGenerator writes tests for an artifact.
type TestGenerator interface {
	GenerateTests(ctx context.Context, art project.Artifact) project.TestArtifact
}

// Sink persists a finished result and returns where it was written.
type Sink interface {
	Write(ctx context.Context, res *project.Result) (string, error)
}

// Recorder remembers accepted components.
type Recorder interface {
	Remember(ctx context.Context, projectID string, art project.Artifact) error
}

// Publisher forwards progress events, e.g. to NATS.
type Publisher interface {
	Publish(ctx context.Context, projectID string, p project.StepProgress) error
}

// ProgressCallback receives progress updates during execution.
type ProgressCallback func(progress project.StepProgress)

// stepRange is the share of the progress bar each step covers.
var stepRange = map[project.Step][2]int{
	project.StepArchitect:  {0, 10},
	project.StepComponents: {10, 70},
	project.StepReview:     {70, 80},
	project.StepTests:      {80, 90},
	project.StepAggregate:  {90, 95},
	project.StepPersist:    {95, 100},
}

func percentage(step project.Step, done, total int) int {
	r := stepRange[step]
	if total <= 0 {
		return r[0]
	}
	return r[0] + (r[1]-r[0])*done/total
}
