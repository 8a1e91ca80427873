package workflows

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/testsuite"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
)

type fakeArchitect struct {
	doc project.ArchitectureDocument
	err error
}

func (f fakeArchitect) DesignArchitecture(context.Context, project.Request) (project.ArchitectureDocument, error) {
	return f.doc, f.err
}

// fakeCoder accepts every component except those listed in exhaust and fails
// those listed in broken.
type fakeCoder struct {
	mu      sync.Mutex
	exhaust map[string]bool
	broken  map[string]bool
	calls   []string
}

func (f *fakeCoder) GenerateWithValidation(_ context.Context, c project.ComponentSpec, _ *project.ArchitectureDocument, lang project.Language) (project.Artifact, bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c.Name)
	f.mu.Unlock()
	if f.broken[c.Name] {
		return project.Artifact{}, false, errors.New("coder crashed")
	}
	art := project.Artifact{
		Component: c.Name, Filename: "app" + lang.Extension(), Language: lang,
		Source: "source of " + c.Name, Iterations: 1, State: project.StateAccepted,
	}
	if f.exhaust[c.Name] {
		art.Iterations = 3
		art.State = project.StateExhausted
	}
	return art, art.Accepted(), nil
}

type fakeReviewer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeReviewer) Review(_ context.Context, art project.Artifact) project.ReviewResult {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return project.ReviewResult{Component: art.Component, Filename: art.Filename, Score: 4}
}

type fakeTests struct{}

func (fakeTests) GenerateTests(_ context.Context, art project.Artifact) project.TestArtifact {
	if art.Component == "flaky" {
		return project.TestArtifact{Component: art.Component, Failed: true, FailureReason: "TestGenerationFailed: timeout"}
	}
	return project.TestArtifact{Component: art.Component, Filename: "test_" + art.Filename, Source: "tests"}
}

type fakeSink struct{ err error }

func (f fakeSink) Write(_ context.Context, res *project.Result) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "/out/" + project.Slug(res.Request.Name), nil
}

type fakeMemory struct {
	mu         sync.Mutex
	remembered []string
}

func (f *fakeMemory) Remember(_ context.Context, _ string, art project.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remembered = append(f.remembered, art.Component)
	return nil
}

func design(names ...string) project.ArchitectureDocument {
	doc := project.ArchitectureDocument{ArchitectureType: "layered"}
	for _, n := range names {
		doc.Components = append(doc.Components, project.ComponentSpec{Name: n, Responsibility: n})
	}
	return doc
}

func input(review, tests bool) ProjectWorkflowInput {
	return ProjectWorkflowInput{
		ProjectID: "proj-1",
		Request: project.Request{
			Name: "todo api", Description: "todo api", Language: project.Python,
			GenerateReview: review, GenerateTests: tests,
		},
		Pipeline: config.PipelineConfig{MaxIterations: 3, Parallelism: 1},
	}
}

func run(t *testing.T, acts *Activities, in ProjectWorkflowInput) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ProjectWorkflow)
	env.RegisterActivity(acts)
	env.ExecuteWorkflow(ProjectWorkflow, in)
	require.True(t, env.IsWorkflowCompleted())
	return env
}

func TestProjectWorkflow(t *testing.T) {
	t.Run("generates every component", func(t *testing.T) {
		memory := &fakeMemory{}
		reviewer := &fakeReviewer{}
		acts := &Activities{
			Architect:     fakeArchitect{doc: design("store", "service", "api")},
			Coder:         &fakeCoder{exhaust: map[string]bool{"service": true}},
			Reviewer:      reviewer,
			TestGenerator: fakeTests{},
			Sink:          fakeSink{},
			Memory:        memory,
		}
		env := run(t, acts, input(true, true))
		require.NoError(t, env.GetWorkflowError())

		var out ProjectWorkflowResult
		require.NoError(t, env.GetWorkflowResult(&out))
		res := out.Result
		require.Len(t, res.Artifacts, 3)
		assert.Equal(t, "store", res.Artifacts[0].Component)
		assert.Equal(t, "app.py", res.Artifacts[0].Filename)
		assert.Equal(t, "app_2.py", res.Artifacts[1].Filename)
		assert.Equal(t, "app_3.py", res.Artifacts[2].Filename)

		assert.False(t, res.Success)
		assert.False(t, res.Fatal)
		assert.True(t, res.Partial())
		assert.Equal(t, []string{"service"}, res.NeedsAttention())
		assert.Len(t, res.Reviews, 3)
		assert.Equal(t, 3, reviewer.calls)
		assert.Len(t, res.Tests, 3)
		assert.Equal(t, "/out/todo-api", res.OutputDir)
		assert.ElementsMatch(t, []string{"store", "api"}, memory.remembered)
		assert.Empty(t, out.Errors)
	})

	t.Run("architecture failure is critical", func(t *testing.T) {
		coder := &fakeCoder{}
		acts := &Activities{
			Architect: fakeArchitect{err: errors.New("ArchitectureDesignFailed: model unavailable")},
			Coder:     coder,
			Sink:      fakeSink{},
		}
		env := run(t, acts, input(false, false))

		err := env.GetWorkflowError()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "design architecture failed")
		assert.Empty(t, coder.calls)
	})

	t.Run("skips review and tests when not requested", func(t *testing.T) {
		reviewer := &fakeReviewer{}
		acts := &Activities{
			Architect: fakeArchitect{doc: design("main")},
			Coder:     &fakeCoder{},
			Reviewer:  reviewer,
			Sink:      fakeSink{},
		}
		env := run(t, acts, input(false, false))
		require.NoError(t, env.GetWorkflowError())

		var out ProjectWorkflowResult
		require.NoError(t, env.GetWorkflowResult(&out))
		assert.True(t, out.Result.Success)
		assert.Empty(t, out.Result.Reviews)
		assert.Empty(t, out.Result.Tests)
		assert.Zero(t, reviewer.calls)
	})

	t.Run("component activity failure is recorded", func(t *testing.T) {
		acts := &Activities{
			Architect:     fakeArchitect{doc: design("first", "second")},
			Coder:         &fakeCoder{broken: map[string]bool{"first": true}},
			Reviewer:      &fakeReviewer{},
			TestGenerator: fakeTests{},
			Sink:          fakeSink{},
		}
		env := run(t, acts, input(true, true))
		require.NoError(t, env.GetWorkflowError())

		var out ProjectWorkflowResult
		require.NoError(t, env.GetWorkflowResult(&out))
		res := out.Result
		require.Len(t, res.Artifacts, 2)
		assert.Equal(t, project.StateExhausted, res.Artifacts[0].State)
		assert.Empty(t, res.Artifacts[0].Source)
		assert.Len(t, res.Reviews, 1, "artifacts without source are not reviewed")
		require.Len(t, out.Errors, 1)
		assert.Contains(t, out.Errors[0], "generate component first")
	})

	t.Run("review and test failures do not stop the run", func(t *testing.T) {
		acts := &Activities{
			Architect:     fakeArchitect{doc: design("flaky")},
			Coder:         &fakeCoder{},
			TestGenerator: fakeTests{},
			Sink:          fakeSink{err: errors.New("disk full")},
		}
		env := run(t, acts, input(true, true))
		require.NoError(t, env.GetWorkflowError())

		var out ProjectWorkflowResult
		require.NoError(t, env.GetWorkflowResult(&out))
		res := out.Result
		assert.True(t, res.Success)
		require.Len(t, res.Reviews, 1)
		assert.True(t, res.Reviews[0].Failed, "missing reviewer fails the activity")
		require.Len(t, res.Tests, 1)
		assert.True(t, res.Tests[0].Failed)
		assert.Empty(t, res.OutputDir)

		var kinds []project.FailureKind
		for _, f := range res.Failures {
			kinds = append(kinds, f.Kind)
		}
		assert.ElementsMatch(t, []project.FailureKind{
			project.FailureReview, project.FailureTestGeneration, project.FailurePersistence,
		}, kinds)
		assert.Len(t, out.Errors, 2)
	})

	t.Run("parallel batches keep declared order", func(t *testing.T) {
		doc := design("api", "store", "cache")
		doc.Components[0].Dependencies = []string{"store", "cache"}
		coder := &fakeCoder{}
		acts := &Activities{Architect: fakeArchitect{doc: doc}, Coder: coder, Sink: fakeSink{}}

		in := input(false, false)
		in.Pipeline.Parallelism = 2
		env := run(t, acts, in)
		require.NoError(t, env.GetWorkflowError())

		var out ProjectWorkflowResult
		require.NoError(t, env.GetWorkflowResult(&out))
		names := []string{}
		for _, a := range out.Result.Artifacts {
			names = append(names, a.Component)
		}
		assert.Equal(t, []string{"api", "store", "cache"}, names)
		require.Len(t, coder.calls, 3)
		assert.Equal(t, "api", coder.calls[2], "dependents run after their dependencies")
	})
}

func TestWorkflowError(t *testing.T) {
	cause := errors.New("timeout")
	err := NewWorkflowError("review component", ErrorSeverityHigh, cause, "store")

	assert.Equal(t, "review component failed: timeout (store)", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "persist project failed: timeout", NewWorkflowError("persist project", ErrorSeverityHigh, cause, "").Error())
	assert.Equal(t, "persist project: timeout", FormatErrorForResult("persist project", cause))
}

func TestTemporalLogger(t *testing.T) {
	logger := logging.NewTestLogger()
	l := NewLogger(logger.Logger).(tlog.WithLogger).With("workflow", "ProjectWorkflow")

	l.Info("Starting project workflow", "project_id", "proj-1", "dangling")
	logger.AssertLogged(t, zapcore.InfoLevel, "Starting project workflow")
	logger.AssertField(t, "Starting project workflow", "project_id", "proj-1")
	logger.AssertField(t, "Starting project workflow", "workflow", "ProjectWorkflow")
	logger.AssertField(t, "Starting project workflow", "extra", "dangling")
}
