package orchestrator

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/fyrsmithlabs/airo/internal/project"
)

type MockArchitect struct {
	mock.Mock
}

func (m *MockArchitect) DesignArchitecture(ctx context.Context, req project.Request) (project.ArchitectureDocument, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(project.ArchitectureDocument), args.Error(1)
}

type MockCoder struct {
	mock.Mock
}

func (m *MockCoder) GenerateWithValidation(ctx context.Context, comp project.ComponentSpec, arch *project.ArchitectureDocument, lang project.Language) (project.Artifact, bool, error) {
	args := m.Called(ctx, comp, arch, lang)
	return args.Get(0).(project.Artifact), args.Bool(1), args.Error(2)
}

type MockReviewer struct {
	mock.Mock
}

func (m *MockReviewer) Review(ctx context.Context, art project.Artifact) project.ReviewResult {
	args := m.Called(ctx, art)
	return args.Get(0).(project.ReviewResult)
}

type MockTestGenerator struct {
	mock.Mock
}

func (m *MockTestGenerator) GenerateTests(ctx context.Context, art project.Artifact) project.TestArtifact {
	args := m.Called(ctx, art)
	return args.Get(0).(project.TestArtifact)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Write(ctx context.Context, res *project.Result) (string, error) {
	args := m.Called(ctx, res)
	return args.String(0), args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Remember(ctx context.Context, projectID string, art project.Artifact) error {
	args := m.Called(ctx, projectID, art)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, projectID string, p project.StepProgress) error {
	args := m.Called(ctx, projectID, p)
	return args.Error(0)
}

func accepted(name string) project.Artifact {
	return project.Artifact{Component: name, Filename: name + ".py", Language: project.Python,
		Source: "# " + name, Iterations: 1, State: project.StateAccepted}
}

func exhausted(name string) project.Artifact {
	return project.Artifact{Component: name, Filename: name + ".py", Language: project.Python,
		Source: "# broken " + name, Iterations: 3, State: project.StateExhausted}
}

func componentNamed(name string) interface{} {
	return mock.MatchedBy(func(c project.ComponentSpec) bool { return c.Name == name })
}
