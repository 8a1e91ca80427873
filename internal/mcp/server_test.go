package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
	"github.com/fyrsmithlabs/airo/internal/quality"
)

type stubArchitect struct {
	err  error
	last project.Request
}

func (s *stubArchitect) DesignArchitecture(_ context.Context, req project.Request) (project.ArchitectureDocument, error) {
	s.last = req
	if s.err != nil {
		return project.ArchitectureDocument{}, s.err
	}
	return project.ArchitectureDocument{
		ArchitectureType: "layered",
		Components: []project.ComponentSpec{
			{Name: "store", Responsibility: "persist"},
			{Name: "api", Responsibility: "serve", Dependencies: []string{"store", "cache"}},
		},
	}, nil
}

type stubRunner struct {
	last project.Request
}

func (s *stubRunner) CreateProject(_ context.Context, req project.Request) (*project.Result, error) {
	s.last = req
	start := time.Unix(0, 0)
	return &project.Result{
		ID:      "proj-1",
		Request: req,
		Artifacts: []project.Artifact{
			{Component: "store", Filename: "store.go", State: project.StateAccepted, Iterations: 1,
				History: []quality.Report{{Passed: true, Score: 1}}},
			{Component: "api", Filename: "api.go", State: project.StateExhausted, Iterations: 3,
				History: []quality.Report{{Passed: false, Score: 0.5}}},
		},
		Failures:    []project.Failure{{Kind: project.FailureExhausted, Component: "api", Message: "not accepted after 3 iteration(s)"}},
		OutputDir:   "/tmp/out/todo",
		StartedAt:   start,
		CompletedAt: start.Add(1500 * time.Millisecond),
	}, nil
}

func connect(t *testing.T, architect *stubArchitect, runner *stubRunner) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.Logger = logging.NewTestLogger().Logger
	s, err := NewServer(cfg, architect, runner)
	require.NoError(t, err)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func call[T any](t *testing.T, session *mcp.ClientSession, tool string, args map[string]any) (*mcp.CallToolResult, T, error) {
	t.Helper()
	var out T
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		return nil, out, err
	}
	if res.IsError {
		return res, out, errors.New("tool error")
	}
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))
	return res, out, nil
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil, nil, &stubRunner{})
	assert.ErrorContains(t, err, "architect is required")

	_, err = NewServer(nil, &stubArchitect{}, nil)
	assert.ErrorContains(t, err, "runner is required")

	s, err := NewServer(nil, &stubArchitect{}, &stubRunner{})
	require.NoError(t, err)
	assert.NotNil(t, s.mcp)
}

func TestListTools(t *testing.T) {
	session := connect(t, &stubArchitect{}, &stubRunner{})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"design_architecture", "create_project"}, names)
}

func TestDesignArchitectureTool(t *testing.T) {
	architect := &stubArchitect{}
	session := connect(t, architect, &stubRunner{})

	res, out, err := call[designArchitectureOutput](t, session, "design_architecture", map[string]any{
		"description": "todo api",
		"language":    "golang",
	})
	require.NoError(t, err)
	assert.Equal(t, project.Go, architect.last.Language)
	assert.Equal(t, "layered", out.Architecture.ArchitectureType)
	assert.Len(t, out.Architecture.Components, 2)
	assert.Equal(t, []string{`api: unknown dependency "cache"`}, out.Issues)

	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "Designed layered architecture with 2 component(s)", text.Text)
}

func TestDesignArchitectureTool_Errors(t *testing.T) {
	architect := &stubArchitect{err: errors.New("ArchitectureDesignFailed: model unavailable")}
	session := connect(t, architect, &stubRunner{})

	_, _, err := call[designArchitectureOutput](t, session, "design_architecture", map[string]any{"description": "x"})
	assert.Error(t, err)

	_, _, err = call[designArchitectureOutput](t, session, "design_architecture", map[string]any{"description": "x", "language": "cobol"})
	assert.Error(t, err)
}

func TestCreateProjectTool(t *testing.T) {
	runner := &stubRunner{}
	session := connect(t, &stubArchitect{}, runner)

	res, out, err := call[createProjectOutput](t, session, "create_project", map[string]any{
		"name":           "todo",
		"description":    "todo api",
		"language":       "go",
		"generate_tests": false,
	})
	require.NoError(t, err)

	assert.False(t, runner.last.GenerateTests)
	assert.True(t, runner.last.GenerateReview)
	assert.Equal(t, "proj-1", out.ID)
	assert.True(t, out.Partial)
	assert.False(t, out.Success)
	assert.Equal(t, "/tmp/out/todo", out.OutputDir)
	assert.Equal(t, []string{"api"}, out.NeedsAttention)
	assert.Equal(t, int64(1500), out.DurationMS)
	require.Len(t, out.Components, 2)
	assert.Equal(t, componentSummary{Name: "api", Filename: "api.go", State: "exhausted", Iterations: 3, Score: 0.5}, out.Components[1])
	assert.Equal(t, []string{"component_exhausted: not accepted after 3 iteration(s)"}, out.Failures)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "needs attention")
}

func TestCreateProjectTool_InvalidRequest(t *testing.T) {
	runner := &stubRunner{}
	session := connect(t, &stubArchitect{}, runner)

	_, _, err := call[createProjectOutput](t, session, "create_project", map[string]any{"description": "   "})
	assert.Error(t, err)
	assert.Empty(t, runner.last.Description)
}

func TestHeadline(t *testing.T) {
	res := &project.Result{Request: project.Request{Name: "todo"}, Success: true, OutputDir: "/out", Artifacts: make([]project.Artifact, 2)}
	assert.Equal(t, "Project todo created with 2 component(s) in /out", headline(res))

	res = &project.Result{Request: project.Request{Name: "todo"}, Fatal: true, Failures: make([]project.Failure, 1)}
	assert.Equal(t, "Project todo failed: 1 failure(s) recorded", headline(res))
}
