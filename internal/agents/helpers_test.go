package agents

import (
	"context"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/llm"
	"github.com/fyrsmithlabs/airo/internal/memory"
	"github.com/fyrsmithlabs/airo/internal/project"
	"github.com/fyrsmithlabs/airo/internal/quality"
)

var testRole = config.RoleConfig{Model: "test-model", Temperature: 0.2}

// scriptedGate returns reports in order; the last one repeats.
type scriptedGate struct {
	mu      sync.Mutex
	reports []quality.Report
	sources []string
}

func (g *scriptedGate) Check(_ context.Context, source, _ string) quality.Report {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := len(g.sources)
	g.sources = append(g.sources, source)
	if idx >= len(g.reports) {
		idx = len(g.reports) - 1
	}
	return g.reports[idx]
}

func (g *scriptedGate) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sources)
}

func passing() quality.Report {
	return quality.NewReport(nil, nil)
}

func failing(msg string) quality.Report {
	return quality.NewReport([]quality.Diagnostic{{Severity: quality.SeverityError, Message: msg, Tool: "ruff"}}, nil)
}

func warningsOnly(n int) quality.Report {
	diags := make([]quality.Diagnostic, n)
	for i := range diags {
		diags[i] = quality.Diagnostic{Severity: quality.SeverityWarning, Message: fmt.Sprintf("warning %d", i+1), Tool: "ruff"}
	}
	return quality.NewReport(diags, nil)
}

func fenced(lang, code string) llm.FakeResponse {
	return llm.FakeResponse{Text: "Here you go:\n```" + lang + "\n" + code + "\n```\n"}
}

var unavailable = llm.FakeResponse{Err: fmt.Errorf("%w: connection refused", llm.ErrModelUnavailable)}

type stubMemory struct {
	matches []memory.Match
	queries []string
}

func (m *stubMemory) Remember(context.Context, string, project.Artifact) error { return nil }

func (m *stubMemory) Related(_ context.Context, query string, _ int) ([]memory.Match, error) {
	m.queries = append(m.queries, query)
	return m.matches, nil
}
