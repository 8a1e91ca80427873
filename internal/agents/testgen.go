package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/llm"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
)

// TestGenerator writes a test file for an artifact in one model call.
type TestGenerator struct {
	client llm.Client
	role   config.RoleConfig
	logger *logging.Logger
}

// NewTestGenerator creates a TestGenerator.
func NewTestGenerator(client llm.Client, role config.RoleConfig, opts ...Option) *TestGenerator {
	s := newSettings(opts)
	return &TestGenerator{client: client, role: role, logger: s.logger.Named("testgen")}
}

// GenerateTests never returns an error; failures are reported in the
// TestArtifact with a reason prefixed by TestGenerationFailed.
func (g *TestGenerator) GenerateTests(ctx context.Context, art project.Artifact) project.TestArtifact {
	ctx = logging.WithComponent(ctx, art.Component)
	framework := art.Language.Info().TestFramework
	if framework == "" {
		framework = "the standard test tooling"
	}
	out := project.TestArtifact{
		Component: art.Component,
		Filename:  TestFilename(art.Filename, art.Language),
		Framework: framework,
	}

	fail := func(err error) project.TestArtifact {
		out.Failed = true
		out.FailureReason = fmt.Errorf("%w: %v", ErrTestGenerationFailed, err).Error()
		g.logger.Warn(ctx, "test generation failed", zap.Error(err))
		return out
	}

	if art.Source == "" {
		return fail(fmt.Errorf("component %q has no source", art.Component))
	}
	comp, err := g.client.Complete(ctx,
		llm.Request{System: testSystem, Prompt: testPrompt(art, framework)},
		options(g.role, llm.FormatText))
	if err != nil {
		return fail(err)
	}
	code, _ := ExtractCode(comp.Text)
	if code == "" {
		return fail(errEmptyDraft)
	}
	out.Source = code
	g.logger.Debug(ctx, "tests generated", zap.String("filename", out.Filename))
	return out
}
