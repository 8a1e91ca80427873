package agents

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/llm"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
)

// Architect turns a project request into an ArchitectureDocument.
type Architect struct {
	client llm.Client
	role   config.RoleConfig
	logger *logging.Logger
}

// NewArchitect creates an Architect using role's model settings.
func NewArchitect(client llm.Client, role config.RoleConfig, opts ...Option) *Architect {
	s := newSettings(opts)
	return &Architect{client: client, role: role, logger: s.logger.Named("architect")}
}

// DesignArchitecture asks the model for a design. A malformed answer is
// retried once with a stricter prompt; a second failure, or any other model
// error, returns ErrArchitectureDesignFailed wrapping the cause.
func (a *Architect) DesignArchitecture(ctx context.Context, req project.Request) (project.ArchitectureDocument, error) {
	opts := options(a.role, llm.FormatJSON)
	opts.Schema = architectureSchema

	doc, err := llm.Decode[project.ArchitectureDocument](ctx, a.client,
		llm.Request{System: architectSystem, Prompt: architectPrompt(req)}, opts)
	if errors.Is(err, llm.ErrMalformedResponse) {
		a.logger.Warn(ctx, "architecture response malformed, retrying with strict prompt", zap.Error(err))
		doc, err = llm.Decode[project.ArchitectureDocument](ctx, a.client,
			llm.Request{System: architectSystem, Prompt: strictArchitectPrompt(req, err)}, opts)
	}
	if err != nil {
		a.logger.Error(ctx, "architecture design failed", zap.String("kind", llm.Kind(err)), zap.Error(err))
		return project.ArchitectureDocument{}, fmt.Errorf("%w: %w", ErrArchitectureDesignFailed, err)
	}

	doc = doc.WithFallback(req.Description)
	for _, issue := range doc.Issues() {
		a.logger.Warn(ctx, "architecture issue", zap.String("component", issue.Component), zap.String("issue", issue.Message))
	}
	a.logger.Info(ctx, "architecture designed",
		zap.String("type", doc.ArchitectureType),
		zap.Int("components", len(doc.Components)),
	)
	return doc, nil
}
