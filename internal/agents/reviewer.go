package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/llm"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/project"
)

// Review severities.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
)

// looseString accepts JSON strings, numbers and booleans. Models often emit
// "location": 12.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = looseString(str)
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case float64, bool:
		*s = looseString(strings.TrimSpace(string(data)))
		return nil
	}
	return fmt.Errorf("expected string, got %s", data)
}

type reviewIssue struct {
	Severity    looseString `json:"severity"`
	Category    looseString `json:"category"`
	Description looseString `json:"description"`
	Location    looseString `json:"location"`
	Suggestion  looseString `json:"suggestion"`
}

type reviewWire struct {
	OverallRating   float64       `json:"overall_rating"`
	Summary         looseString   `json:"summary"`
	Strengths       []string      `json:"strengths"`
	Issues          []reviewIssue `json:"issues"`
	Recommendations []string      `json:"recommendations"`
}

// Reviewer scores an artifact in one model call.
type Reviewer struct {
	client llm.Client
	role   config.RoleConfig
	logger *logging.Logger
}

// NewReviewer creates a Reviewer.
func NewReviewer(client llm.Client, role config.RoleConfig, opts ...Option) *Reviewer {
	s := newSettings(opts)
	return &Reviewer{client: client, role: role, logger: s.logger.Named("reviewer")}
}

// Review never returns an error; a failed call yields Failed=true.
func (r *Reviewer) Review(ctx context.Context, art project.Artifact) project.ReviewResult {
	ctx = logging.WithComponent(ctx, art.Component)
	out := project.ReviewResult{Component: art.Component, Filename: art.Filename}

	if art.Source == "" {
		out.Failed = true
		out.FailureReason = fmt.Errorf("%w: component %q has no source", ErrReviewFailed, art.Component).Error()
		return out
	}

	opts := options(r.role, llm.FormatJSON)
	opts.Schema = reviewSchema
	wire, err := llm.Decode[reviewWire](ctx, r.client,
		llm.Request{System: reviewSystem, Prompt: reviewPrompt(art)}, opts)
	if err != nil {
		r.logger.Warn(ctx, "review failed", zap.String("kind", llm.Kind(err)), zap.Error(err))
		out.Failed = true
		out.FailureReason = fmt.Errorf("%w: %v", ErrReviewFailed, err).Error()
		return out
	}

	out.Score = clampRating(wire.OverallRating)
	out.Summary = strings.TrimSpace(string(wire.Summary))
	out.Strengths = nonEmpty(wire.Strengths)
	out.Suggestions = nonEmpty(wire.Recommendations)
	for _, issue := range wire.Issues {
		msg := strings.TrimSpace(string(issue.Description))
		if msg == "" {
			continue
		}
		out.Findings = append(out.Findings, project.Finding{
			Severity:   normalizeSeverity(string(issue.Severity)),
			Category:   normalizeCategory(string(issue.Category)),
			Message:    msg,
			Location:   strings.TrimSpace(string(issue.Location)),
			Suggestion: strings.TrimSpace(string(issue.Suggestion)),
		})
	}
	r.logger.Debug(ctx, "review complete", zap.Int("score", out.Score), zap.Int("findings", len(out.Findings)))
	return out
}

func clampRating(v float64) int {
	n := int(math.Round(v))
	switch {
	case n < 1:
		return 1
	case n > 5:
		return 5
	default:
		return n
	}
}

func normalizeSeverity(s string) string {
	switch up := strings.ToUpper(strings.TrimSpace(s)); up {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return up
	default:
		return SeverityMedium
	}
}

func normalizeCategory(s string) project.ReviewCategory {
	switch c := project.ReviewCategory(strings.ToLower(strings.TrimSpace(s))); c {
	case project.CategorySecurity, project.CategoryPerformance:
		return c
	default:
		return project.CategoryMaintainability
	}
}

func nonEmpty(items []string) []string {
	var out []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
