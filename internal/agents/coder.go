package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/llm"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/memory"
	"github.com/fyrsmithlabs/airo/internal/project"
	"github.com/fyrsmithlabs/airo/internal/quality"
)

// DefaultMaxIterations bounds the coder loop when none is configured.
const DefaultMaxIterations = 3

// Gate validates a draft. *quality.Gate implements it.
type Gate interface {
	Check(ctx context.Context, source, language string) quality.Report
}

type coderState int

const (
	stateDrafting coderState = iota
	stateValidating
	stateAccepted
	stateExhausted
)

func (s coderState) String() string {
	switch s {
	case stateDrafting:
		return "drafting"
	case stateValidating:
		return "validating"
	case stateAccepted:
		return "accepted"
	default:
		return "exhausted"
	}
}

// Coder drafts a component and repairs it until the gate reports no errors
// or the iteration limit is reached.
type Coder struct {
	client        llm.Client
	gate          Gate
	role          config.RoleConfig
	maxIterations int
	settings      settings
	logger        *logging.Logger
	iterations    metric.Int64Histogram
}

// NewCoder creates a Coder. maxIterations < 1 uses DefaultMaxIterations.
func NewCoder(client llm.Client, gate Gate, role config.RoleConfig, maxIterations int, opts ...Option) *Coder {
	s := newSettings(opts)
	if maxIterations < 1 {
		maxIterations = DefaultMaxIterations
	}
	meter := s.meter
	if meter == nil {
		meter = noop.Meter{}
	}
	hist, err := meter.Int64Histogram("airo.coder.iterations",
		metric.WithDescription("Coder loop iterations per component"))
	if err != nil {
		hist, _ = noop.Meter{}.Int64Histogram("airo.coder.iterations")
	}
	return &Coder{
		client:        client,
		gate:          gate,
		role:          role,
		maxIterations: maxIterations,
		settings:      s,
		logger:        s.logger.Named("coder"),
		iterations:    hist,
	}
}

// GenerateWithValidation runs the feedback loop for one component. The
// returned artifact carries every gate report and the last draft, accepted
// or not. The error is non-nil only when ctx is cancelled.
func (c *Coder) GenerateWithValidation(ctx context.Context, comp project.ComponentSpec, arch *project.ArchitectureDocument, lang project.Language) (project.Artifact, bool, error) {
	ctx = logging.WithComponent(ctx, comp.Name)
	art := project.Artifact{
		Component: comp.Name,
		Filename:  SourceFilename(comp, lang),
		Language:  lang,
	}
	d := draft{component: comp, arch: arch, language: lang, related: c.related(ctx, comp, lang)}

	state := stateDrafting
	for state != stateAccepted && state != stateExhausted {
		if err := ctx.Err(); err != nil {
			art.State = project.StateExhausted
			return art, false, err
		}

		switch state {
		case stateDrafting:
			art.Iterations++
			source, err := c.draft(ctx, d)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					art.State = project.StateExhausted
					return art, false, ctxErr
				}
				c.logger.Warn(ctx, "draft failed", zap.Int("iteration", art.Iterations), zap.Error(err))
				art.History = append(art.History, modelFailure(err))
				state = c.next(art.Iterations)
				continue
			}
			art.Source = source
			state = stateValidating

		case stateValidating:
			report := c.gate.Check(ctx, art.Source, string(lang))
			art.History = append(art.History, report)
			c.logger.Debug(ctx, "draft validated",
				zap.Int("iteration", art.Iterations),
				zap.Bool("passed", report.Passed),
				zap.Float64("score", report.Score),
				zap.Int("errors", report.Count(quality.SeverityError)),
				zap.Int("warnings", report.Count(quality.SeverityWarning)),
			)
			if report.Passed {
				state = stateAccepted
				continue
			}
			d.previous, d.report = art.Source, &report
			state = c.next(art.Iterations)
		}
	}

	if state == stateAccepted {
		art.State = project.StateAccepted
	} else {
		art.State = project.StateExhausted
	}
	c.iterations.Record(ctx, int64(art.Iterations), metric.WithAttributes(attribute.String("state", state.String())))
	c.logger.Info(ctx, "component "+state.String(), zap.Int("iterations", art.Iterations), zap.String("filename", art.Filename))
	return art, art.Accepted(), nil
}

func (c *Coder) next(iteration int) coderState {
	if iteration < c.maxIterations {
		return stateDrafting
	}
	return stateExhausted
}

func (c *Coder) draft(ctx context.Context, d draft) (string, error) {
	opts := options(c.role, llm.FormatText)
	if c.settings.streaming {
		opts.Stream = true
		name := d.component.Name
		opts.OnChunk = func(chunk string) { c.settings.onChunk(name, chunk) }
	}
	comp, err := c.client.Complete(ctx, llm.Request{System: coderSystem, Prompt: coderPrompt(d)}, opts)
	if err != nil {
		return "", err
	}
	code, _ := ExtractCode(comp.Text)
	if code == "" {
		return "", errEmptyDraft
	}
	return code, nil
}

// related fetches remembered components in the same language. Memory
// failures only cost context.
func (c *Coder) related(ctx context.Context, comp project.ComponentSpec, lang project.Language) []memory.Match {
	if c.settings.recall <= 0 {
		return nil
	}
	query := strings.TrimSpace(comp.Name + " " + comp.Responsibility)
	matches, err := c.settings.memory.Related(ctx, query, c.settings.recall)
	if err != nil {
		c.logger.Warn(ctx, "memory lookup failed", zap.Error(err))
		return nil
	}
	var out []memory.Match
	for _, m := range matches {
		if m.Language == lang {
			out = append(out, m)
		}
	}
	return out
}

// modelFailure records a failed draft as a gate-shaped report so History
// stays one entry per iteration.
func modelFailure(err error) quality.Report {
	code := llm.Kind(err)
	if errors.Is(err, errEmptyDraft) {
		code = "empty"
	}
	return quality.NewReport([]quality.Diagnostic{{
		Severity: quality.SeverityError,
		Message:  fmt.Sprintf("model error: %v", err),
		Tool:     "model",
		Code:     code,
	}}, nil)
}
