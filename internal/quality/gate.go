// Package quality implements the Quality Gate: the automated checks that
// decide whether a generated draft is accepted.
//
// A gate run writes the draft into a scratch directory, checks syntax, then
// runs the linters, type checkers, security scanners and formatters
// configured for the language, followed by complexity heuristics. Only
// error-severity diagnostics fail a draft. Missing tools and tool timeouts
// degrade to warnings so an incomplete toolchain never blocks generation.
package quality

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
)

// DefaultToolTimeout bounds each external tool.
const DefaultToolTimeout = 30 * time.Second

// Gate runs quality checks. It is safe for concurrent use.
type Gate struct {
	cfg     config.QualityConfig
	runner  CommandRunner
	secrets SecretScanner
	logger  *logging.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithRunner replaces the process runner.
func WithRunner(r CommandRunner) Option {
	return func(g *Gate) { g.runner = r }
}

// WithSecretScanner replaces the secret scanner. nil disables scanning.
func WithSecretScanner(s SecretScanner) Option {
	return func(g *Gate) { g.secrets = s }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// New returns a Gate for cfg.
func New(cfg config.QualityConfig, opts ...Option) *Gate {
	g := &Gate{
		cfg:     cfg,
		runner:  ExecRunner{},
		secrets: NewGitleaksScanner(),
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cfg.ToolTimeout.Duration() <= 0 {
		g.cfg.ToolTimeout = config.Duration(DefaultToolTimeout)
	}
	return g
}

func (g *Gate) enabled(step Step) bool {
	switch step {
	case StepLinting:
		return g.cfg.Linting
	case StepTypeCheck:
		return g.cfg.TypeChecking
	case StepSecurity:
		return g.cfg.SecurityScan
	case StepFormatting:
		return g.cfg.Formatting
	default:
		return true
	}
}

// Check validates source written in language.
func (g *Gate) Check(ctx context.Context, source, language string) Report {
	if strings.TrimSpace(source) == "" {
		return NewReport([]Diagnostic{{Severity: SeverityError, Message: "no source code produced", Tool: "gate"}}, nil)
	}

	prof, ok := profiles[language]
	if !ok {
		diags := g.scanSecrets(source)
		return NewReport(diags, []string{string(StepSyntax), string(StepLinting), string(StepTypeCheck), string(StepFormatting), string(StepComplexity)})
	}

	var (
		diags   []Diagnostic
		skipped []string
	)

	dir, err := os.MkdirTemp("", "airo-gate-*")
	if err != nil {
		diags = append(diags, Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf("creating workspace: %v", err), Tool: "gate"})
	} else {
		defer os.RemoveAll(dir)
		if err := os.WriteFile(filepath.Join(dir, prof.filename), []byte(source), 0o600); err != nil {
			diags = append(diags, Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf("writing source: %v", err), Tool: "gate"})
			dir = ""
		}
	}

	if prof.syntax == nil {
		skipped = append(skipped, string(StepSyntax))
	} else {
		syn := prof.syntax(ctx, g, source, dir, prof.filename)
		diags = append(diags, syn...)
		if hasErrors(syn) {
			for _, step := range toolSteps {
				skipped = append(skipped, string(step))
			}
			skipped = append(skipped, string(StepComplexity))
			return NewReport(diags, skipped)
		}
	}

	for _, step := range toolSteps {
		if !g.enabled(step) {
			skipped = append(skipped, string(step))
			continue
		}
		if dir != "" {
			for _, t := range prof.tools {
				if t.step == step {
					diags = append(diags, g.runTool(ctx, t, dir, prof.filename)...)
				}
			}
		}
		switch {
		case step == StepSecurity:
			diags = append(diags, g.scanSecrets(source)...)
		case step == StepFormatting && prof.format != nil:
			diags = append(diags, prof.format(source)...)
		}
	}

	if prof.complexity != nil {
		diags = append(diags, prof.complexity(source)...)
	} else {
		skipped = append(skipped, string(StepComplexity))
	}

	report := NewReport(diags, skipped)
	g.logger.Debug(ctx, "quality gate finished",
		zap.String("language", language),
		zap.Bool("passed", report.Passed),
		zap.Int("errors", report.Count(SeverityError)),
		zap.Int("warnings", report.Count(SeverityWarning)),
		zap.Float64("score", report.Score),
	)
	return report
}

// exec runs one command with the tool timeout. When ok is false the
// returned diagnostics describe why the tool could not run.
func (g *Gate) exec(ctx context.Context, t tool, cmd Command) (CommandResult, []Diagnostic, bool) {
	timeout := g.cfg.ToolTimeout.Duration()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := g.runner.Run(ctx, cmd)
	switch {
	case err == nil:
		return res, nil, true
	case errors.Is(err, ErrToolNotFound):
		if t.quietMissing {
			return res, nil, false
		}
		g.logger.Debug(ctx, "quality tool missing", zap.String("tool", t.name))
		return res, []Diagnostic{{Severity: SeverityWarning, Message: "tool not found: " + t.name, Tool: t.name}}, false
	case errors.Is(err, ErrToolTimeout):
		return res, []Diagnostic{{Severity: SeverityWarning, Message: fmt.Sprintf("tool timeout: %s after %s", t.name, timeout), Tool: t.name}}, false
	default:
		return res, []Diagnostic{{Severity: SeverityWarning, Message: fmt.Sprintf("%s failed: %v", t.name, err), Tool: t.name}}, false
	}
}

func (g *Gate) runTool(ctx context.Context, t tool, dir, file string) []Diagnostic {
	res, diags, ok := g.exec(ctx, t, t.command(file, dir))
	if !ok {
		return diags
	}

	found, err := t.parse(res)
	if err != nil {
		return []Diagnostic{{Severity: SeverityWarning, Message: fmt.Sprintf("%s: %v", t.name, err), Tool: t.name}}
	}
	if len(found) == 0 && res.ExitCode != 0 && t.unformatted {
		return []Diagnostic{{Severity: SeverityWarning, Message: "source is not formatted according to " + t.name, Tool: t.name}}
	}
	if t.soften != nil {
		for i := range found {
			if found[i].Severity == SeverityError && t.soften.MatchString(found[i].Message) {
				found[i].Severity = SeverityWarning
			}
		}
	}
	return found
}

func (g *Gate) scanSecrets(source string) []Diagnostic {
	if g.secrets == nil || !g.cfg.SecurityScan {
		return nil
	}
	diags, err := g.secrets.Scan(source)
	if err != nil {
		return []Diagnostic{{Severity: SeverityWarning, Message: err.Error(), Tool: "gitleaks"}}
	}
	return diags
}

func hasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
