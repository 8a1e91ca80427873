package quality

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/airo/internal/config"
)

// fakeRunner answers commands by binary name; unknown binaries are missing.
type fakeRunner struct {
	mu    sync.Mutex
	tools map[string]func(Command) (CommandResult, error)
	calls []Command
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{tools: map[string]func(Command) (CommandResult, error){}}
}

func (r *fakeRunner) on(bin string, res CommandResult, err error) *fakeRunner {
	r.tools[bin] = func(Command) (CommandResult, error) { return res, err }
	return r
}

func (r *fakeRunner) Run(_ context.Context, cmd Command) (CommandResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, cmd)
	fn, ok := r.tools[cmd.Name]
	r.mu.Unlock()
	if !ok {
		return CommandResult{}, ErrToolNotFound
	}
	return fn(cmd)
}

func (r *fakeRunner) called(bin string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.Name == bin {
			return true
		}
	}
	return false
}

type stubSecrets []Diagnostic

func (s stubSecrets) Scan(string) ([]Diagnostic, error) { return s, nil }

func allOn() config.QualityConfig {
	return config.QualityConfig{Linting: true, TypeChecking: true, SecurityScan: true, Formatting: true, ToolTimeout: config.Duration(time.Second)}
}

func newGate(cfg config.QualityConfig, r *fakeRunner, secrets ...Diagnostic) *Gate {
	return New(cfg, WithRunner(r), WithSecretScanner(stubSecrets(secrets)))
}

const cleanGo = "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n"

func TestGate_CleanGo(t *testing.T) {
	r := newFakeRunner().on("go", CommandResult{}, nil)
	rep := newGate(allOn(), r).Check(context.Background(), cleanGo, "go")

	assert.True(t, rep.Passed)
	assert.Empty(t, rep.Diagnostics)
	assert.Equal(t, 1.0, rep.Score)
	assert.True(t, r.called("go"))
}

func TestGate_GoSyntaxErrorShortCircuits(t *testing.T) {
	r := newFakeRunner().on("go", CommandResult{}, nil)
	rep := newGate(allOn(), r).Check(context.Background(), "package main\n\nfunc main( {\n", "go")

	assert.False(t, rep.Passed)
	require.NotEmpty(t, rep.Diagnostics)
	assert.Equal(t, SeverityError, rep.Diagnostics[0].Severity)
	assert.Equal(t, "go/parser", rep.Diagnostics[0].Tool)
	assert.Contains(t, rep.Skipped, string(StepLinting))
	assert.False(t, r.called("go"), "linters must not run after a syntax failure")
}

func TestGate_EmptySource(t *testing.T) {
	rep := newGate(allOn(), newFakeRunner()).Check(context.Background(), "  \n", "python")
	assert.False(t, rep.Passed)
	assert.Equal(t, 1, rep.Count(SeverityError))
}

func TestGate_MissingToolsAreWarnings(t *testing.T) {
	r := newFakeRunner().on("python3", CommandResult{}, nil)
	rep := newGate(allOn(), r).Check(context.Background(), "print('hi')\n", "python")

	assert.True(t, rep.Passed)
	var msgs []string
	for _, d := range rep.Diagnostics {
		assert.Equal(t, SeverityWarning, d.Severity)
		msgs = append(msgs, d.Message)
	}
	assert.ElementsMatch(t, []string{"tool not found: ruff", "tool not found: mypy", "tool not found: black"}, msgs)
	assert.Equal(t, 0.85, rep.Score)
}

func TestGate_ToolTimeoutIsWarning(t *testing.T) {
	r := newFakeRunner().
		on("python3", CommandResult{}, nil).
		on("ruff", CommandResult{}, ErrToolTimeout)
	cfg := allOn()
	cfg.TypeChecking, cfg.Formatting = false, false

	rep := newGate(cfg, r).Check(context.Background(), "x = 1\n", "python")
	assert.True(t, rep.Passed)
	require.Len(t, rep.Diagnostics, 1)
	assert.Contains(t, rep.Diagnostics[0].Message, "tool timeout: ruff")
}

func TestGate_PythonSyntaxError(t *testing.T) {
	r := newFakeRunner().on("python3", CommandResult{Stdout: "3:5:invalid syntax\n", ExitCode: 1}, nil)
	rep := newGate(allOn(), r).Check(context.Background(), "def f(:\n", "python")

	assert.False(t, rep.Passed)
	require.Len(t, rep.Diagnostics, 1)
	d := rep.Diagnostics[0]
	assert.Equal(t, "syntax error: invalid syntax", d.Message)
	assert.Equal(t, &Location{Line: 3, Column: 5}, d.Location)
	assert.False(t, r.called("ruff"))
}

func TestGate_RuffAndBandit(t *testing.T) {
	r := newFakeRunner().
		on("python3", CommandResult{}, nil).
		on("ruff", CommandResult{ExitCode: 1, Stdout: `[
			{"code":"F821","message":"Undefined name ` + "`foo`" + `","location":{"row":2,"column":1}},
			{"code":"E501","message":"Line too long","location":{"row":1,"column":89}}
		]`}, nil).
		on("mypy", CommandResult{}, nil).
		on("black", CommandResult{}, nil).
		on("bandit", CommandResult{ExitCode: 1, Stdout: `{"results":[
			{"issue_severity":"HIGH","issue_text":"Use of exec","line_number":4,"test_id":"B102"},
			{"issue_severity":"MEDIUM","issue_text":"Possible SQL injection","line_number":5,"test_id":"B608"},
			{"issue_severity":"LOW","issue_text":"assert used","line_number":6,"test_id":"B101"}
		]}`}, nil)

	rep := newGate(allOn(), r).Check(context.Background(), "x = 1\n", "python")

	assert.False(t, rep.Passed)
	assert.Equal(t, 2, rep.Count(SeverityError))
	assert.Equal(t, 2, rep.Count(SeverityWarning))
	assert.Equal(t, 1, rep.Count(SeverityInfo))
	assert.Equal(t, 0.5, rep.Score)
	assert.Equal(t, SeverityError, rep.Diagnostics[0].Severity, "errors sort first")
}

func TestGate_BanditMissingIsSilent(t *testing.T) {
	r := newFakeRunner().on("python3", CommandResult{}, nil)
	cfg := allOn()
	cfg.Linting, cfg.TypeChecking, cfg.Formatting = false, false, false

	rep := newGate(cfg, r).Check(context.Background(), "x = 1\n", "python")
	assert.Empty(t, rep.Diagnostics)
	assert.True(t, r.called("bandit"))
}

func TestGate_DisabledStepsAreSkipped(t *testing.T) {
	r := newFakeRunner().on("python3", CommandResult{}, nil)
	cfg := config.QualityConfig{ToolTimeout: config.Duration(time.Second)}

	rep := newGate(cfg, r, Diagnostic{Severity: SeverityError, Message: "hardcoded secret", Tool: "gitleaks"}).
		Check(context.Background(), "x = 1\n", "python")

	assert.True(t, rep.Passed, "secret scan is part of the disabled security step")
	assert.ElementsMatch(t, []string{"linting", "type_checking", "security_scan", "formatting"}, rep.Skipped)
	assert.False(t, r.called("ruff"))
}

func TestGate_SecretsBlock(t *testing.T) {
	r := newFakeRunner().on("go", CommandResult{}, nil)
	leak := Diagnostic{Severity: SeverityError, Message: "hardcoded secret: AWS key", Tool: "gitleaks", Location: &Location{Line: 5}}

	rep := newGate(allOn(), r, leak).Check(context.Background(), cleanGo, "go")
	assert.False(t, rep.Passed)
	assert.Equal(t, []Diagnostic{leak}, rep.Filter(SeverityError, 0))
}

func TestGate_UnformattedIsWarning(t *testing.T) {
	r := newFakeRunner().on("go", CommandResult{}, nil)
	rep := newGate(allOn(), r).Check(context.Background(), "package main\nfunc main() {  }\n", "go")

	assert.True(t, rep.Passed)
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, "gofmt", rep.Diagnostics[0].Tool)

	r = newFakeRunner().on("node", CommandResult{}, nil).on("eslint", CommandResult{Stdout: "[]"}, nil).
		on("prettier", CommandResult{ExitCode: 1, Stderr: "[warn] code.js"}, nil)
	rep = newGate(allOn(), r).Check(context.Background(), "console.log(1)\n", "javascript")
	require.Len(t, rep.Diagnostics, 1)
	assert.Equal(t, "source is not formatted according to prettier", rep.Diagnostics[0].Message)
}

func TestGate_TypeScriptSoftensMissingModules(t *testing.T) {
	r := newFakeRunner().
		on("eslint", CommandResult{Stdout: "[]"}, nil).
		on("prettier", CommandResult{}, nil).
		on("tsc", CommandResult{ExitCode: 2, Stdout: strings.Join([]string{
			"code.ts(1,21): error TS2307: Cannot find module 'express' or its corresponding type declarations.",
			"code.ts(4,7): error TS2322: Type 'string' is not assignable to type 'number'.",
		}, "\n")}, nil)

	rep := newGate(allOn(), r).Check(context.Background(), "const x: number = 'a'\n", "typescript")
	assert.False(t, rep.Passed)
	assert.Equal(t, 1, rep.Count(SeverityError))
	assert.Equal(t, 1, rep.Count(SeverityWarning))
	assert.Contains(t, rep.Skipped, string(StepSyntax))
}

func TestGate_UnknownLanguage(t *testing.T) {
	rep := newGate(allOn(), newFakeRunner()).Check(context.Background(), "IDENTIFICATION DIVISION.", "cobol")
	assert.True(t, rep.Passed)
	assert.Contains(t, rep.Skipped, string(StepSyntax))
}

func TestGate_ParserErrorIsWarning(t *testing.T) {
	r := newFakeRunner().
		on("node", CommandResult{}, nil).
		on("eslint", CommandResult{ExitCode: 2, Stdout: "Oops! Something went wrong"}, nil).
		on("prettier", CommandResult{}, nil)

	rep := newGate(allOn(), r).Check(context.Background(), "let a = 1\n", "javascript")
	assert.True(t, rep.Passed)
	require.Len(t, rep.Diagnostics, 1)
	assert.Contains(t, rep.Diagnostics[0].Message, "eslint: unexpected output")
}

func TestScore(t *testing.T) {
	tests := []struct {
		errors, warnings int
		want             float64
	}{
		{0, 0, 1},
		{1, 0, 0.8},
		{0, 3, 0.85},
		{2, 2, 0.5},
		{5, 0, 0},
		{10, 10, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Score(tt.errors, tt.warnings), "%d errors %d warnings", tt.errors, tt.warnings)
	}
}

func TestReport_Filter(t *testing.T) {
	rep := NewReport([]Diagnostic{
		{Severity: SeverityWarning, Message: "w1"},
		{Severity: SeverityInfo, Message: "i1"},
		{Severity: SeverityError, Message: "e1"},
		{Severity: SeverityWarning, Message: "w2"},
		{Severity: SeverityWarning, Message: "w3"},
	}, nil)

	assert.False(t, rep.Passed)
	assert.Equal(t, "e1", rep.Diagnostics[0].Message)
	assert.Len(t, rep.Filter(SeverityWarning, 2), 2)
	assert.Len(t, rep.Filter(SeverityWarning, 0), 3)
}

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{Severity: SeverityError, Message: "undefined: x", Tool: "go vet", Location: &Location{Line: 4}}
	assert.Equal(t, "[error] line 4: undefined: x (go vet)", d.String())

	d = Diagnostic{Severity: SeverityWarning, Message: "long line", Tool: "ruff", Code: "E501"}
	assert.Equal(t, "[warning] long line (ruff E501)", d.String())
}
