package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/llm"
	"github.com/fyrsmithlabs/airo/internal/project"
	"github.com/fyrsmithlabs/airo/internal/quality"
)

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantCode string
		wantLang string
	}{
		{"tagged", "Sure:\n```Python\nprint(1)\n```\nDone.", "print(1)", "python"},
		{"first of several", "```go\na\n```\n```go\nb\n```", "a", "go"},
		{"tagged wins over earlier bare", "```\nbare\n```\n```js\ntagged\n```", "tagged", "js"},
		{"bare", "```\nx = 1\n```", "x = 1", ""},
		{"c++ tag", "```c++\nint x;\n```", "int x;", "c++"},
		{"raw", "  def f(): pass \n", "def f(): pass", ""},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, lang := ExtractCode(tt.text)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantLang, lang)
		})
	}
}

func TestSourceFilename(t *testing.T) {
	tests := []struct {
		comp project.ComponentSpec
		lang project.Language
		want string
	}{
		{project.ComponentSpec{Name: "auth_service"}, project.Python, "auth_service.py"},
		{project.ComponentSpec{Name: "UserAuthenticationServiceHandler"}, project.Go, "user_authentication_service.go"},
		{project.ComponentSpec{Responsibility: "Handles user login flows"}, project.Python, "handles_user_login.py"},
		{project.ComponentSpec{Name: "!!!"}, project.Rust, "generated_code.rs"},
		{project.ComponentSpec{Name: "api-gateway"}, project.TypeScript, "api_gateway.ts"},
		{project.ComponentSpec{Name: "user_service"}, project.Java, "UserService.java"},
		{project.ComponentSpec{Name: "2fa"}, project.Java, "GeneratedCode2fa.java"},
		{project.ComponentSpec{Name: "cli"}, project.Language("cobol"), "cli.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SourceFilename(tt.comp, tt.lang))
	}
}

func TestTestFilename(t *testing.T) {
	tests := []struct {
		source string
		lang   project.Language
		want   string
	}{
		{"auth.py", project.Python, "test_auth.py"},
		{"auth.js", project.JavaScript, "auth.test.js"},
		{"auth.ts", project.TypeScript, "auth.test.ts"},
		{"auth.go", project.Go, "auth_test.go"},
		{"auth.rs", project.Rust, "tests/auth_test.rs"},
		{"UserService.java", project.Java, "UserServiceTest.java"},
		{"engine.cpp", project.Cpp, "test_engine.cpp"},
		{"auth_2.py", project.Python, "test_auth_2.py"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TestFilename(tt.source, tt.lang))
	}
}

func TestDryRunHandler(t *testing.T) {
	ctx := context.Background()
	client := llm.NewFakeHandler(DryRunHandler())
	req := project.Request{Name: "demo", Description: "demo app", Language: project.Go}

	doc, err := NewArchitect(client, testRole).DesignArchitecture(ctx, req)
	require.NoError(t, err)
	require.Len(t, doc.Components, 2)
	assert.Empty(t, doc.Issues())

	coder := NewCoder(client, &scriptedGate{reports: []quality.Report{passing()}}, testRole, 3)
	art, ok, err := coder.GenerateWithValidation(ctx, doc.Components[0], &doc, project.Go)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, art.Source, "package main")
	assert.Contains(t, art.Source, `return "core"`)

	review := NewReviewer(client, testRole).Review(ctx, art)
	assert.False(t, review.Failed)
	assert.Equal(t, 4, review.Score)

	tests := NewTestGenerator(client, testRole).GenerateTests(ctx, art)
	assert.False(t, tests.Failed)
	assert.Contains(t, tests.Source, "func TestCore(t *testing.T)")

	_, err = client.Complete(ctx, llm.Request{System: "other"}, llm.Options{})
	assert.ErrorIs(t, err, llm.ErrModelUnavailable)
}

func TestDryRunSourcePassesGoGate(t *testing.T) {
	gate := quality.New(config.QualityConfig{})
	report := gate.Check(context.Background(), dryRunSource(project.Go, "user_store"), "go")
	assert.True(t, report.Passed, "%v", report.Diagnostics)
}
