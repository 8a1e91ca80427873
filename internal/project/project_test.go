package project

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/airo/internal/quality"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{in: "python", want: Python},
		{in: " PY ", want: Python},
		{in: "golang", want: Go},
		{in: "c++", want: Cpp},
		{in: "TypeScript", want: TypeScript},
		{in: "cobol", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLanguage(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedLanguage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguage_Info(t *testing.T) {
	assert.Equal(t, "requirements.txt", Python.Info().PackageFile)
	assert.Equal(t, "Cargo.toml", Rust.Info().PackageFile)
	assert.Equal(t, ".java", Java.Extension())
	assert.Equal(t, ".txt", Language("cobol").Extension())
	assert.False(t, Language("cobol").Supported())
	for _, l := range Languages() {
		assert.True(t, l.Supported(), l)
	}
}

func TestRequest_Normalize(t *testing.T) {
	req := Request{Description: "  Build a REST API for todo items  ", Language: Python}.Normalize()
	assert.Equal(t, "Build a REST API for todo items", req.Description)
	assert.Equal(t, "build-a-rest-api", req.Name)

	req = Request{Name: " shop ", Description: "x"}.Normalize()
	assert.Equal(t, "shop", req.Name)
}

func TestRequest_Validate(t *testing.T) {
	assert.NoError(t, Request{Description: "x", Language: Go}.Validate())

	err := Request{Description: "   ", Language: Go}.Validate()
	assert.ErrorIs(t, err, ErrInvalidRequest)

	err = Request{Description: "x", Language: "cobol"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "weather-dashboard-with-charts", Slug("Weather dashboard with charts and alerts"))
	assert.Equal(t, "c-compiler", Slug("C++ compiler"))
	assert.Equal(t, "project", Slug("  !!! "))
	assert.Equal(t, "project", Slug(""))
}

func TestArchitecture_WithFallback(t *testing.T) {
	doc := ArchitectureDocument{}.WithFallback("a calculator")
	require.Len(t, doc.Components, 1)
	assert.Equal(t, MainComponent, doc.Components[0].Name)
	assert.Equal(t, "a calculator", doc.Components[0].Responsibility)

	kept := ArchitectureDocument{Components: []ComponentSpec{{Name: "api"}}}.WithFallback("x")
	assert.Equal(t, "api", kept.Components[0].Name)
}

func TestArchitecture_Validate(t *testing.T) {
	doc := &ArchitectureDocument{Components: []ComponentSpec{{Name: "api"}, {Name: " "}}}
	assert.ErrorContains(t, doc.Validate(), "component 1 has no name")
	assert.NoError(t, (&ArchitectureDocument{}).Validate())
}

func TestArchitecture_Issues(t *testing.T) {
	doc := &ArchitectureDocument{Components: []ComponentSpec{
		{Name: "api", Dependencies: []string{"store", "cache"}},
		{Name: "store", Dependencies: []string{"store"}},
		{Name: "api"},
	}}

	var got []string
	for _, i := range doc.Issues() {
		got = append(got, i.String())
	}
	assert.Equal(t, []string{
		"api: duplicate component name",
		`api: unknown dependency "cache"`,
		"store: depends on itself",
	}, got)

	c, ok := doc.Component("store")
	assert.True(t, ok)
	assert.Equal(t, []string{"store"}, c.Dependencies)
	_, ok = doc.Component("ui")
	assert.False(t, ok)
}

func TestArchitecture_JSON(t *testing.T) {
	raw := `{"architecture_type":"layered","description":"d","components":[{"name":"api","responsibility":"serve","dependencies":["db"]},{"name":"db","responsibility":"store"}],"tech_stack":{"backend":["fastapi"]}}`
	var doc ArchitectureDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "layered", doc.ArchitectureType)
	assert.Equal(t, []string{"fastapi"}, doc.TechStack.Backend)
	assert.Empty(t, doc.Issues())
}

func TestArtifact_FinalReport(t *testing.T) {
	_, ok := Artifact{}.FinalReport()
	assert.False(t, ok)

	art := Artifact{
		State:   StateAccepted,
		History: []quality.Report{{Score: 0.4}, {Passed: true, Score: 0.9}},
	}
	r, ok := art.FinalReport()
	require.True(t, ok)
	assert.Equal(t, 0.9, r.Score)
	assert.True(t, art.Accepted())
}

func TestResult(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	res := &Result{
		Artifacts: []Artifact{
			{Component: "api", State: StateAccepted},
			{Component: "db", State: StateExhausted},
		},
		StartedAt: start,
	}
	assert.Zero(t, res.Duration())
	res.CompletedAt = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, res.Duration())

	assert.Equal(t, []string{"db"}, res.NeedsAttention())
	assert.True(t, res.Partial())

	res.AddFailure(Failure{Kind: FailureExhausted, Component: "db"})
	assert.False(t, res.Fatal)

	res.Success = true
	res.AddFailure(Failure{Kind: FailureArchitecture})
	assert.True(t, res.Fatal)
	assert.False(t, res.Success)
	assert.False(t, res.Partial())
	assert.Len(t, res.Failures, 2)

	a, ok := res.Artifact("api")
	assert.True(t, ok)
	assert.Equal(t, "api", a.Component)
}

func TestAllSteps(t *testing.T) {
	assert.Equal(t, []Step{StepArchitect, StepComponents, StepReview, StepTests, StepAggregate, StepPersist}, AllSteps())
}
