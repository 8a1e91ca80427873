package project

import "time"

// FailureKind classifies a recorded failure.
type FailureKind string

const (
	FailureArchitecture   FailureKind = "architecture_design_failed"
	FailureExhausted      FailureKind = "component_exhausted"
	FailureTestGeneration FailureKind = "test_generation_failed"
	FailureReview         FailureKind = "review_failed"
	FailurePersistence    FailureKind = "persistence_failed"
)

// Fatal reports whether the kind ends the run.
func (k FailureKind) Fatal() bool { return k == FailureArchitecture }

// Failure is one problem recorded during a run.
type Failure struct {
	Step      string      `json:"step"`
	Component string      `json:"component,omitempty"`
	Kind      FailureKind `json:"kind"`
	Message   string      `json:"message"`
}

// Result is the outcome of a pipeline run. Only the orchestrator writes it.
type Result struct {
	ID           string                `json:"id"`
	Request      Request               `json:"request"`
	Architecture *ArchitectureDocument `json:"architecture,omitempty"`
	Artifacts    []Artifact            `json:"artifacts"`
	Reviews      []ReviewResult        `json:"reviews,omitempty"`
	Tests        []TestArtifact        `json:"tests,omitempty"`
	Success      bool                  `json:"success"`
	Fatal        bool                  `json:"fatal"`
	Failures     []Failure             `json:"failures,omitempty"`
	StartedAt    time.Time             `json:"started_at"`
	CompletedAt  time.Time             `json:"completed_at"`
	OutputDir    string                `json:"output_dir,omitempty"`
}

// NeedsAttention lists components whose artifact was not accepted.
func (r *Result) NeedsAttention() []string {
	var names []string
	for _, a := range r.Artifacts {
		if !a.Accepted() {
			names = append(names, a.Component)
		}
	}
	return names
}

// Partial reports a completed run with at least one exhausted component.
func (r *Result) Partial() bool {
	return !r.Fatal && !r.Success && len(r.Artifacts) > 0
}

// AddFailure records a failure and marks the result fatal for fatal kinds.
func (r *Result) AddFailure(f Failure) {
	r.Failures = append(r.Failures, f)
	if f.Kind.Fatal() {
		r.Fatal = true
		r.Success = false
	}
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Artifact finds the artifact for a component.
func (r *Result) Artifact(component string) (Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Component == component {
			return a, true
		}
	}
	return Artifact{}, false
}
