package project

import "github.com/fyrsmithlabs/airo/internal/quality"

// ArtifactState is the terminal state of a coder loop.
type ArtifactState string

const (
	StateAccepted  ArtifactState = "accepted"
	StateExhausted ArtifactState = "exhausted"
)

// Artifact is the generated source for one component.
type Artifact struct {
	Component  string           `json:"component"`
	Source     string           `json:"source"`
	Filename   string           `json:"filename"`
	Language   Language         `json:"language"`
	Iterations int              `json:"iterations"`
	History    []quality.Report `json:"history"`
	State      ArtifactState    `json:"state"`
}

// Accepted reports whether the last draft passed the gate.
func (a Artifact) Accepted() bool { return a.State == StateAccepted }

// FinalReport returns the last gate report, if any.
func (a Artifact) FinalReport() (quality.Report, bool) {
	if len(a.History) == 0 {
		return quality.Report{}, false
	}
	return a.History[len(a.History)-1], true
}

// ReviewCategory groups review findings.
type ReviewCategory string

const (
	CategorySecurity        ReviewCategory = "security"
	CategoryPerformance     ReviewCategory = "performance"
	CategoryMaintainability ReviewCategory = "maintainability"
)

// Finding is one review remark.
type Finding struct {
	Severity   string         `json:"severity"`
	Category   ReviewCategory `json:"category"`
	Message    string         `json:"message"`
	Location   string         `json:"location,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// ReviewResult is the Reviewer's assessment of one artifact.
type ReviewResult struct {
	Component     string    `json:"component"`
	Filename      string    `json:"filename"`
	Score         int       `json:"score"`
	Summary       string    `json:"summary"`
	Strengths     []string  `json:"strengths,omitempty"`
	Findings      []Finding `json:"findings,omitempty"`
	Suggestions   []string  `json:"suggestions,omitempty"`
	Failed        bool      `json:"failed,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// TestArtifact holds generated tests for one component.
type TestArtifact struct {
	Component     string `json:"component"`
	Filename      string `json:"filename"`
	Source        string `json:"source"`
	Framework     string `json:"framework"`
	Failed        bool   `json:"failed,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}
