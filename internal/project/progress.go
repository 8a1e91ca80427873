package project

// Step names one pipeline step.
type Step string

const (
	StepArchitect  Step = "architect"
	StepComponents Step = "components"
	StepReview     Step = "review"
	StepTests      Step = "tests"
	StepAggregate  Step = "aggregate"
	StepPersist    Step = "persist"
)

// AllSteps returns the steps in execution order.
func AllSteps() []Step {
	return []Step{StepArchitect, StepComponents, StepReview, StepTests, StepAggregate, StepPersist}
}

// StepStatus is the state of a step when a progress event is emitted.
type StepStatus string

const (
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
	StatusFailed     StepStatus = "failed"
	StatusSkipped    StepStatus = "skipped"
)

// StepProgress is one progress event of a run. Final marks the last event.
type StepProgress struct {
	ProjectID  string     `json:"project_id"`
	Step       Step       `json:"step"`
	Status     StepStatus `json:"status"`
	Component  string     `json:"component,omitempty"`
	Message    string     `json:"message"`
	Percentage int        `json:"percentage"`
	Final      bool       `json:"final,omitempty"`
}
