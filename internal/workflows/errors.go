package workflows

import (
	"fmt"
)

// ErrorSeverity ranks workflow errors.
type ErrorSeverity string

const (
	// ErrorSeverityCritical fails the workflow.
	ErrorSeverityCritical ErrorSeverity = "critical"
	// ErrorSeverityHigh is recorded in the result and the workflow continues.
	ErrorSeverityHigh ErrorSeverity = "high"
	// ErrorSeverityLow is only logged.
	ErrorSeverityLow ErrorSeverity = "low"
)

// WorkflowError is a structured error raised inside a workflow.
type WorkflowError struct {
	Operation string        // e.g. "design architecture", "generate component"
	Severity  ErrorSeverity // how the workflow reacts
	Err       error
	Context   string // component or project name
}

// Error implements the error interface
func (e *WorkflowError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s failed: %s (%s)", e.Operation, e.Err.Error(), e.Context)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Err.Error())
}

// Unwrap allows errors.Is and errors.As to work with WorkflowError
func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// NewWorkflowError creates a new workflow error with context
func NewWorkflowError(operation string, severity ErrorSeverity, err error, context string) *WorkflowError {
	return &WorkflowError{
		Operation: operation,
		Severity:  severity,
		Err:       err,
		Context:   context,
	}
}

// FormatErrorForResult formats an error for ProjectWorkflowResult.Errors.
func FormatErrorForResult(operation string, err error) string {
	return fmt.Sprintf("%s: %v", operation, err)
}

// Error handling in ProjectWorkflow:
//
// CRITICAL (record and return):
//   - the architecture could not be designed; nothing else can run
//
// HIGH (record and continue):
//   - a component, review, test or persist activity failed; the rest of the
//     project is still produced and the component is marked exhausted
//
// LOW (log only):
//   - memory could not store an accepted component
