// Package agents implements the four model-backed roles of the pipeline:
// the Architect designs, the Coder drafts and repairs each component against
// the Quality Gate, the Test Generator writes tests and the Reviewer scores
// the final source.
//
// Agents own their prompts and retry policy. The model client never retries
// malformed output; the Architect retries exactly once and the Coder loops
// up to the configured iteration limit.
package agents

import (
	"errors"

	"go.opentelemetry.io/otel/metric"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/llm"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/memory"
)

// Failure markers. Callers match them with errors.Is.
var (
	ErrArchitectureDesignFailed = errors.New("ArchitectureDesignFailed")
	ErrTestGenerationFailed     = errors.New("TestGenerationFailed")
	ErrReviewFailed             = errors.New("ReviewFailed")

	errEmptyDraft = errors.New("model returned no code")
)

type settings struct {
	logger    *logging.Logger
	meter     metric.Meter
	memory    memory.Store
	recall    int
	streaming bool
	onChunk   func(component, chunk string)
}

// Option configures an agent.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMeter sets the meter used for agent instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *settings) { s.meter = m }
}

// WithMemory makes the Coder include up to n related components from store.
func WithMemory(store memory.Store, n int) Option {
	return func(s *settings) {
		s.memory = store
		s.recall = n
	}
}

// WithStreaming streams model output for each component to fn.
func WithStreaming(fn func(component, chunk string)) Option {
	return func(s *settings) {
		s.streaming = fn != nil
		s.onChunk = fn
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: logging.Nop(), memory: memory.NopStore{}}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if s.memory == nil {
		s.memory = memory.NopStore{}
	}
	return s
}

// options turns a role's model settings into call options.
func options(role config.RoleConfig, format llm.Format) llm.Options {
	return llm.Options{
		Model:       role.Model,
		Temperature: role.Temperature,
		MaxTokens:   role.MaxTokens,
		Format:      format,
	}
}
