// Package llm is the model client used by every agent.
//
// A Client sends one system+prompt pair to a backend and returns the text.
// Failures are classified into three sentinels (ErrModelUnavailable,
// ErrModelTimeout, ErrMalformedResponse) so callers never inspect transport
// errors. Decode adds a strict JSON boundary on top of Complete.
//
// Cross-cutting behaviour (rate limiting, transport retry, timeouts,
// instrumentation) is layered with Wrap and Middleware.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrModelUnavailable means the backend could not be reached or refused
	// the request.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrModelTimeout means no response arrived before the deadline.
	ErrModelTimeout = errors.New("model timeout")

	// ErrMalformedResponse means structured output did not match the
	// expected shape.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrInvalidOptions is returned before any call for bad Options.
	ErrInvalidOptions = errors.New("invalid model options")
)

// Format selects the response format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Request is one model invocation.
type Request struct {
	System string
	Prompt string
}

// Options tune a single call.
type Options struct {
	Model       string
	Temperature float64
	// MaxTokens of 0 leaves the backend default.
	MaxTokens int
	Format    Format
	// Schema describes the expected JSON shape for FormatJSON. It is
	// embedded in the prompt by the caller; backends only see the format.
	Schema string
	Stream bool
	// OnChunk receives streamed text when Stream is set.
	OnChunk func(chunk string)
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.Temperature < 0 || o.Temperature > 1 {
		return fmt.Errorf("%w: temperature %.2f outside [0,1]", ErrInvalidOptions, o.Temperature)
	}
	if o.MaxTokens < 0 {
		return fmt.Errorf("%w: max_tokens must be >= 0", ErrInvalidOptions)
	}
	switch o.Format {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidOptions, o.Format)
	}
	return nil
}

// JSON reports whether structured output was requested.
func (o Options) JSON() bool { return o.Format == FormatJSON }

// Completion is a model response.
type Completion struct {
	Text     string
	Model    string
	Backend  string
	Duration time.Duration
}

// Client completes prompts. Implementations must return errors that match
// one of the package sentinels, or the context error on cancellation.
type Client interface {
	Complete(ctx context.Context, req Request, opts Options) (*Completion, error)
	Name() string
}

// Kind names the error class for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrModelTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrInvalidOptions):
		return "invalid_options"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "unavailable"
	}
}
