package llm

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
)

// Deps are optional collaborators for New.
type Deps struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger *logging.Logger
	// Fake answers calls when the backend is "fake". A nil Fake replies
	// with empty text.
	Fake Client
}

// New builds the configured backend wrapped in the standard middleware
// chain: instrumentation, rate limiting, transport retry, per-call timeout.
// defaultModel is used by backends that bind a model at construction.
func New(ctx context.Context, cfg config.ModelConfig, defaultModel string, deps Deps) (Client, error) {
	var (
		backend Client
		err     error
	)
	switch cfg.Backend {
	case config.BackendOllama:
		backend, err = NewOllama(cfg.Host)
	case config.BackendOpenAI:
		backend, err = NewOpenAI(cfg.Host, cfg.APIKey.Value(), defaultModel)
	case config.BackendGemini:
		backend, err = NewGemini(ctx, cfg.APIKey.Value())
	case config.BackendFake:
		backend = deps.Fake
		if backend == nil {
			backend = NewFake()
		}
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, errors.New("no model backend")
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	meter := deps.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}

	return Wrap(backend,
		Instrument(tracer, meter, deps.Logger),
		RateLimit(cfg.RateLimit, cfg.Burst),
		Retry(cfg.TransportRetries, cfg.RetryDelay.Duration()),
		Timeout(cfg.Timeout.Duration()),
	), nil
}
