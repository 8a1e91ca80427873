package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/logging"
)

const instrumentationName = "github.com/fyrsmithlabs/airo/internal/llm"

type instruments struct {
	requests metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

func newInstruments(meter metric.Meter) instruments {
	var (
		in  instruments
		err error
	)
	if in.requests, err = meter.Int64Counter("airo.llm.requests",
		metric.WithDescription("Model calls by backend, model and outcome"),
		metric.WithUnit("{call}"),
	); err != nil {
		in.requests, _ = noop.Meter{}.Int64Counter("airo.llm.requests")
	}
	if in.errors, err = meter.Int64Counter("airo.llm.errors",
		metric.WithDescription("Failed model calls by error kind"),
		metric.WithUnit("{error}"),
	); err != nil {
		in.errors, _ = noop.Meter{}.Int64Counter("airo.llm.errors")
	}
	if in.duration, err = meter.Float64Histogram("airo.llm.duration",
		metric.WithDescription("Model call latency"),
		metric.WithUnit("s"),
	); err != nil {
		in.duration, _ = noop.Meter{}.Float64Histogram("airo.llm.duration")
	}
	return in
}

// Instrument records a span, metrics and a debug log line per call.
func Instrument(tracer trace.Tracer, meter metric.Meter, logger *logging.Logger) Middleware {
	if logger == nil {
		logger = logging.Nop()
	}
	in := newInstruments(meter)
	return func(next Client) Client {
		return Func(next.Name(), func(ctx context.Context, req Request, opts Options) (*Completion, error) {
			attrs := []attribute.KeyValue{
				attribute.String("llm.backend", next.Name()),
				attribute.String("llm.model", opts.Model),
				attribute.String("llm.format", string(opts.Format)),
			}
			ctx, span := tracer.Start(ctx, "llm.complete", trace.WithAttributes(attrs...))
			defer span.End()

			logger.Debug(ctx, "model call",
				zap.String("backend", next.Name()),
				zap.String("model", opts.Model),
				zap.Int("prompt_chars", len(req.System)+len(req.Prompt)),
				zap.Float64("temperature", opts.Temperature),
			)

			start := time.Now()
			resp, err := next.Complete(ctx, req, opts)
			elapsed := time.Since(start)

			outcome := "ok"
			if err != nil {
				outcome = Kind(err)
				span.RecordError(err)
				span.SetStatus(codes.Error, outcome)
				in.errors.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("kind", outcome))...))
				logger.Warn(ctx, "model call failed",
					zap.String("model", opts.Model),
					zap.String("kind", outcome),
					zap.Duration("elapsed", elapsed),
					zap.Error(err),
				)
			} else {
				span.SetAttributes(attribute.Int("llm.response_chars", len(resp.Text)))
				logger.Trace(ctx, "model response", zap.String("model", opts.Model), zap.Int("chars", len(resp.Text)))
			}
			in.requests.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("outcome", outcome))...))
			in.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
			return resp, err
		})
	}
}
