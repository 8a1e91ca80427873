package workflows

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
)

// Dial connects to the Temporal frontend.
func Dial(cfg config.TemporalConfig, logger *logging.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Host,
		Namespace: cfg.Namespace,
		Logger:    NewLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	return c, nil
}

// NewWorker registers ProjectWorkflow and the activities on the task queue.
func NewWorker(c client.Client, cfg config.TemporalConfig, acts *Activities) worker.Worker {
	w := worker.New(c, cfg.TaskQueue, worker.Options{})
	w.RegisterWorkflow(ProjectWorkflow)
	w.RegisterActivity(acts)
	return w
}

// Submit starts ProjectWorkflow and waits for its result.
func Submit(ctx context.Context, c client.Client, cfg config.TemporalConfig, input ProjectWorkflowInput) (*ProjectWorkflowResult, error) {
	run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "airo-project-" + input.ProjectID,
		TaskQueue: cfg.TaskQueue,
	}, ProjectWorkflow, input)
	if err != nil {
		projectSubmissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "rejected")))
		return nil, fmt.Errorf("starting project workflow: %w", err)
	}

	var out ProjectWorkflowResult
	if err := run.Get(ctx, &out); err != nil {
		projectSubmissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "failed")))
		return nil, fmt.Errorf("project workflow %s: %w", run.GetID(), err)
	}
	projectSubmissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "completed")))
	return &out, nil
}

// temporalLogger adapts logging.Logger to the Temporal SDK logger.
type temporalLogger struct {
	logger *logging.Logger
}

// NewLogger returns a Temporal logger writing through logger.
func NewLogger(logger *logging.Logger) tlog.Logger {
	if logger == nil {
		logger = logging.Nop()
	}
	return &temporalLogger{logger: logger.Named("temporal")}
}

func (l *temporalLogger) Debug(msg string, keyvals ...interface{}) {
	l.logger.Debug(context.Background(), msg, fields(keyvals)...)
}

func (l *temporalLogger) Info(msg string, keyvals ...interface{}) {
	l.logger.Info(context.Background(), msg, fields(keyvals)...)
}

func (l *temporalLogger) Warn(msg string, keyvals ...interface{}) {
	l.logger.Warn(context.Background(), msg, fields(keyvals)...)
}

func (l *temporalLogger) Error(msg string, keyvals ...interface{}) {
	l.logger.Error(context.Background(), msg, fields(keyvals)...)
}

func (l *temporalLogger) With(keyvals ...interface{}) tlog.Logger {
	return &temporalLogger{logger: l.logger.With(fields(keyvals)...)}
}

// fields turns alternating key/value pairs into zap fields. A trailing key
// without a value is kept under "extra".
func fields(keyvals []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(keyvals)/2+1)
	for i := 0; i < len(keyvals); i += 2 {
		if i+1 == len(keyvals) {
			out = append(out, zap.Any("extra", keyvals[i]))
			break
		}
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		out = append(out, zap.Any(key, keyvals[i+1]))
	}
	return out
}
