package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type projectCtxKey struct{}
type componentCtxKey struct{}
type runCtxKey struct{}
type loggerCtxKey struct{}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id := ProjectIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("project.id", id))
	}
	if name := ComponentFromContext(ctx); name != "" {
		fields = append(fields, zap.String("component", name))
	}
	if id := RunIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("run.id", id))
	}
	return fields
}

// WithProjectID tags the context with the project being generated.
func WithProjectID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, projectCtxKey{}, id)
}

// ProjectIDFromContext returns the project ID or "".
func ProjectIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(projectCtxKey{}).(string)
	return id
}

// WithComponent tags the context with the component being worked on.
func WithComponent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, componentCtxKey{}, name)
}

// ComponentFromContext returns the component name or "".
func ComponentFromContext(ctx context.Context) string {
	name, _ := ctx.Value(componentCtxKey{}).(string)
	return name
}

// WithRunID tags the context with a workflow or job run ID.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runCtxKey{}, id)
}

// RunIDFromContext returns the run ID or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runCtxKey{}).(string)
	return id
}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return Nop()
}
