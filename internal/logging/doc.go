// Package logging provides structured logging for airo.
//
// It wraps Zap with context-aware methods that add correlation fields
// (trace_id/span_id from OpenTelemetry, plus project, component and run IDs
// placed on the context by the pipeline), a custom Trace level, redaction of
// credentials and level-aware sampling where errors are never dropped.
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithProjectID(ctx, result.ID)
//	ctx = logging.WithComponent(ctx, "auth_service")
//	logger.Info(ctx, "component accepted", zap.Int("iterations", 2))
//
// Logs go to stderr by default so stdout stays free for command output and
// for the MCP stdio transport.
//
// Tests use NewTestLogger, which records entries through zaptest/observer.
package logging
