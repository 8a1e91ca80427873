package logging

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(NewDefaultConfig(), nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output = OutputConfig{}

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one output")
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Redaction.Patterns = []string{"("}
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.Fields = map[string]string{"service": ""}
	assert.Error(t, cfg.Validate())
}

func TestFromSettings(t *testing.T) {
	cfg, err := FromSettings(config.LoggingConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	cfg, err = FromSettings(config.LoggingConfig{Level: "info", Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)

	cfg, err = FromSettings(config.LoggingConfig{Level: "trace"})
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, cfg.Level)

	_, err = FromSettings(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestLogger_ContextFields(t *testing.T) {
	logger := NewTestLogger()

	ctx := WithProjectID(context.Background(), "proj-42")
	ctx = WithComponent(ctx, "auth_service")
	ctx = WithRunID(ctx, "run-7")
	logger.Info(ctx, "component accepted", zap.Int("iterations", 2))

	logger.AssertLogged(t, zapcore.InfoLevel, "component accepted")
	logger.AssertField(t, "component accepted", "project.id", "proj-42")
	logger.AssertField(t, "component accepted", "component", "auth_service")
	logger.AssertField(t, "component accepted", "run.id", "run-7")
	logger.AssertField(t, "component accepted", "iterations", int64(2))
}

func TestLogger_LevelsAndChildren(t *testing.T) {
	logger := NewTestLogger()
	ctx := context.Background()

	child := logger.Named("coder").With(zap.String("language", "go"))
	child.Trace(ctx, "raw response")
	child.Debug(ctx, "drafting")
	child.Warn(ctx, "tool missing")
	child.Error(ctx, "gate failed")

	entries := logger.All()
	require.Len(t, entries, 4)
	assert.Equal(t, TraceLevel, entries[0].Level)
	assert.Equal(t, "coder", entries[1].LoggerName)
	assert.Equal(t, "go", entries[2].ContextMap()["language"])
	logger.AssertNotLogged(t, zapcore.InfoLevel, "drafting")

	logger.Reset()
	assert.Empty(t, logger.All())
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	logger := NewTestLogger()
	ctx := WithLogger(context.Background(), logger.Logger)
	FromContext(ctx).Info(ctx, "via context")
	logger.AssertLogged(t, zapcore.InfoLevel, "via context")
}

func TestLevelFromString(t *testing.T) {
	l, err := LevelFromString("trace")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, l)

	l, err = LevelFromString("error")
	require.NoError(t, err)
	assert.Equal(t, zapcore.ErrorLevel, l)

	_, err = LevelFromString("nope")
	assert.Error(t, err)
}
