package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	degraded, reasons := tel.Degraded()
	assert.False(t, degraded)
	assert.Empty(t, reasons)
	assert.NotNil(t, tel.Tracer("airo"))
	assert.NotNil(t, tel.Meter("airo"))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Protocol = "carrier-pigeon"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled skips checks", func(c *Config) { c.Endpoint = "" }, false},
		{"enabled default", func(c *Config) { c.Enabled = true }, false},
		{"missing endpoint", func(c *Config) { c.Enabled = true; c.Endpoint = "" }, true},
		{"missing service", func(c *Config) { c.Enabled = true; c.ServiceName = "" }, true},
		{"insecure remote", func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317" }, true},
		{"secure remote", func(c *Config) {
			c.Enabled = true
			c.Endpoint = "otel.example.com:4317"
			c.Insecure = false
		}, false},
		{"insecure ipv6 loopback", func(c *Config) { c.Enabled = true; c.Endpoint = "[::1]:4317" }, false},
		{"sample rate too high", func(c *Config) { c.Enabled = true; c.SampleRate = 1.5 }, true},
		{"zero export interval", func(c *Config) { c.Enabled = true; c.ExportInterval = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.ObservabilityConfig{
		EnableTelemetry: true,
		Endpoint:        "http://127.0.0.1:4318",
		Protocol:        "http/protobuf",
		ServiceName:     "airo-worker",
		Insecure:        true,
		SampleRate:      0.25,
	}, "1.2.3")

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "http/protobuf", cfg.Protocol)
	assert.Equal(t, "airo-worker", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, 0.25, cfg.SampleRate)
	assert.Equal(t, 15*time.Second, cfg.ExportInterval.Duration())
	assert.NoError(t, cfg.Validate())
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "localhost:4318", stripScheme("http://localhost:4318"))
	assert.Equal(t, "otel:443", stripScheme("https://otel:443"))
	assert.Equal(t, "localhost:4317", stripScheme("localhost:4317"))
}

func TestTestTelemetry(t *testing.T) {
	tel := NewTestTelemetry()
	ctx := context.Background()

	_, span := tel.Tracer("airo/test").Start(ctx, "coder.iteration")
	span.SetAttributes(attribute.String("component", "auth"), attribute.Int("iteration", 2))
	span.End()

	tel.AssertSpanExists(t, "coder.iteration")
	tel.AssertSpanAttribute(t, "coder.iteration", "component", "auth")
	tel.AssertSpanAttribute(t, "coder.iteration", "iteration", int64(2))

	counter, err := tel.Meter("airo/test").Int64Counter("airo.test.count")
	require.NoError(t, err)
	counter.Add(ctx, 3, metric.WithAttributes(attribute.String("status", "ok")))
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", "fail")))

	total, err := tel.CounterValue(ctx, "airo.test.count")
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	ok, err := tel.CounterValue(ctx, "airo.test.count", attribute.String("status", "ok"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), ok)

	require.NoError(t, tel.Shutdown(ctx))
}
