package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/airo/internal/config"
	"github.com/fyrsmithlabs/airo/internal/logging"
	"github.com/fyrsmithlabs/airo/internal/telemetry"
)

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, Options{Temperature: 0}.Validate())
	assert.NoError(t, Options{Temperature: 1, Format: FormatJSON}.Validate())
	assert.ErrorIs(t, Options{Temperature: 1.2}.Validate(), ErrInvalidOptions)
	assert.ErrorIs(t, Options{Temperature: -0.1}.Validate(), ErrInvalidOptions)
	assert.ErrorIs(t, Options{MaxTokens: -1}.Validate(), ErrInvalidOptions)
	assert.ErrorIs(t, Options{Format: "xml"}.Validate(), ErrInvalidOptions)
}

func TestFake_RejectsBadTemperatureBeforeCall(t *testing.T) {
	fake := NewFake(FakeResponse{Text: "x"})
	_, err := fake.Complete(context.Background(), Request{}, Options{Temperature: 2})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestFake_ScriptThenRepeat(t *testing.T) {
	fake := NewFake(FakeResponse{Text: "one"}, FakeResponse{Text: "two"})
	ctx := context.Background()

	for _, want := range []string{"one", "two", "two"} {
		resp, err := fake.Complete(ctx, Request{}, Options{})
		require.NoError(t, err)
		assert.Equal(t, want, resp.Text)
	}
	assert.Equal(t, 3, fake.CallCount())
}

func TestFake_HandlerAndStreaming(t *testing.T) {
	fake := NewFakeHandler(func(req Request, _ Options) (string, error) {
		return "echo: " + req.Prompt, nil
	})
	var chunks []string
	resp, err := fake.Complete(context.Background(), Request{Prompt: "hi"}, Options{
		Stream:  true,
		OnChunk: func(s string) { chunks = append(chunks, s) },
	})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", resp.Text)
	assert.Equal(t, []string{"echo: hi"}, chunks)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "none", Kind(nil))
	assert.Equal(t, "timeout", Kind(fmt.Errorf("x: %w", ErrModelTimeout)))
	assert.Equal(t, "malformed", Kind(ErrMalformedResponse))
	assert.Equal(t, "cancelled", Kind(context.Canceled))
	assert.Equal(t, "unavailable", Kind(errors.New("boom")))
}

func TestInstrument(t *testing.T) {
	tel := telemetry.NewTestTelemetry()
	logger := logging.NewTestLogger()
	fake := NewFake(FakeResponse{Text: "ok"}, FakeResponse{Err: ErrModelTimeout})
	c := Wrap(fake, Instrument(tel.Tracer("test"), tel.Meter("test"), logger.Logger))
	ctx := context.Background()

	_, err := c.Complete(ctx, Request{Prompt: "p"}, Options{Model: "coder"})
	require.NoError(t, err)
	_, err = c.Complete(ctx, Request{Prompt: "p"}, Options{Model: "coder"})
	require.ErrorIs(t, err, ErrModelTimeout)

	tel.AssertSpanExists(t, "llm.complete")
	tel.AssertSpanAttribute(t, "llm.complete", "llm.model", "coder")

	total, err := tel.CounterValue(ctx, "airo.llm.requests")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	timeouts, err := tel.CounterValue(ctx, "airo.llm.errors", attribute.String("kind", "timeout"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), timeouts)

	logger.AssertLogged(t, zapcore.WarnLevel, "model call failed")
	logger.AssertField(t, "model call failed", "kind", "timeout")
}

func TestNew_FakeBackend(t *testing.T) {
	cfg := config.Default().Model
	cfg.Backend = config.BackendFake

	fake := NewFake(FakeResponse{Text: "hello"})
	c, err := New(context.Background(), cfg, "m", Deps{Fake: fake})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), Request{Prompt: "x"}, Options{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := config.Default().Model
	cfg.Backend = "carrier-pigeon"
	_, err := New(context.Background(), cfg, "m", Deps{})
	assert.Error(t, err)
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "llama3.1:70b", "size": 42},
				{"name": "deepseek-coder:33b", "size": 7},
			},
		})
	}))
	defer srv.Close()

	models, err := ListModels(context.Background(), srv.Client(), srv.URL+"/")
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "deepseek-coder:33b", models[0].Name)

	missing := MissingModels(models, "llama3.1:70b", "codellama:34b", "deepseek-coder", "codellama:34b", "")
	assert.Equal(t, []string{"codellama:34b"}, missing)
}

func TestListModels_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := ListModels(context.Background(), srv.Client(), srv.URL)
	assert.ErrorIs(t, err, ErrModelUnavailable)
}
