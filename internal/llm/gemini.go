package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// geminiClient is a thin wrapper around the official genai client.
type geminiClient struct {
	cli *genai.Client
}

// NewGemini returns a Client for the Gemini API.
func NewGemini(ctx context.Context, apiKey string) (Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &geminiClient{cli: cli}, nil
}

func (g *geminiClient) Name() string { return "gemini" }

func (g *geminiClient) Complete(ctx context.Context, req Request, opts Options) (*Completion, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	temp := float32(opts.Temperature)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.JSON() {
		cfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := g.cli.Models.GenerateContent(ctx, opts.Model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return nil, classify(ctx, "gemini", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: gemini returned no candidates", ErrModelUnavailable)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := sb.String()
	if opts.Stream && opts.OnChunk != nil {
		opts.OnChunk(text)
	}
	return &Completion{Text: text, Model: opts.Model, Backend: "gemini", Duration: time.Since(start)}, nil
}
