package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// langchainClient adapts langchaingo models. JSON mode needs a separately
// configured model for ollama, so text and json models are kept apart.
type langchainClient struct {
	backend string
	text    llms.Model
	json    llms.Model
	// jsonOption is passed per call for backends that support it.
	jsonOption llms.CallOption
}

// NewOllama returns a Client for an ollama server.
func NewOllama(host string) (Client, error) {
	text, err := ollama.New(ollama.WithServerURL(host))
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	js, err := ollama.New(ollama.WithServerURL(host), ollama.WithFormat("json"))
	if err != nil {
		return nil, fmt.Errorf("creating ollama json client: %w", err)
	}
	return &langchainClient{backend: "ollama", text: text, json: js}, nil
}

// NewOpenAI returns a Client for an OpenAI-compatible server.
func NewOpenAI(baseURL, apiKey, model string) (Client, error) {
	if apiKey == "" {
		// Local OpenAI-compatible servers ignore the token but the client
		// requires one.
		apiKey = "unused"
	}
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return &langchainClient{backend: "openai", text: m, json: m, jsonOption: llms.WithJSONMode()}, nil
}

func (c *langchainClient) Name() string { return c.backend }

func (c *langchainClient) Complete(ctx context.Context, req Request, opts Options) (*Completion, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var messages []llms.MessageContent
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.Model != "" {
		callOpts = append(callOpts, llms.WithModel(opts.Model))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	model := c.text
	if opts.JSON() {
		model = c.json
		if c.jsonOption != nil {
			callOpts = append(callOpts, c.jsonOption)
		}
	}
	if opts.Stream && opts.OnChunk != nil {
		onChunk := opts.OnChunk
		callOpts = append(callOpts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			onChunk(string(chunk))
			return nil
		}))
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return nil, classify(ctx, c.backend, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: %s returned no choices", ErrModelUnavailable, c.backend)
	}

	var sb strings.Builder
	for _, choice := range resp.Choices {
		sb.WriteString(choice.Content)
	}
	return &Completion{
		Text:     sb.String(),
		Model:    opts.Model,
		Backend:  c.backend,
		Duration: time.Since(start),
	}, nil
}
