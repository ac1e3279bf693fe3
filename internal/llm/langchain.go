package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"tutor-rag/internal/config"
)

// LangchainBackend adapts a langchaingo chat model to the Backend
// contract.
type LangchainBackend struct {
	name  string
	model llms.Model
}

// NewLangchainBackend builds a backend from its config entry.
// Supported providers: openai (and any OpenAI-compatible API) and
// ollama.
func NewLangchainBackend(cfg config.BackendConfig) (*LangchainBackend, error) {
	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case "openai":
		model, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
			openai.WithModel(cfg.Model),
		)
	case "ollama":
		model, err = ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported generation provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", cfg.Provider, err)
	}
	name := cfg.Name
	if name == "" {
		name = cfg.Provider + "/" + cfg.Model
	}
	return &LangchainBackend{name: name, model: model}, nil
}

func (b *LangchainBackend) Name() string {
	return b.name
}

func (b *LangchainBackend) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: prompt}},
		},
	}
	var callOpts []llms.CallOption
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}
	resp, err := b.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
