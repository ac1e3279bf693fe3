// Package embedding maps text to fixed-length dense vectors for both
// indexing and querying.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"tutor-rag/internal/models"
)

// Embedder encodes text into vectors of a stable dimensionality. Same
// text must always yield the same vector for a fixed model version.
type Embedder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	// EncodeBatch is order-preserving and returns one vector per input.
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dim() int
}

// LangchainEmbedder wraps a langchaingo embeddings client and enforces
// the configured dimensionality on every vector it hands out.
type LangchainEmbedder struct {
	impl *embeddings.EmbedderImpl
	dim  int
}

// NewOpenAIEmbedder builds an embedder against an OpenAI-compatible API.
func NewOpenAIEmbedder(apiKey, baseURL, model string, dim int) (*LangchainEmbedder, error) {
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(strings.TrimPrefix(apiKey, "Bearer ")),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", err)
	}
	return newLangchainEmbedder(llm, dim)
}

// NewOllamaEmbedder builds an embedder against a local ollama server.
func NewOllamaEmbedder(serverURL, model string, dim int) (*LangchainEmbedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding model: %w", err)
	}
	return newLangchainEmbedder(llm, dim)
}

func newLangchainEmbedder(client embeddings.EmbedderClient, dim int) (*LangchainEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be > 0, got %d", models.ErrInvalidConfig, dim)
	}
	impl, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return &LangchainEmbedder{impl: impl, dim: dim}, nil
}

func (e *LangchainEmbedder) Encode(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vec) != e.dim {
		return nil, fmt.Errorf("%w: model returned %d dimensions, expected %d", models.ErrDimensionMismatch, len(vec), e.dim)
	}
	return vec, nil
}

func (e *LangchainEmbedder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: model returned %d vectors for %d texts", models.ErrDimensionMismatch, len(vecs), len(texts))
	}
	for i, vec := range vecs {
		if len(vec) != e.dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d", models.ErrDimensionMismatch, i, len(vec), e.dim)
		}
	}
	return vecs, nil
}

func (e *LangchainEmbedder) Dim() int {
	return e.dim
}
