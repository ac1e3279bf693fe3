// Package llm wraps text-generation models behind one contract with
// ordered fallback.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"tutor-rag/internal/models"
)

// Options tune a single generation call.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Backend is one text-generation model. Generate must respect ctx and
// return ErrBackendError-worthy failures rather than empty output.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Result carries the generated text and which backend produced it.
type Result struct {
	Text         string
	Backend      string
	UsedFallback bool
}

// Chain tries its backends in declared order. The first is the
// primary; every attempt is bounded by the per-attempt timeout. When
// the whole list fails the caller gets ErrAllBackendsExhausted wrapping
// the last attempt's error.
type Chain struct {
	backends []Backend
	timeout  time.Duration
}

func NewChain(backends []Backend, timeout time.Duration) (*Chain, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: at least one backend is required", models.ErrInvalidConfig)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: backend timeout must be > 0, got %s", models.ErrInvalidConfig, timeout)
	}
	return &Chain{backends: backends, timeout: timeout}, nil
}

func (c *Chain) Generate(ctx context.Context, prompt string, opts Options) (Result, error) {
	var lastErr error
	for i, backend := range c.backends {
		text, err := c.attempt(ctx, backend, prompt, opts)
		if err == nil {
			return Result{Text: text, Backend: backend.Name(), UsedFallback: i > 0}, nil
		}
		if ctx.Err() != nil {
			// The caller gave up; trying further backends would only
			// burn their deadline.
			return Result{}, fmt.Errorf("generation canceled: %w", ctx.Err())
		}
		log.Warn().Err(err).Str("backend", backend.Name()).Msg("generation attempt failed")
		lastErr = err
	}
	return Result{}, fmt.Errorf("%w: %v", models.ErrAllBackendsExhausted, lastErr)
}

func (c *Chain) attempt(ctx context.Context, backend Backend, prompt string, opts Options) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	text, err := backend.Generate(attemptCtx, prompt, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %v", models.ErrBackendTimeout, c.timeout, err)
		}
		return "", fmt.Errorf("%w: %v", models.ErrBackendError, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: backend returned empty output", models.ErrBackendError)
	}
	return text, nil
}
