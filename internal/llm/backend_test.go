package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-rag/internal/models"
)

// stubBackend answers with a fixed result after an optional delay.
type stubBackend struct {
	name  string
	text  string
	err   error
	delay time.Duration
	calls int
}

func (b *stubBackend) Name() string { return b.name }

func (b *stubBackend) Generate(ctx context.Context, _ string, _ Options) (string, error) {
	b.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return b.text, b.err
}

func TestChainPrimarySucceeds(t *testing.T) {
	primary := &stubBackend{name: "primary", text: "answer"}
	secondary := &stubBackend{name: "secondary", text: "fallback answer"}
	chain, err := NewChain([]Backend{primary, secondary}, time.Second)
	require.NoError(t, err)

	result, err := chain.Generate(context.Background(), "prompt", Options{})
	require.NoError(t, err)
	assert.Equal(t, "answer", result.Text)
	assert.Equal(t, "primary", result.Backend)
	assert.False(t, result.UsedFallback)
	assert.Zero(t, secondary.calls)
}

func TestChainFallsBackInOrder(t *testing.T) {
	first := &stubBackend{name: "first", err: errors.New("boom")}
	second := &stubBackend{name: "second", err: errors.New("boom too")}
	third := &stubBackend{name: "third", text: "rescued"}
	chain, err := NewChain([]Backend{first, second, third}, time.Second)
	require.NoError(t, err)

	result, err := chain.Generate(context.Background(), "prompt", Options{})
	require.NoError(t, err)
	assert.Equal(t, "rescued", result.Text)
	assert.Equal(t, "third", result.Backend)
	assert.True(t, result.UsedFallback)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestChainAllBackendsExhausted(t *testing.T) {
	first := &stubBackend{name: "first", err: errors.New("down")}
	second := &stubBackend{name: "second", err: errors.New("also down")}
	chain, err := NewChain([]Backend{first, second}, time.Second)
	require.NoError(t, err)

	_, err = chain.Generate(context.Background(), "prompt", Options{})
	assert.True(t, errors.Is(err, models.ErrAllBackendsExhausted))
}

func TestChainTimeoutTriggersFallback(t *testing.T) {
	slow := &stubBackend{name: "slow", text: "too late", delay: 200 * time.Millisecond}
	fast := &stubBackend{name: "fast", text: "quick answer"}
	chain, err := NewChain([]Backend{slow, fast}, 20*time.Millisecond)
	require.NoError(t, err)

	result, err := chain.Generate(context.Background(), "prompt", Options{})
	require.NoError(t, err)
	assert.Equal(t, "quick answer", result.Text)
	assert.True(t, result.UsedFallback)
}

func TestChainEmptyOutputIsFailure(t *testing.T) {
	empty := &stubBackend{name: "empty", text: ""}
	backup := &stubBackend{name: "backup", text: "real answer"}
	chain, err := NewChain([]Backend{empty, backup}, time.Second)
	require.NoError(t, err)

	result, err := chain.Generate(context.Background(), "prompt", Options{})
	require.NoError(t, err)
	assert.Equal(t, "real answer", result.Text)
	assert.True(t, result.UsedFallback)
}

func TestChainStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubBackend{name: "first", text: "never"}
	second := &stubBackend{name: "second", text: "never either"}
	chain, err := NewChain([]Backend{first, second}, time.Second)
	require.NoError(t, err)

	_, err = chain.Generate(ctx, "prompt", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, second.calls)
}

func TestNewChainValidation(t *testing.T) {
	_, err := NewChain(nil, time.Second)
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))

	_, err = NewChain([]Backend{&stubBackend{name: "ok", text: "x"}}, 0)
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
}

func TestScriptedBackendCycles(t *testing.T) {
	b := NewScriptedBackend("", nil)
	assert.Equal(t, "scripted", b.Name())

	ctx := context.Background()
	seen := make([]string, 0, len(defaultResponses)+1)
	for i := 0; i <= len(defaultResponses); i++ {
		text, err := b.Generate(ctx, "prompt", Options{})
		require.NoError(t, err)
		require.NotEmpty(t, text)
		seen = append(seen, text)
	}
	assert.Equal(t, seen[0], seen[len(defaultResponses)])
}

func TestScriptedBackendCustomResponses(t *testing.T) {
	b := NewScriptedBackend("canned", []string{"only answer"})
	assert.Equal(t, "canned", b.Name())

	text, err := b.Generate(context.Background(), "prompt", Options{})
	require.NoError(t, err)
	assert.Equal(t, "only answer", text)
}
