package llm

import (
	"context"
	"sync"
)

var defaultResponses = []string{
	"I understand you're asking about that topic. Let me help you learn step by step.",
	"That's a great question! Let me break it down for you.",
	"I can see you're working on this concept. Here's how I'd explain it:",
	"Let's explore this together. What specific part would you like to focus on?",
	"That's an interesting point. Let me provide some guidance on this.",
}

// ScriptedBackend cycles through a fixed list of responses. It serves
// as the offline default and as the last-resort fallback when no real
// model is reachable.
type ScriptedBackend struct {
	name      string
	responses []string

	mu   sync.Mutex
	next int
}

func NewScriptedBackend(name string, responses []string) *ScriptedBackend {
	if name == "" {
		name = "scripted"
	}
	if len(responses) == 0 {
		responses = defaultResponses
	}
	return &ScriptedBackend{name: name, responses: responses}
}

func (b *ScriptedBackend) Name() string {
	return b.name
}

func (b *ScriptedBackend) Generate(ctx context.Context, _ string, _ Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	response := b.responses[b.next%len(b.responses)]
	b.next++
	return response, nil
}
