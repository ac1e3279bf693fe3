// Package rag orchestrates query handling: conversational context,
// retrieval, prompt assembly, generation, and confidence scoring.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tutor-rag/internal/config"
	"tutor-rag/internal/embedding"
	"tutor-rag/internal/llm"
	"tutor-rag/internal/memory"
	"tutor-rag/internal/models"
	"tutor-rag/internal/vectorindex"
)

// recentWindow is how many recent confidences feed the stats average.
const recentWindow = 50

// Pipeline runs each query through a fixed sequence of states; any
// step's failure short-circuits into a degraded best-effort answer
// instead of an exception reaching the caller. Only a malformed
// question is rejected outright.
type Pipeline struct {
	embedder embedding.Embedder
	index    vectorindex.Index
	memory   *memory.Store
	chain    *llm.Chain
	prompter *promptBuilder

	topK            int
	fallbackPenalty float64

	statsMu sync.Mutex
	recent  []float64
	total   int
	failed  int
}

func New(embedder embedding.Embedder, index vectorindex.Index, store *memory.Store, chain *llm.Chain, cfg config.PipelineConfig) (*Pipeline, error) {
	if embedder == nil || index == nil || store == nil || chain == nil {
		return nil, fmt.Errorf("%w: pipeline requires embedder, index, memory and generation chain", models.ErrInvalidConfig)
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be > 0, got %d", models.ErrInvalidConfig, cfg.TopK)
	}
	if cfg.FallbackPenalty < 0 || cfg.FallbackPenalty > 1 {
		return nil, fmt.Errorf("%w: fallback_penalty must be in [0,1], got %g", models.ErrInvalidConfig, cfg.FallbackPenalty)
	}
	if cfg.ContextBudget <= 0 {
		return nil, fmt.Errorf("%w: context_budget must be > 0, got %d", models.ErrInvalidConfig, cfg.ContextBudget)
	}
	return &Pipeline{
		embedder:        embedder,
		index:           index,
		memory:          store,
		chain:           chain,
		prompter:        newPromptBuilder(cfg.ContextBudget),
		topK:            cfg.TopK,
		fallbackPenalty: cfg.FallbackPenalty,
	}, nil
}

// Ask answers one student question within a session. The returned
// AnswerResult is always usable; a non-nil error carries the typed
// failure for logging. ErrInvalidQuery is the only hard rejection and
// happens before any side effect.
func (p *Pipeline) Ask(ctx context.Context, sessionID, question, subjectFilter string) (models.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.AnswerResult{}, fmt.Errorf("%w: question must not be empty", models.ErrInvalidQuery)
	}

	history := p.memory.History(sessionID)
	profile := p.memory.Profile(sessionID)

	vec, err := p.embedder.Encode(ctx, question)
	if err != nil {
		return p.degrade(fmt.Errorf("failed to embed question: %w", err), false)
	}

	results, err := p.index.Search(ctx, vec, p.topK, subjectFilter)
	switch {
	case errors.Is(err, models.ErrIndexNotBuilt):
		// No curriculum yet: answer from general knowledge at low
		// confidence instead of failing.
		results = nil
	case err != nil:
		return p.degrade(fmt.Errorf("retrieval failed: %w", err), false)
	}

	prompt := p.prompter.Build(profile, history, results, question)

	generated, err := p.chain.Generate(ctx, prompt, llm.Options{MaxTokens: 512, Temperature: 0.7})
	if err != nil {
		// Covers exhaustion and cancellation; memory stays untouched.
		return p.degrade(err, true)
	}

	score := confidence(topScore(results), len(results), generated.UsedFallback, p.fallbackPenalty)
	sources, cited := attribute(results)

	now := time.Now()
	p.memory.AppendExchange(sessionID,
		models.Turn{Role: models.RoleUser, Text: question, Timestamp: now},
		models.Turn{Role: models.RoleAssistant, Text: generated.Text, Timestamp: now, CitedChunkIDs: cited},
	)
	p.record(score, false)

	log.Debug().
		Str("session", sessionID).
		Int("passages", len(results)).
		Float64("confidence", score).
		Str("backend", generated.Backend).
		Msg("answered query")

	return models.AnswerResult{
		Text:         generated.Text,
		Sources:      sources,
		Confidence:   score,
		UsedFallback: generated.UsedFallback,
	}, nil
}

// degrade produces the best-effort answer for a failed step. Nothing is
// appended to conversation memory on this path.
func (p *Pipeline) degrade(err error, generationFailed bool) (models.AnswerResult, error) {
	p.record(0, true)
	log.Warn().Err(err).Msg("query degraded")
	return models.AnswerResult{
		Text:         models.DegradedAnswer,
		Sources:      []models.Source{},
		Confidence:   0,
		UsedFallback: generationFailed,
	}, err
}

func (p *Pipeline) record(score float64, failed bool) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.total++
	if failed {
		p.failed++
	}
	p.recent = append(p.recent, score)
	if len(p.recent) > recentWindow {
		p.recent = p.recent[len(p.recent)-recentWindow:]
	}
}

// Stats reports the running counters consumed by the caller-facing API.
func (p *Pipeline) Stats() models.Stats {
	p.statsMu.Lock()
	var avg float64
	if len(p.recent) > 0 {
		for _, s := range p.recent {
			avg += s
		}
		avg /= float64(len(p.recent))
	}
	p.statsMu.Unlock()

	return models.Stats{
		SessionCount:        p.memory.SessionCount(),
		IndexSize:           p.index.Size(),
		AvgConfidenceRecent: avg,
	}
}

func topScore(results []models.RetrievalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	return results[0].Score
}

// attribute turns the retrieved passages into the ordered source list
// and the chunk ids cited on the assistant turn.
func attribute(results []models.RetrievalResult) ([]models.Source, []string) {
	sources := make([]models.Source, 0, len(results))
	cited := make([]string, 0, len(results))
	for _, r := range results {
		sources = append(sources, models.Source{SourceTitle: r.Chunk.Title, ChunkID: r.Chunk.ID})
		cited = append(cited, r.Chunk.ID)
	}
	return sources, cited
}
