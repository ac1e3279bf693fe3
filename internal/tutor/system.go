// Package tutor wires the pipeline components together from config and
// exposes the caller-facing API.
package tutor

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"tutor-rag/internal/chunker"
	"tutor-rag/internal/config"
	"tutor-rag/internal/embedding"
	"tutor-rag/internal/ingest"
	"tutor-rag/internal/llm"
	"tutor-rag/internal/memory"
	"tutor-rag/internal/models"
	"tutor-rag/internal/rag"
	"tutor-rag/internal/vectorindex"
)

// System owns one configured tutor instance: embedder, vector index,
// session memory and the pipeline over them.
type System struct {
	cfg      *config.Config
	embedder embedding.Embedder
	index    vectorindex.Index
	memory   *memory.Store
	pipeline *rag.Pipeline
}

func New(ctx context.Context, cfg *config.Config) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	index, err := buildIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := memory.NewStore(cfg.Pipeline.MaxHistory, nil)
	if err != nil {
		return nil, err
	}
	chain, err := buildChain(cfg)
	if err != nil {
		return nil, err
	}
	pipeline, err := rag.New(embedder, index, store, chain, cfg.Pipeline)
	if err != nil {
		return nil, err
	}

	return &System{
		cfg:      cfg,
		embedder: embedder,
		index:    index,
		memory:   store,
		pipeline: pipeline,
	}, nil
}

func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	e := cfg.Embedder
	dim := cfg.Pipeline.EmbeddingDim
	switch e.Provider {
	case "", "local":
		return embedding.NewHashEmbedder(dim)
	case "openai":
		return embedding.NewOpenAIEmbedder(e.APIKey, e.BaseURL, e.Model, dim)
	case "ollama":
		return embedding.NewOllamaEmbedder(e.BaseURL, e.Model, dim)
	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", models.ErrInvalidConfig, e.Provider)
	}
}

func buildIndex(ctx context.Context, cfg *config.Config) (vectorindex.Index, error) {
	dim := cfg.Pipeline.EmbeddingDim
	mode := cfg.Pipeline.SubjectFilter
	switch cfg.Store.Type {
	case "", "chromem":
		return vectorindex.NewChromemIndex(cfg.Store.Collection, dim, mode)
	case "postgres":
		sqldb := vectorindex.ConnectDB(cfg.Store.DSN, cfg.Store.Password)
		return vectorindex.NewBunIndex(ctx, sqldb, dim, mode, cfg.Store.Debug)
	default:
		return nil, fmt.Errorf("%w: unsupported store type %q", models.ErrInvalidConfig, cfg.Store.Type)
	}
}

func buildChain(cfg *config.Config) (*llm.Chain, error) {
	backends := make([]llm.Backend, 0, len(cfg.Backends))
	for _, bc := range cfg.Backends {
		switch bc.Provider {
		case "scripted":
			backends = append(backends, llm.NewScriptedBackend(bc.Name, nil))
		default:
			backend, err := llm.NewLangchainBackend(bc)
			if err != nil {
				return nil, err
			}
			backends = append(backends, backend)
		}
	}
	return llm.NewChain(backends, cfg.Pipeline.BackendTimeout.Std())
}

// IngestDocuments chunks, embeds and indexes the given documents.
// Returns the number of chunks added.
func (s *System) IngestDocuments(ctx context.Context, docs []models.Document) (int, error) {
	total := 0
	for _, doc := range docs {
		chunks, err := chunker.Split(doc, s.cfg.Pipeline.ChunkSize, s.cfg.Pipeline.ChunkOverlap)
		if err != nil {
			return total, err
		}
		if len(chunks) == 0 {
			continue
		}
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		vectors, err := s.embedder.EncodeBatch(ctx, texts)
		if err != nil {
			return total, fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
		}
		for i := range chunks {
			chunks[i].Vector = vectors[i]
		}
		if err := s.index.Insert(ctx, chunks); err != nil {
			return total, err
		}
		total += len(chunks)
		log.Info().Str("document", doc.ID).Int("chunks", len(chunks)).Msg("ingested document")
	}
	return total, nil
}

// IngestPath loads every supported file under path and indexes it.
func (s *System) IngestPath(ctx context.Context, path string) (int, error) {
	docs, err := ingest.LoadDir(path)
	if err != nil {
		return 0, err
	}
	return s.IngestDocuments(ctx, docs)
}

// IngestFile loads and indexes a single curriculum file.
func (s *System) IngestFile(ctx context.Context, path string) (int, error) {
	doc, err := ingest.LoadFile(path)
	if err != nil {
		return 0, err
	}
	return s.IngestDocuments(ctx, []models.Document{doc})
}

// IngestSample indexes the built-in sample curriculum.
func (s *System) IngestSample(ctx context.Context) (int, error) {
	return s.IngestDocuments(ctx, ingest.SampleCurriculum())
}

// Ask answers a question within the given session.
func (s *System) Ask(ctx context.Context, sessionID, question, subjectFilter string) (models.AnswerResult, error) {
	return s.pipeline.Ask(ctx, sessionID, question, subjectFilter)
}

// ClearSession drops a session's history and profile.
func (s *System) ClearSession(sessionID string) {
	s.memory.Clear(sessionID)
}

// Stats reports session count, index size and recent confidence.
func (s *System) Stats() models.Stats {
	return s.pipeline.Stats()
}

// SaveIndex serializes the index entries to a file.
func (s *System) SaveIndex(ctx context.Context, path string) error {
	data, err := s.index.ExportEntries(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index snapshot: %w", err)
	}
	return nil
}

// LoadIndex restores index entries from a file written by SaveIndex.
func (s *System) LoadIndex(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read index snapshot: %w", err)
	}
	return s.index.ImportEntries(ctx, data)
}

// ExportSessions serializes the session store.
func (s *System) ExportSessions() ([]byte, error) {
	return s.memory.Export()
}

// ImportSessions restores previously exported sessions.
func (s *System) ImportSessions(data []byte) error {
	return s.memory.Import(data)
}
