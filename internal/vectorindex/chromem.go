package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"tutor-rag/internal/config"
	"tutor-rag/internal/models"
)

// ChromemIndex is the in-process index backed by a chromem-go
// collection. chromem computes cosine similarity over normalized
// vectors; this wrapper adds the contract the pipeline relies on:
// dimension checks, k clamping, insertion-order tie-breaking and
// subject filtering.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	dim        int
	filterMode string

	mu      sync.RWMutex
	entries []models.Chunk
	pos     map[string]int
}

func NewChromemIndex(collectionName string, dim int, filterMode string) (*ChromemIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: index dimension must be > 0, got %d", models.ErrInvalidConfig, dim)
	}
	if filterMode != config.FilterModeHard && filterMode != config.FilterModeSoft {
		return nil, fmt.Errorf("%w: unknown subject filter mode %q", models.ErrInvalidConfig, filterMode)
	}
	db := chromem.NewDB()
	// All documents and queries carry explicit embeddings, so the
	// collection's embedding func must never run.
	collection, err := db.GetOrCreateCollection(collectionName, nil, func(context.Context, string) ([]float32, error) {
		return nil, fmt.Errorf("index has no embedding function; vectors must be supplied")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &ChromemIndex{
		db:         db,
		collection: collection,
		dim:        dim,
		filterMode: filterMode,
		pos:        make(map[string]int),
	}, nil
}

func (x *ChromemIndex) Insert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Vector) != x.dim {
			return fmt.Errorf("%w: chunk %s has %d dimensions, index expects %d", models.ErrDimensionMismatch, chunk.ID, len(chunk.Vector), x.dim)
		}
		docs = append(docs, chromem.Document{
			ID:      chunk.ID,
			Content: chunk.Text,
			Metadata: map[string]string{
				"document_id": chunk.DocumentID,
				"subject":     chunk.Subject,
				"title":       chunk.Title,
				"position":    strconv.Itoa(chunk.Position),
			},
			Embedding: chunk.Vector,
		})
	}
	if err := x.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}

	x.mu.Lock()
	for _, chunk := range chunks {
		if _, exists := x.pos[chunk.ID]; exists {
			continue
		}
		x.pos[chunk.ID] = len(x.entries)
		x.entries = append(x.entries, chunk)
	}
	x.mu.Unlock()

	log.Debug().Int("chunks", len(chunks)).Int("size", x.Size()).Msg("inserted chunks into index")
	return nil
}

func (x *ChromemIndex) Search(ctx context.Context, query []float32, k int, subject string) ([]models.RetrievalResult, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d", models.ErrDimensionMismatch, len(query), x.dim)
	}
	size := x.Size()
	if size == 0 {
		return nil, models.ErrIndexNotBuilt
	}
	if k > size {
		k = size
	}
	if k <= 0 {
		return nil, nil
	}

	// The corpus is exhaustively scored anyway, so rank all entries here
	// and keep full control over tie-breaking and subject filtering.
	results, err := x.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: query,
		NResults:       size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	type ranked struct {
		result models.RetrievalResult
		pos    int
	}
	x.mu.RLock()
	scored := make([]ranked, 0, len(results))
	for _, res := range results {
		pos, ok := x.pos[res.ID]
		if !ok {
			continue
		}
		chunk := x.entries[pos]
		score := clampScore(float64(res.Similarity))
		if subject != "" && chunk.Subject != subject {
			if x.filterMode == config.FilterModeHard {
				continue
			}
			score *= softDemotion
		}
		scored = append(scored, ranked{result: models.RetrievalResult{Chunk: chunk, Score: score}, pos: pos})
	}
	x.mu.RUnlock()

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].result.Score != scored[j].result.Score {
			return scored[i].result.Score > scored[j].result.Score
		}
		return scored[i].pos < scored[j].pos
	})
	if k > len(scored) {
		k = len(scored)
	}
	out := make([]models.RetrievalResult, k)
	for i := range out {
		out[i] = scored[i].result
	}
	return out, nil
}

func (x *ChromemIndex) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

func (x *ChromemIndex) ExportEntries(context.Context) ([]byte, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	data, err := json.Marshal(x.entries)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize index entries: %w", err)
	}
	return data, nil
}

func (x *ChromemIndex) ImportEntries(ctx context.Context, data []byte) error {
	var entries []models.Chunk
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to deserialize index entries: %w", err)
	}
	return x.Insert(ctx, entries)
}
