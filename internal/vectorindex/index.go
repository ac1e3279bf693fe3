// Package vectorindex stores passage vectors and serves approximate
// nearest-neighbor search over them.
package vectorindex

import (
	"context"

	"tutor-rag/internal/models"
)

// Index owns the stored entries. Entries are append-only: inserted
// vectors are never mutated in place, so searches stay stable while
// inserts of new content are in flight. Removing content means
// rebuilding the index from scratch.
type Index interface {
	// Insert appends entries. Every chunk must carry a vector of the
	// index dimensionality.
	Insert(ctx context.Context, chunks []models.Chunk) error
	// Search returns the top-k entries ordered by descending cosine
	// similarity, ties broken by insertion order (earlier first). k is
	// clamped to [0, size]. A non-empty subject restricts or demotes
	// non-matching entries depending on the configured filter mode.
	Search(ctx context.Context, query []float32, k int, subject string) ([]models.RetrievalResult, error)
	Size() int
	// ExportEntries serializes all entries, vectors included, in
	// insertion order. ImportEntries round-trips them losslessly.
	ExportEntries(ctx context.Context) ([]byte, error)
	ImportEntries(ctx context.Context, data []byte) error
}

// softDemotion scales the score of entries whose subject does not match
// the filter in soft mode, de-prioritizing instead of excluding them.
const softDemotion = 0.5

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
