// Package chunker splits raw document text into overlapping fixed-size
// passages for indexing.
package chunker

import (
	"fmt"

	"tutor-rag/internal/models"
)

// Split walks the document text producing windows of chunkSize runes,
// advancing by chunkSize-chunkOverlap each step. The final chunk may be
// shorter, never padded and never dropped. Pure function: identical
// input and config always yield the identical chunk sequence, with
// chunk IDs derived from the document ID and window position.
func Split(doc models.Document, chunkSize, chunkOverlap int) ([]models.Chunk, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be > 0, got %d", models.ErrInvalidConfig, chunkSize)
	}
	if chunkOverlap <= 0 {
		return nil, fmt.Errorf("%w: chunk overlap must be > 0, got %d", models.ErrInvalidConfig, chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", models.ErrInvalidConfig, chunkOverlap, chunkSize)
	}

	text := []rune(doc.RawText)
	if len(text) == 0 {
		return nil, nil
	}

	step := chunkSize - chunkOverlap
	chunks := make([]models.Chunk, 0, len(text)/step+1)
	for start, position := 0, 0; start < len(text); start, position = start+step, position+1 {
		end := start + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, models.Chunk{
			ID:          fmt.Sprintf("%s-%d", doc.ID, position),
			DocumentID:  doc.ID,
			Text:        string(text[start:end]),
			Position:    position,
			StartOffset: start,
			EndOffset:   end,
			Subject:     doc.SourceMeta.Subject,
			Title:       doc.SourceMeta.Title,
		})
		if end == len(text) {
			break
		}
	}
	return chunks, nil
}
