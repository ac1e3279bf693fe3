package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"tutor-rag/internal/models"
)

// HashEmbedder is a deterministic, in-process embedder based on signed
// feature hashing of word tokens, L2-normalized so cosine similarity
// behaves like the remote models. It needs no network and is the
// default when no embedding provider is configured.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) (*HashEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: embedding dimension must be > 0, got %d", models.ErrInvalidConfig, dim)
	}
	return &HashEmbedder{dim: dim}, nil
}

func (e *HashEmbedder) Encode(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		bucket := int(sum % uint32(e.dim))
		// High bit picks the sign so unrelated tokens cancel rather
		// than accumulate in shared buckets.
		if sum&0x80000000 != 0 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	normalize(vec)
	return vec, nil
}

func (e *HashEmbedder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Encode(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (e *HashEmbedder) Dim() int {
	return e.dim
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
