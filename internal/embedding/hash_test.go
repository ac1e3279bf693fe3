package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-rag/internal/models"
)

func TestHashEmbedderDeterministic(t *testing.T) {
	e, err := NewHashEmbedder(128)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := e.Encode(ctx, "Newton's laws describe force and motion")
	require.NoError(t, err)
	second, err := e.Encode(ctx, "Newton's laws describe force and motion")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHashEmbedderDimension(t *testing.T) {
	e, err := NewHashEmbedder(64)
	require.NoError(t, err)
	assert.Equal(t, 64, e.Dim())

	vec, err := e.Encode(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Len(t, vec, 64)
}

func TestHashEmbedderNormalized(t *testing.T) {
	e, err := NewHashEmbedder(128)
	require.NoError(t, err)

	vec, err := e.Encode(context.Background(), "solve the equation 2x + 3 = 7")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-4)
}

func TestHashEmbedderDistinctTexts(t *testing.T) {
	e, err := NewHashEmbedder(256)
	require.NoError(t, err)

	ctx := context.Background()
	a, err := e.Encode(ctx, "photosynthesis converts sunlight into energy")
	require.NoError(t, err)
	b, err := e.Encode(ctx, "the french revolution began in seventeen eighty nine")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashEmbedderEmptyText(t *testing.T) {
	e, err := NewHashEmbedder(32)
	require.NoError(t, err)

	vec, err := e.Encode(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, vec, 32)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestHashEmbedderBatchOrder(t *testing.T) {
	e, err := NewHashEmbedder(128)
	require.NoError(t, err)

	ctx := context.Background()
	texts := []string{"algebra basics", "newton's laws", "reading comprehension"}
	vecs, err := e.EncodeBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vecs, len(texts))

	for i, text := range texts {
		single, err := e.Encode(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, vecs[i], "batch vector %d", i)
	}
}

func TestHashEmbedderSimilarityOrdering(t *testing.T) {
	e, err := NewHashEmbedder(256)
	require.NoError(t, err)

	ctx := context.Background()
	query, err := e.Encode(ctx, "how do newton's laws work")
	require.NoError(t, err)
	related, err := e.Encode(ctx, "newton's laws describe how force and motion work")
	require.NoError(t, err)
	unrelated, err := e.Encode(ctx, "bake the cake at two hundred degrees")
	require.NoError(t, err)

	assert.Greater(t, cosine(query, related), cosine(query, unrelated))
}

func TestNewHashEmbedderInvalidDim(t *testing.T) {
	_, err := NewHashEmbedder(0)
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
	_, err = NewHashEmbedder(-8)
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
