package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-rag/internal/models"
)

func doc(id, text string) models.Document {
	return models.Document{
		ID:         id,
		RawText:    text,
		SourceMeta: models.SourceMeta{Title: "Test Doc", Subject: "science"},
	}
}

func TestSplitWindowSizes(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 runes
	chunks, err := Split(doc("d1", text), 30, 10)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	for i, c := range chunks[:len(chunks)-1] {
		assert.Len(t, []rune(c.Text), 30, "chunk %d", i)
	}
	last := chunks[len(chunks)-1]
	assert.LessOrEqual(t, len([]rune(last.Text)), 30)
	assert.NotEmpty(t, last.Text)
}

func TestSplitReconstruction(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog, again and again and again."
	size, overlap := 20, 5
	chunks, err := Split(doc("d1", text), size, overlap)
	require.NoError(t, err)

	// Dropping each chunk's leading overlap reassembles the original.
	var sb strings.Builder
	for i, c := range chunks {
		runes := []rune(c.Text)
		if i == 0 {
			sb.WriteString(c.Text)
			continue
		}
		sb.WriteString(string(runes[overlap:]))
	}
	assert.Equal(t, text, sb.String())
}

func TestSplitOffsetsAndIDs(t *testing.T) {
	text := strings.Repeat("x", 25)
	chunks, err := Split(doc("lesson.txt", text), 10, 4)
	require.NoError(t, err)

	for i, c := range chunks {
		assert.Equal(t, i, c.Position)
		assert.Equal(t, "lesson.txt", c.DocumentID)
		assert.Contains(t, c.ID, "lesson.txt-")
		assert.Equal(t, c.Text, text[c.StartOffset:c.EndOffset])
		assert.Equal(t, "science", c.Subject)
		assert.Equal(t, "Test Doc", c.Title)
	}
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len(text), chunks[len(chunks)-1].EndOffset)
}

func TestSplitRuneSafety(t *testing.T) {
	text := "héllo wörld ünïcode tëxt with àccents everywhere"
	chunks, err := Split(doc("d1", text), 10, 3)
	require.NoError(t, err)

	runes := []rune(text)
	for _, c := range chunks {
		assert.Equal(t, string(runes[c.StartOffset:c.EndOffset]), c.Text)
	}
}

func TestSplitDeterministic(t *testing.T) {
	d := doc("d1", strings.Repeat("determinism ", 50))
	first, err := Split(d, 100, 20)
	require.NoError(t, err)
	second, err := Split(d, 100, 20)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSplitShortDocument(t *testing.T) {
	chunks, err := Split(doc("d1", "tiny"), 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny", chunks[0].Text)
	assert.Equal(t, "d1-0", chunks[0].ID)
}

func TestSplitEmptyDocument(t *testing.T) {
	chunks, err := Split(doc("d1", ""), 1000, 200)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitInvalidConfig(t *testing.T) {
	d := doc("d1", "some text")
	cases := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 10},
		{"negative size", -5, 10},
		{"zero overlap", 100, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split(d, tc.size, tc.overlap)
			assert.True(t, errors.Is(err, models.ErrInvalidConfig))
		})
	}
}
