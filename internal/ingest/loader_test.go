package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-rag/internal/models"
)

func TestInferSubject(t *testing.T) {
	cases := map[string]string{
		"algebra_basics.txt":      "mathematics",
		"physics-notes.md":        "science",
		"world_history.pdf":       "history",
		"english_literature.docx": "english",
		"programming101.txt":      "computer",
		"random_notes.txt":        models.SubjectGeneral,
	}
	for filename, want := range cases {
		assert.Equal(t, want, InferSubject(filename), filename)
	}
}

func TestLoadFileText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "algebra_basics.txt")
	require.NoError(t, os.WriteFile(path, []byte("Variables represent unknown values."), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "algebra_basics.txt", doc.ID)
	assert.Equal(t, "algebra_basics", doc.SourceMeta.Title)
	assert.Equal(t, "mathematics", doc.SourceMeta.Subject)
	assert.Equal(t, "Variables represent unknown values.", doc.RawText)
}

func TestLoadFileMarkdownStripsMarkup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "science_notes.md")
	content := "# Newton's Laws\n\nForce equals **mass** times acceleration.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Contains(t, doc.RawText, "Newton's Laws")
	assert.Contains(t, doc.RawText, "mass")
	assert.NotContains(t, doc.RawText, "<h1>")
	assert.NotContains(t, doc.RawText, "**")
	assert.Equal(t, "science", doc.SourceMeta.Subject)
}

func TestLoadFileUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(path, []byte("not text"), 0o644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "unsupported file format")
}

func TestLoadDirSkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math.txt"), []byte("algebra"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.png"), []byte{0x89, 0x50}, 0o644))

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "math.txt", docs[0].ID)
}

func TestSampleCurriculum(t *testing.T) {
	docs := SampleCurriculum()
	require.Len(t, docs, 3)

	subjects := make(map[string]bool)
	for _, doc := range docs {
		assert.NotEmpty(t, doc.ID)
		assert.NotEmpty(t, doc.RawText)
		assert.NotEmpty(t, doc.SourceMeta.Title)
		subjects[doc.SourceMeta.Subject] = true
	}
	assert.True(t, subjects["mathematics"])
	assert.True(t, subjects["science"])
	assert.True(t, subjects["english"])
}
