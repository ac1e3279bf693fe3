package models

import "time"

// SourceMeta describes where a document came from.
type SourceMeta struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Path    string `json:"path"`
}

// Document is a unit of ingested curriculum content. Immutable once created.
type Document struct {
	ID         string     `json:"id"`
	RawText    string     `json:"raw_text"`
	SourceMeta SourceMeta `json:"source_meta"`
}

// Chunk is a bounded slice of a document, the unit of retrieval.
// StartOffset and EndOffset are rune offsets into the document text so
// answers can cite the exact passage.
type Chunk struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Text        string    `json:"text"`
	Position    int       `json:"position"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	Subject     string    `json:"subject"`
	Title       string    `json:"title"`
	Vector      []float32 `json:"vector,omitempty"`
}

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session. Immutable once appended.
type Turn struct {
	Role          Role      `json:"role"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
	CitedChunkIDs []string  `json:"cited_chunk_ids,omitempty"`
}

// Profile holds the student signals derived from a session's turn history.
// It is recomputed incrementally on each user turn and never edited directly.
type Profile struct {
	SubjectFrequency     map[string]int `json:"subject_frequency"`
	LastSubjects         []string       `json:"last_subjects"`
	DifficultyPreference string         `json:"difficulty_preference"`
	LearningStyle        string         `json:"learning_style"`
}

// RetrievalResult pairs a chunk with its relevance score in [0,1].
type RetrievalResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Source attributes part of an answer to a stored chunk.
type Source struct {
	SourceTitle string `json:"source_title"`
	ChunkID     string `json:"chunk_id"`
}

// AnswerResult is the structured response returned for every query.
// Produced fresh per query and never mutated after return.
type AnswerResult struct {
	Text         string   `json:"text"`
	Sources      []Source `json:"sources"`
	Confidence   float64  `json:"confidence"`
	UsedFallback bool     `json:"used_fallback"`
}

// Stats summarizes the running system.
type Stats struct {
	SessionCount        int     `json:"session_count"`
	IndexSize           int     `json:"index_size"`
	AvgConfidenceRecent float64 `json:"avg_confidence_recent"`
}
