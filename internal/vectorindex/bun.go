package vectorindex

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"tutor-rag/internal/config"
	"tutor-rag/internal/models"
)

type chunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`
	ID            string  `bun:"id,pk"`
	DocumentID    string  `bun:"document_id,notnull"`
	Text          string  `bun:"text,notnull"`
	Position      int     `bun:"position,notnull"`
	StartOffset   int     `bun:"start_offset,notnull"`
	EndOffset     int     `bun:"end_offset,notnull"`
	Subject       string  `bun:"subject"`
	Title         string  `bun:"title"`
	Seq           int64   `bun:"seq,scanonly"`
	Embedding     string  `bun:"embedding,notnull"`
	Distance      float64 `bun:"distance,scanonly"`
}

// BunIndex serves the same contract as ChromemIndex from a Postgres
// table with a pgvector column, for deployments where the corpus must
// outlive the process. Insertion order is the seq column.
type BunIndex struct {
	db         *bun.DB
	dim        int
	filterMode string
	size       atomic.Int64
}

// ConnectDB opens the Postgres connection the index runs on.
func ConnectDB(dsn, password string) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(password)))
}

func NewBunIndex(ctx context.Context, sqldb *sql.DB, dim int, filterMode string, debug bool) (*BunIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: index dimension must be > 0, got %d", models.ErrInvalidConfig, dim)
	}
	if filterMode != config.FilterModeHard && filterMode != config.FilterModeSoft {
		return nil, fmt.Errorf("%w: unknown subject filter mode %q", models.ErrInvalidConfig, filterMode)
	}
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	x := &BunIndex{db: db, dim: dim, filterMode: filterMode}
	if err := x.init(ctx); err != nil {
		return nil, err
	}
	return x, nil
}

func (x *BunIndex) init(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
		id text PRIMARY KEY,
		document_id text NOT NULL,
		text text NOT NULL,
		position integer NOT NULL,
		start_offset integer NOT NULL,
		end_offset integer NOT NULL,
		subject text,
		title text,
		seq bigserial,
		embedding vector(%d) NOT NULL
	)`, x.dim)
	if _, err := x.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create chunks table: %w", err)
	}
	count, err := x.db.NewSelect().Model((*chunkRow)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}
	x.size.Store(int64(count))
	return nil
}

func (x *BunIndex) Insert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]chunkRow, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Vector) != x.dim {
			return fmt.Errorf("%w: chunk %s has %d dimensions, index expects %d", models.ErrDimensionMismatch, chunk.ID, len(chunk.Vector), x.dim)
		}
		rows = append(rows, chunkRow{
			ID:          chunk.ID,
			DocumentID:  chunk.DocumentID,
			Text:        chunk.Text,
			Position:    chunk.Position,
			StartOffset: chunk.StartOffset,
			EndOffset:   chunk.EndOffset,
			Subject:     chunk.Subject,
			Title:       chunk.Title,
			Embedding:   vectorLiteral(chunk.Vector),
		})
	}
	res, err := x.db.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	// Conflicting ids are skipped, so count what actually landed.
	if n, err := res.RowsAffected(); err == nil {
		x.size.Add(n)
	} else {
		x.size.Add(int64(len(rows)))
	}
	return nil
}

func (x *BunIndex) Search(ctx context.Context, query []float32, k int, subject string) ([]models.RetrievalResult, error) {
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

	limit := k
	q := x.db.NewSelect().Model((*chunkRow)(nil)).
		ColumnExpr("c.*").
		ColumnExpr("c.embedding <=> ? AS distance", vectorLiteral(query)).
		OrderExpr("distance ASC, seq ASC")
	if subject != "" {
		if x.filterMode == config.FilterModeHard {
			q = q.Where("c.subject = ?", subject)
		} else {
			// Soft mode demotes after fetching a wider candidate set.
			limit = 2 * k
		}
	}
	var rows []chunkRow
	if err := q.Limit(limit).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	results := make([]models.RetrievalResult, 0, len(rows))
	for _, row := range rows {
		score := clampScore(1 - row.Distance)
		if subject != "" && x.filterMode == config.FilterModeSoft && row.Subject != subject {
			score *= softDemotion
		}
		results = append(results, models.RetrievalResult{Chunk: rowToChunk(row), Score: score})
	}
	if subject != "" && x.filterMode == config.FilterModeSoft {
		sortByScoreStable(results)
	}
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (x *BunIndex) Size() int {
	return int(x.size.Load())
}

func (x *BunIndex) ExportEntries(ctx context.Context) ([]byte, error) {
	var rows []chunkRow
	if err := x.db.NewSelect().Model(&rows).OrderExpr("seq ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}
	entries := make([]models.Chunk, len(rows))
	for i, row := range rows {
		entries[i] = rowToChunk(row)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize index entries: %w", err)
	}
	return data, nil
}

func (x *BunIndex) ImportEntries(ctx context.Context, data []byte) error {
	var entries []models.Chunk
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to deserialize index entries: %w", err)
	}
	return x.Insert(ctx, entries)
}

func rowToChunk(row chunkRow) models.Chunk {
	return models.Chunk{
		ID:          row.ID,
		DocumentID:  row.DocumentID,
		Text:        row.Text,
		Position:    row.Position,
		StartOffset: row.StartOffset,
		EndOffset:   row.EndOffset,
		Subject:     row.Subject,
		Title:       row.Title,
		Vector:      parseVectorLiteral(row.Embedding),
	}
}

// vectorLiteral renders a vector in pgvector's input format.
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func parseVectorLiteral(s string) []float32 {
	s = strings.Trim(s, "[]")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	vec := make([]float32, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			continue
		}
		vec = append(vec, float32(v))
	}
	return vec
}

func sortByScoreStable(results []models.RetrievalResult) {
	// Rows arrive distance-ordered; a stable re-sort on the demoted
	// scores preserves that order for ties.
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}
