package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
	"github.com/terrainnova-ai/server/pkg/postgres"
)

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type documentChunkRow struct {
	ID         string          `gorm:"column:id;primaryKey"`
	DocID      string          `gorm:"column:doc_id"`
	UserID     string          `gorm:"column:user_id"`
	ChunkIndex int             `gorm:"column:chunk_index"`
	Content    string          `gorm:"column:content"`
	Embedding  pgvector.Vector `gorm:"column:embedding"`
	Metadata   datatypes.JSON  `gorm:"column:metadata"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
}

type chunkSearchRow struct {
	DocID      string         `gorm:"column:doc_id"`
	ChunkIndex int            `gorm:"column:chunk_index"`
	Content    string         `gorm:"column:content"`
	Metadata   datatypes.JSON `gorm:"column:metadata"`
	Score      float64        `gorm:"column:score"`
}

type documentSummaryRow struct {
	DocID    string `gorm:"column:doc_id"`
	DocName  string `gorm:"column:doc_name"`
	Filename string `gorm:"column:filename"`
	UserID   string `gorm:"column:user_id"`
	Chunks   int    `gorm:"column:chunks"`
}

// VectorRepository stores document chunks and their embeddings in a pgvector
// table. The extension and table are created on first use.
type VectorRepository struct {
	db         *gorm.DB
	table      string
	dimensions int

	mu       sync.Mutex
	migrated bool
}

func NewVectorRepository(db *gorm.DB, table string, dimensions int) (*VectorRepository, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid vector table name %q", table)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("invalid vector dimensions %d", dimensions)
	}
	return &VectorRepository{db: db, table: table, dimensions: dimensions}, nil
}

func (r *VectorRepository) migrate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.migrated {
		return nil
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id text PRIMARY KEY,
			doc_id text NOT NULL,
			user_id text NOT NULL DEFAULT '',
			chunk_index integer NOT NULL,
			content text NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata jsonb NOT NULL DEFAULT '{}',
			created_at timestamptz NOT NULL DEFAULT now()
		)`, r.table, r.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_doc_id_idx ON %s (doc_id)`, r.table, r.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_user_id_idx ON %s (user_id)`, r.table, r.table),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errx.DependencyUnavailable(fmt.Errorf("migrate %s: %w", r.table, err), errx.DatabaseErrorMessage)
	}
	r.migrated = true
	return nil
}

// Upsert writes chunks, replacing any with the same id.
func (r *VectorRepository) Upsert(ctx context.Context, userID string, chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.migrate(ctx); err != nil {
		return err
	}

	rows := make([]documentChunkRow, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) != r.dimensions {
			return fmt.Errorf("chunk %d: embedding has %d dimensions, want %d", c.Index, len(c.Embedding), r.dimensions)
		}
		meta, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("chunk %d: marshal metadata: %w", c.Index, err)
		}
		rows = append(rows, documentChunkRow{
			ID:         c.ID,
			DocID:      c.DocumentID,
			UserID:     userID,
			ChunkIndex: c.Index,
			Content:    c.Content,
			Embedding:  pgvector.NewVector(c.Embedding),
			Metadata:   datatypes.JSON(meta),
			CreatedAt:  time.Now().UTC(),
		})
	}

	err := r.db.WithContext(ctx).
		Table(r.table).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return errx.WrapDatabase(err)
	}
	return nil
}

// Search returns the topK chunks whose cosine similarity to vector is at least
// threshold, most similar first.
func (r *VectorRepository) Search(ctx context.Context, vector []float32, topK int, threshold float64) ([]model.SearchResult, error) {
	if err := r.migrate(ctx); err != nil {
		return nil, err
	}

	q := pgvector.NewVector(vector)
	sql := fmt.Sprintf(`SELECT doc_id, chunk_index, content, metadata, 1 - (embedding <=> ?) AS score
		FROM %s
		WHERE 1 - (embedding <=> ?) >= ?
		ORDER BY embedding <=> ?
		LIMIT ?`, r.table)

	var rows []chunkSearchRow
	if err := r.db.WithContext(ctx).Raw(sql, q, q, threshold, q, topK).Scan(&rows).Error; err != nil {
		return nil, errx.WrapDatabase(err)
	}

	out := make([]model.SearchResult, 0, len(rows))
	for _, row := range rows {
		var meta map[string]any
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &meta); err != nil {
				return nil, fmt.Errorf("unmarshal metadata of %s/%d: %w", row.DocID, row.ChunkIndex, err)
			}
		}
		out = append(out, model.SearchResult{
			DocID:      row.DocID,
			ChunkIndex: row.ChunkIndex,
			Content:    row.Content,
			Score:      row.Score,
			Metadata:   meta,
		})
	}
	return out, nil
}

func (r *VectorRepository) ListDocuments(ctx context.Context, userID string) ([]model.DocumentSummary, error) {
	if err := r.migrate(ctx); err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(`SELECT doc_id,
			MAX(metadata->>'doc_name') AS doc_name,
			MAX(metadata->>'filename') AS filename,
			user_id,
			COUNT(*) AS chunks
		FROM %s
		WHERE user_id = ?
		GROUP BY doc_id, user_id
		ORDER BY MIN(created_at)`, r.table)

	var rows []documentSummaryRow
	if err := r.db.WithContext(ctx).Raw(sql, userID).Scan(&rows).Error; err != nil {
		return nil, errx.WrapDatabase(err)
	}
	out := make([]model.DocumentSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.DocumentSummary(row))
	}
	return out, nil
}

// DeleteDocument removes every chunk of a document and reports how many were
// deleted.
func (r *VectorRepository) DeleteDocument(ctx context.Context, docID string) (int64, error) {
	if err := r.migrate(ctx); err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).Exec(fmt.Sprintf(`DELETE FROM %s WHERE doc_id = ?`, r.table), docID)
	if res.Error != nil {
		return 0, errx.WrapDatabase(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *VectorRepository) Ping(ctx context.Context) error {
	return postgres.Ping(ctx, r.db)
}
