package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

const previewRunes = 500

var (
	ErrInvalidPDF = errx.InvalidInput("file is not a valid PDF")
	ErrNoText     = errx.InvalidInput("could not extract text from the PDF")
)

// VectorStore persists embedded chunks and answers nearest-neighbour queries.
type VectorStore interface {
	Upsert(ctx context.Context, userID string, chunks []model.DocumentChunk) error
	Search(ctx context.Context, vector []float32, topK int, threshold float64) ([]model.SearchResult, error)
	ListDocuments(ctx context.Context, userID string) ([]model.DocumentSummary, error)
	DeleteDocument(ctx context.Context, docID string) (int64, error)
	Ping(ctx context.Context) error
}

type Config struct {
	ChunkSize      int
	DefaultTopK    int
	MaxTopK        int
	ScoreThreshold float64
}

// Service indexes uploaded documents and searches them. Both the embedder and
// the vector store are required; without either the service reports itself as
// not configured.
type Service struct {
	extractor Extractor
	embedder  embedding.Embedder
	store     VectorStore
	cfg       Config
}

func NewService(extractor Extractor, embedder embedding.Embedder, store VectorStore, cfg Config) *Service {
	if extractor == nil {
		extractor = PDFExtractor{}
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 3
	}
	if cfg.MaxTopK < cfg.DefaultTopK {
		cfg.MaxTopK = cfg.DefaultTopK
	}
	return &Service{extractor: extractor, embedder: embedder, store: store, cfg: cfg}
}

func (s *Service) IsConfigured() bool {
	return s != nil && s.embedder != nil && s.store != nil
}

// Ping checks the vector index.
func (s *Service) Ping(ctx context.Context) error {
	if s == nil || s.store == nil {
		return errx.NotConfigured("vector index")
	}
	return s.store.Ping(ctx)
}

type IngestRequest struct {
	UserID   string
	DocName  string
	Filename string
	Data     []byte
}

type IngestResult struct {
	DocID      string `json:"doc_id"`
	Filename   string `json:"filename"`
	DocName    string `json:"doc_name"`
	UserID     string `json:"user_id"`
	Chunks     int    `json:"chunks"`
	Pages      int    `json:"pages"`
	TextLength int    `json:"text_length"`
	Preview    string `json:"extracted_text"`
}

// Ingest extracts, chunks, embeds and stores a document, returning the number of
// chunks indexed.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if !s.IsConfigured() {
		return nil, errx.NotConfigured("document index")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, errx.InvalidInput("user_id is required")
	}

	ext, err := s.extractor.Extract(req.Data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(ext.Text) == "" {
		return nil, ErrNoText
	}

	texts := Chunk(ext.Text, s.cfg.ChunkSize)
	vectors, err := s.embedder.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, errx.ExternalCallFailed(
			fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(texts)), "embedding request failed")
	}

	docName := req.DocName
	if docName == "" {
		docName = req.Filename
	}
	docID := uuid.NewString()
	uploadedAt := time.Now().UTC().Format(time.RFC3339)

	chunks := make([]model.DocumentChunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, model.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: docID,
			Index:      i,
			Content:    text,
			Embedding:  toFloat32(vectors[i]),
			Metadata: map[string]any{
				"user_id":          req.UserID,
				"filename":         req.Filename,
				"doc_name":         docName,
				"pages":            ext.Pages,
				"chunk_count":      len(texts),
				"upload_timestamp": uploadedAt,
			},
		})
	}
	if err := s.store.Upsert(ctx, req.UserID, chunks); err != nil {
		return nil, err
	}

	logx.Info().
		Str("doc_id", docID).
		Str("user_id", req.UserID).
		Int("pages", ext.Pages).
		Int("chunks", len(chunks)).
		Msg("document indexed")

	return &IngestResult{
		DocID:      docID,
		Filename:   req.Filename,
		DocName:    docName,
		UserID:     req.UserID,
		Chunks:     len(chunks),
		Pages:      ext.Pages,
		TextLength: len([]rune(ext.Text)),
		Preview:    preview(ext.Text),
	}, nil
}

// Search embeds the query and returns the closest chunks, highest score first.
// topK <= 0 selects the default; larger values are capped.
func (s *Service) Search(ctx context.Context, query string, topK int) ([]model.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errx.InvalidInput("query must not be empty")
	}
	if !s.IsConfigured() {
		return nil, errx.NotConfigured("document index")
	}
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}
	topK = min(topK, s.cfg.MaxTopK)

	vectors, err := s.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, errx.ExternalCallFailed(fmt.Errorf("got %d embeddings for 1 query", len(vectors)), "embedding request failed")
	}
	return s.store.Search(ctx, toFloat32(vectors[0]), topK, s.cfg.ScoreThreshold)
}

func (s *Service) ListDocuments(ctx context.Context, userID string) ([]model.DocumentSummary, error) {
	if s == nil || s.store == nil {
		return nil, errx.NotConfigured("document index")
	}
	return s.store.ListDocuments(ctx, userID)
}

// DeleteDocument removes a document; a document with no chunks is not found.
func (s *Service) DeleteDocument(ctx context.Context, docID string) (int64, error) {
	if s == nil || s.store == nil {
		return 0, errx.NotConfigured("document index")
	}
	n, err := s.store.DeleteDocument(ctx, docID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errx.NotFound("document not found")
	}
	return n, nil
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "..."
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
