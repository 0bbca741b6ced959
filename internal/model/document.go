package model

// DocumentChunk is one embedded slice of an ingested document.
type DocumentChunk struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"doc_id"`
	Index      int            `json:"chunk_index"`
	Content    string         `json:"content"`
	Embedding  []float32      `json:"-"`
	Metadata   map[string]any `json:"metadata"`
}

// SearchResult is a chunk returned by similarity search.
type SearchResult struct {
	DocID      string         `json:"doc_id"`
	ChunkIndex int            `json:"chunk_index"`
	Content    string         `json:"content"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata"`
}

// DocumentSummary describes an ingested document.
type DocumentSummary struct {
	DocID    string `json:"doc_id"`
	DocName  string `json:"doc_name"`
	Filename string `json:"filename"`
	UserID   string `json:"user_id"`
	Chunks   int    `json:"chunks"`
}
