package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

// maxEmbedBatch is the most inputs the API accepts per request.
const maxEmbedBatch = 100

var _ embedding.Embedder = (*Embedder)(nil)

// Embedder produces text embeddings with the Gemini embedding model.
type Embedder struct {
	client   *genai.Client
	model    string
	dims     int
	maxChars int
}

func NewEmbedder(client *genai.Client, cfg model.GeminiConfig) *Embedder {
	return &Embedder{
		client:   client,
		model:    cfg.EmbeddingModel,
		dims:     cfg.EmbeddingDims,
		maxChars: cfg.EmbeddingMaxChars,
	}
}

func (e *Embedder) IsConfigured() bool {
	return e != nil && e.client != nil
}

// Dimensions is the length of every returned vector.
func (e *Embedder) Dimensions() int {
	return e.dims
}

func (e *Embedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if !e.IsConfigured() {
		return nil, errx.NotConfigured("embedding model")
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, genai.NewContentFromText(truncateInput(text, e.maxChars), genai.RoleUser))
		}

		cfg := &genai.EmbedContentConfig{}
		if e.dims > 0 {
			dims := int32(e.dims)
			cfg.OutputDimensionality = &dims
		}
		resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
		if err != nil {
			logx.Error().Err(err).Str("model", e.model).Int("inputs", len(contents)).Msg("embedding request failed")
			return nil, errx.ExternalCallFailed(err, "embedding request failed")
		}
		if len(resp.Embeddings) != len(contents) {
			return nil, errx.ExternalCallFailed(
				fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), len(contents)),
				"embedding request failed")
		}
		for i, emb := range resp.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, errx.ExternalCallFailed(fmt.Errorf("empty embedding at index %d", start+i), "embedding request failed")
			}
			out = append(out, toFloat64(emb.Values))
		}
	}
	return out, nil
}

// truncateInput trims whitespace and caps the input at max runes.
func truncateInput(text string, max int) string {
	text = strings.TrimSpace(text)
	if max <= 0 {
		return text
	}
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max])
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
