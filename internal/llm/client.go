package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/terrainnova-ai/server/internal/model"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

// NewClient creates the Gemini API client shared by chat, embeddings and the
// health probe.
func NewClient(ctx context.Context, cfg model.GeminiConfig) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModel creates the Gemini chat model used for customer replies.
func NewChatModel(ctx context.Context, client *genai.Client, cfg model.GeminiConfig) (*gemini.ChatModel, error) {
	temperature := cfg.Temperature
	maxTokens := cfg.MaxTokens

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", cfg.Model).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}
	return chatModel, nil
}

// ModelProbe checks that the configured model is reachable.
type ModelProbe struct {
	client *genai.Client
	model  string
}

func NewModelProbe(client *genai.Client, modelName string) *ModelProbe {
	return &ModelProbe{client: client, model: modelName}
}

func (p *ModelProbe) IsConfigured() bool {
	return p != nil && p.client != nil
}

func (p *ModelProbe) Ping(ctx context.Context) error {
	if _, err := p.client.Models.Get(ctx, p.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", p.model, err)
	}
	return nil
}
