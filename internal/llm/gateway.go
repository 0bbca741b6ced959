package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/terrainnova-ai/server/internal/conversations"
	"github.com/terrainnova-ai/server/internal/model"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

const (
	nodeSystemPrompt = "system_prompt"
	nodeChatModel    = "chat_model"
)

// CatalogSource supplies live catalog data for prompts.
type CatalogSource interface {
	PromptListing(ctx context.Context) (model.CatalogListing, error)
	Snippets(ctx context.Context, message string) []string
}

type GatewayConfig struct {
	ModelName   string
	Prompt      model.PromptConfig
	PromptTurns int
	Timeout     time.Duration
	Catalog     CatalogSource
}

// Gateway turns a customer message plus prior turns into an assistant reply.
// It never returns an error: failures are logged and answered with a fixed
// fallback text.
type Gateway struct {
	runnable compose.Runnable[map[string]any, *schema.Message]
	handler  einocb.Handler
	cfg      GatewayConfig
}

// NewGateway compiles the prompt and chat model into one runnable chain. A nil
// chat model yields a gateway that only answers with the out-of-service text.
func NewGateway(ctx context.Context, chatModel einomodel.BaseChatModel, cfg GatewayConfig) (*Gateway, error) {
	g := &Gateway{handler: newObservers(), cfg: cfg}
	if chatModel == nil {
		return g, nil
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.
		AppendChatTemplate(newChatTemplate(), compose.WithNodeName(nodeSystemPrompt)).
		AppendChatModel(chatModel, compose.WithNodeName(nodeChatModel))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile reply chain: %w", err)
	}
	g.runnable = runnable
	return g, nil
}

func (g *Gateway) IsConfigured() bool {
	return g != nil && g.runnable != nil
}

// Generate answers message given the conversation so far.
func (g *Gateway) Generate(ctx context.Context, history []model.Turn, message string) string {
	if !g.IsConfigured() {
		logx.Warn().Msg("model gateway not configured, answering with fallback")
		return g.outOfServiceText()
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	var listing model.CatalogListing
	var snippets []string
	if g.cfg.Catalog != nil {
		l, err := g.cfg.Catalog.PromptListing(ctx)
		if err != nil {
			logx.Debug().Err(err).Msg("catalog unavailable for system prompt")
		} else {
			listing = l
		}
		snippets = g.cfg.Catalog.Snippets(ctx, message)
	}

	recent := conversations.RecentTurns(history, g.cfg.PromptTurns)
	vars := promptVars(g.cfg.Prompt, listing, toSchemaMessages(recent), enrichMessage(message, snippets))

	out, err := g.runnable.Invoke(ctx, vars, compose.WithCallbacks(g.handler))
	if err != nil {
		logx.Error().Err(err).Str("model", g.cfg.ModelName).Msg("model call failed, answering with fallback")
		return g.technicalProblemText()
	}
	g.logUsage(out)

	text := ""
	if out != nil {
		text = strings.TrimSpace(out.Content)
	}
	if text == "" {
		logx.Warn().Str("model", g.cfg.ModelName).Msg("model returned an empty reply")
		return g.rephraseText()
	}
	return text
}

func (g *Gateway) logUsage(out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(g.cfg.ModelName))
	logx.Debug().
		Str("model", g.cfg.ModelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

func (g *Gateway) outOfServiceText() string {
	return "⚠️ Disculpa, nuestro asistente está temporalmente fuera de servicio. Por favor, contáctanos directamente en " + g.contact()
}

func (g *Gateway) technicalProblemText() string {
	return "🔧 Disculpa, hubo un problema técnico. Para asistencia inmediata, contáctanos en " + g.contact() + " o llámanos para soporte 24/7."
}

func (g *Gateway) rephraseText() string {
	return "🤖 Disculpa, estoy procesando tu consulta. ¿Podrías reformular la pregunta? Si necesitas ayuda inmediata, contáctanos en " + g.contact()
}

func (g *Gateway) contact() string {
	if g == nil || g.cfg.Prompt.Contact == "" {
		return "terrainnova@gmail.com"
	}
	return g.cfg.Prompt.Contact
}
