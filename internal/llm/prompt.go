package llm

import (
	_ "embed"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/terrainnova-ai/server/internal/model"
)

//go:embed template/system_prompt.txt
var systemPrompt string

const (
	varHistory = "History"
	varMessage = "Message"
)

// newChatTemplate builds the prompt: system instructions, prior turns, then the
// enriched customer message.
func newChatTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(systemPrompt),
		schema.MessagesPlaceholder(varHistory, true),
		schema.UserMessage("{{."+varMessage+"}}"),
	)
}

func promptVars(cfg model.PromptConfig, listing model.CatalogListing, history []*schema.Message, message string) map[string]any {
	return map[string]any{
		"BusinessName": cfg.BusinessName,
		"Location":     cfg.Location,
		"Contact":      cfg.Contact,
		"Currency":     cfg.Currency,
		"Products":     listing.Products,
		"Categories":   listing.Categories,
		varHistory:     history,
		varMessage:     message,
	}
}

func toSchemaMessages(turns []model.Turn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case model.RoleUser:
			out = append(out, schema.UserMessage(t.Content))
		case model.RoleAssistant:
			out = append(out, schema.AssistantMessage(t.Content, nil))
		}
	}
	return out
}

// enrichMessage appends catalog snippets to the customer message.
func enrichMessage(message string, snippets []string) string {
	if len(snippets) == 0 {
		return message
	}
	var b strings.Builder
	b.WriteString(message)
	for _, s := range snippets {
		b.WriteString("\n\n")
		b.WriteString(s)
	}
	return b.String()
}
