package whatsapp

import (
	"encoding/json"
	"fmt"
	"net/http"

	errx "github.com/terrainnova-ai/server/internal/core/error"
)

// Message types delivered by the platform.
const (
	TypeText     = "text"
	TypeImage    = "image"
	TypeDocument = "document"
	TypeAudio    = "audio"
	TypeVoice    = "voice"
	TypeVideo    = "video"
)

// Payload is the webhook delivery envelope.
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string         `json:"messaging_product"`
	Contacts         []Contact      `json:"contacts"`
	Messages         []RawMessage   `json:"messages"`
	Statuses         []StatusUpdate `json:"statuses"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type RawMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Image    *MediaPayload `json:"image,omitempty"`
	Document *MediaPayload `json:"document,omitempty"`
	Audio    *MediaPayload `json:"audio,omitempty"`
	Voice    *MediaPayload `json:"voice,omitempty"`
	Video    *MediaPayload `json:"video,omitempty"`
}

type MediaPayload struct {
	ID       string `json:"id"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// StatusUpdate reports delivery state of an outbound message.
type StatusUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
}

// InboundMessage is one customer message flattened out of a delivery.
type InboundMessage struct {
	ID        string        `json:"id"`
	From      string        `json:"from"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      string        `json:"text,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
	Contact   *Contact      `json:"contact,omitempty"`
}

// IsText reports whether the message carries a non-empty text body.
func (m InboundMessage) IsText() bool {
	return m.Type == TypeText && m.Text != ""
}

// ParseWebhook decodes a delivery and flattens every message it contains.
// Deliveries without messages (status updates) yield an empty slice.
func ParseWebhook(body []byte) ([]InboundMessage, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, errx.New(fmt.Errorf("decode webhook: %w", err), http.StatusBadRequest, "invalid webhook payload").WithKind(errx.ErrInvalidInput)
	}
	return p.Messages(), nil
}

// Messages walks entry[].changes[].value.messages[].
func (p Payload) Messages() []InboundMessage {
	var out []InboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			var contact *Contact
			if len(change.Value.Contacts) > 0 {
				c := change.Value.Contacts[0]
				contact = &c
			}
			for _, raw := range change.Value.Messages {
				msg := InboundMessage{
					ID:        raw.ID,
					From:      raw.From,
					Timestamp: raw.Timestamp,
					Type:      raw.Type,
					Contact:   contact,
				}
				switch raw.Type {
				case TypeText:
					if raw.Text != nil {
						msg.Text = raw.Text.Body
					}
				case TypeImage:
					msg.Media = raw.Image
				case TypeDocument:
					msg.Media = raw.Document
				case TypeAudio:
					msg.Media = raw.Audio
				case TypeVoice:
					msg.Media = raw.Voice
				case TypeVideo:
					msg.Media = raw.Video
				}
				out = append(out, msg)
			}
		}
	}
	return out
}
