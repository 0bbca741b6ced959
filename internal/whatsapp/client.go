package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

const maxErrorBody = 4 << 10

// Media types accepted by SendMedia.
var mediaTypes = map[string]struct{}{
	TypeImage:    {},
	TypeVideo:    {},
	TypeDocument: {},
}

// APIError captures a non-2xx response from the Graph API.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// SendResult is the Graph API answer to a message send.
type SendResult struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// MessageID returns the id of the first sent message, if any.
func (r *SendResult) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

// Client talks to the WhatsApp Business Cloud API.
type Client struct {
	cfg        model.WhatsAppConfig
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(cfg model.WhatsAppConfig, opts ...Option) *Client {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.cfg.IsConfigured()
}

// AppSecret is the key deliveries are signed with.
func (c *Client) AppSecret() string {
	return c.cfg.AppSecret
}

// VerifyToken is the secret expected during the subscription handshake.
func (c *Client) VerifyToken() string {
	return c.cfg.VerifyToken
}

func (c *Client) phoneURL() string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	if base == "" {
		base = "https://graph.facebook.com"
	}
	version := c.cfg.APIVersion
	if version == "" {
		version = "v18.0"
	}
	return fmt.Sprintf("%s/%s/%s", base, version, c.cfg.PhoneNumberID)
}

func (c *Client) SendText(ctx context.Context, to, body string) (*SendResult, error) {
	return c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              TypeText,
		"text":              map[string]any{"body": body},
	})
}

// SendMedia sends an image, video or document by public link.
func (c *Client) SendMedia(ctx context.Context, to, mediaType, link, caption string) (*SendResult, error) {
	if _, ok := mediaTypes[mediaType]; !ok {
		return nil, errx.InvalidInput("media_type must be 'image', 'video' or 'document'")
	}
	media := map[string]any{"link": link}
	if caption != "" {
		media["caption"] = caption
	}
	return c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              mediaType,
		mediaType:           media,
	})
}

func (c *Client) SendTemplate(ctx context.Context, to, name, languageCode string) (*SendResult, error) {
	if languageCode == "" {
		languageCode = "es"
	}
	return c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]any{
			"name":     name,
			"language": map[string]any{"code": languageCode},
		},
	})
}

func (c *Client) MarkAsRead(ctx context.Context, messageID string) error {
	_, err := c.send(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	})
	return err
}

// Ping fetches the phone number resource to validate the token.
func (c *Client) Ping(ctx context.Context) error {
	if !c.IsConfigured() {
		return errx.NotConfigured("messaging")
	}
	url := c.phoneURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	_, err = c.do(req, url)
	return err
}

func (c *Client) send(ctx context.Context, payload map[string]any) (*SendResult, error) {
	if !c.IsConfigured() {
		return nil, errx.NotConfigured("messaging")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal request: %w", err)
	}

	url := c.phoneURL() + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	raw, err := c.do(req, url)
	if err != nil {
		return nil, err
	}

	var result SendResult
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, errx.ExternalCallFailed(fmt.Errorf("whatsapp: decode response: %w", err), "messaging request failed")
		}
	}
	return &result, nil
}

func (c *Client) do(req *http.Request, url string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logx.Error().Err(err).Str("url", url).Msg("whatsapp request failed")
		return nil, errx.ExternalCallFailed(fmt.Errorf("whatsapp: %w", err), "messaging request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{StatusCode: resp.StatusCode, URL: url, Body: strings.TrimSpace(string(b))}
		logx.Error().Int("status", resp.StatusCode).Str("url", url).Msg("whatsapp API returned an error")
		return nil, errx.ExternalCallFailed(apiErr, "messaging request failed")
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errx.ExternalCallFailed(fmt.Errorf("whatsapp: read response: %w", err), "messaging request failed")
	}
	return raw, nil
}
