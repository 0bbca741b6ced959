package whatsapp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
	"github.com/terrainnova-ai/server/internal/whatsapp"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newGraphServer(t *testing.T, status int) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")}
		if r.Body != nil && r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 300 {
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","code":190}}`))
			return
		}
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","contacts":[{"input":"573000000000","wa_id":"573000000000"}],"messages":[{"id":"wamid.out"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newClient(baseURL string) *whatsapp.Client {
	return whatsapp.NewClient(model.WhatsAppConfig{
		AccessToken:   "token",
		PhoneNumberID: "12345",
		VerifyToken:   "verify-me",
		AppSecret:     appSecret,
		BaseURL:       baseURL,
		APIVersion:    "v18.0",
		Timeout:       time.Second,
	})
}

func TestClientSendText(t *testing.T) {
	srv, calls := newGraphServer(t, http.StatusOK)
	c := newClient(srv.URL)

	res, err := c.SendText(context.Background(), "573000000000", "¡Hola!")
	require.NoError(t, err)
	assert.Equal(t, "wamid.out", res.MessageID())

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/v18.0/12345/messages", call.path)
	assert.Equal(t, "Bearer token", call.auth)
	assert.Equal(t, "text", call.body["type"])
	assert.Equal(t, map[string]any{"body": "¡Hola!"}, call.body["text"])
}

func TestClientSendMedia(t *testing.T) {
	srv, calls := newGraphServer(t, http.StatusOK)
	c := newClient(srv.URL)

	_, err := c.SendMedia(context.Background(), "573000000000", "image", "https://cdn.example/p.jpg", "Compost")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"link": "https://cdn.example/p.jpg", "caption": "Compost"}, (*calls)[0].body["image"])

	_, err = c.SendMedia(context.Background(), "573000000000", "sticker", "https://cdn.example/p.webp", "")
	assert.ErrorIs(t, err, errx.ErrInvalidInput)
	assert.Len(t, *calls, 1)
}

func TestClientTemplateAndMarkAsRead(t *testing.T) {
	srv, calls := newGraphServer(t, http.StatusOK)
	c := newClient(srv.URL)

	_, err := c.SendTemplate(context.Background(), "573000000000", "hello_world", "")
	require.NoError(t, err)
	require.NoError(t, c.MarkAsRead(context.Background(), "wamid.1"))

	require.Len(t, *calls, 2)
	tpl := (*calls)[0].body["template"].(map[string]any)
	assert.Equal(t, "hello_world", tpl["name"])
	assert.Equal(t, map[string]any{"code": "es"}, tpl["language"])
	assert.Equal(t, "read", (*calls)[1].body["status"])
	assert.Equal(t, "wamid.1", (*calls)[1].body["message_id"])
}

func TestClientAPIError(t *testing.T) {
	srv, _ := newGraphServer(t, http.StatusUnauthorized)
	c := newClient(srv.URL)

	_, err := c.SendText(context.Background(), "573000000000", "hola")
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrExternalCall)

	var apiErr *whatsapp.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid OAuth")
}

func TestClientPing(t *testing.T) {
	srv, calls := newGraphServer(t, http.StatusOK)
	c := newClient(srv.URL)

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, http.MethodGet, (*calls)[0].method)
	assert.Equal(t, "/v18.0/12345", (*calls)[0].path)
}

func TestClientNotConfigured(t *testing.T) {
	c := whatsapp.NewClient(model.WhatsAppConfig{})

	assert.False(t, c.IsConfigured())
	_, err := c.SendText(context.Background(), "573000000000", "hola")
	assert.ErrorIs(t, err, errx.ErrNotConfigured)
	assert.ErrorIs(t, c.Ping(context.Background()), errx.ErrNotConfigured)
}
