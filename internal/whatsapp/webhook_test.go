package whatsapp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/whatsapp"
)

func TestParseWebhookText(t *testing.T) {
	msgs, err := whatsapp.ParseWebhook(delivery)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	m := msgs[0]
	assert.Equal(t, "wamid.1", m.ID)
	assert.Equal(t, "573000000000", m.From)
	assert.Equal(t, "1700000000", m.Timestamp)
	assert.True(t, m.IsText())
	assert.Equal(t, "Hola", m.Text)
	assert.Nil(t, m.Media)
}

func TestParseWebhookMixedTypes(t *testing.T) {
	body := []byte(`{"entry":[{"changes":[{"value":{
		"contacts":[{"wa_id":"573000000000","profile":{"name":"Ana"}}],
		"messages":[
			{"id":"a","from":"573000000000","type":"image","image":{"id":"media-1","caption":"mi jardín"}},
			{"id":"b","from":"573000000000","type":"document","document":{"id":"media-2","filename":"guia.pdf"}},
			{"id":"c","from":"573000000000","type":"voice","voice":{"id":"media-3"}},
			{"id":"d","from":"573000000000","type":"text","text":{"body":"¿precio?"}}
		]}}]}]}`)

	msgs, err := whatsapp.ParseWebhook(body)
	require.NoError(t, err)
	require.Len(t, msgs, 4)

	assert.Equal(t, whatsapp.TypeImage, msgs[0].Type)
	assert.False(t, msgs[0].IsText())
	require.NotNil(t, msgs[0].Media)
	assert.Equal(t, "media-1", msgs[0].Media.ID)
	assert.Equal(t, "mi jardín", msgs[0].Media.Caption)

	assert.Equal(t, "guia.pdf", msgs[1].Media.Filename)
	assert.Equal(t, "media-3", msgs[2].Media.ID)
	assert.True(t, msgs[3].IsText())

	for _, m := range msgs {
		require.NotNil(t, m.Contact)
		assert.Equal(t, "Ana", m.Contact.Profile.Name)
	}
}

func TestParseWebhookStatusOnly(t *testing.T) {
	msgs, err := whatsapp.ParseWebhook([]byte(`{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.1","status":"delivered"}]}}]}]}`))
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestParseWebhookInvalid(t *testing.T) {
	_, err := whatsapp.ParseWebhook([]byte(`{"entry":`))
	require.Error(t, err)
	assert.ErrorIs(t, err, errx.ErrInvalidInput)
	assert.Equal(t, 400, errx.StatusOf(err))
}
