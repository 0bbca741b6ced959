package chat_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrainnova-ai/server/internal/catalog"
	"github.com/terrainnova-ai/server/internal/catalog/catalogtest"
	"github.com/terrainnova-ai/server/internal/chat"
	"github.com/terrainnova-ai/server/internal/conversations"
	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
	"github.com/terrainnova-ai/server/internal/repo"
	"github.com/terrainnova-ai/server/internal/whatsapp"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	history [][]model.Turn
}

func (f *fakeGenerator) Generate(_ context.Context, history []model.Turn, _ string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, history)
	return f.reply
}

type sent struct {
	kind, to, body string
}

type fakeMessenger struct {
	mu         sync.Mutex
	configured bool
	sendErr    error
	sent       []sent
}

func (f *fakeMessenger) IsConfigured() bool { return f.configured }

func (f *fakeMessenger) record(s sent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
}

func (f *fakeMessenger) SendText(_ context.Context, to, body string) (*whatsapp.SendResult, error) {
	f.record(sent{kind: "text", to: to, body: body})
	return &whatsapp.SendResult{}, f.sendErr
}

func (f *fakeMessenger) SendMedia(_ context.Context, to, mediaType, link, _ string) (*whatsapp.SendResult, error) {
	f.record(sent{kind: mediaType, to: to, body: link})
	return &whatsapp.SendResult{}, nil
}

func (f *fakeMessenger) MarkAsRead(_ context.Context, id string) error {
	f.record(sent{kind: "read", body: id})
	return nil
}

func newService(gen chat.Generator, images chat.ImageFinder, messenger chat.Messenger) (*chat.Service, *conversations.Store) {
	store := conversations.NewStore(nil, repo.NewMemoryContextRepository(time.Hour, 20))
	return chat.NewService(store, gen, images, messenger, chat.Config{MaxTurns: 20, ReplyTimeout: time.Second}), store
}

func TestReplyFirstMessage(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{reply: "¡Hola! Bienvenido a TerraINNOVA"}
	svc, store := newService(gen, nil, nil)

	require.Empty(t, store.Get(ctx, "573000000000"))

	out, err := svc.Reply(ctx, "573000000000", "Hola")
	require.NoError(t, err)
	assert.Equal(t, "¡Hola! Bienvenido a TerraINNOVA", out.Reply)
	assert.Equal(t, "573000000000", out.UserID)
	assert.Equal(t, 2, out.ContextLength)
	assert.Nil(t, out.ImageURL)

	require.Len(t, gen.history, 1)
	assert.Empty(t, gen.history[0])

	turns := store.Get(ctx, "573000000000")
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, "Hola", turns[0].Content)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
	assert.Equal(t, "¡Hola! Bienvenido a TerraINNOVA", turns[1].Content)
}

func TestReplyCarriesHistoryAndImage(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{reply: "Te recomiendo el Compost Premium"}
	images := catalog.NewService(catalogtest.Sample(), "Bs")
	svc, _ := newService(gen, images, nil)

	_, err := svc.Reply(ctx, "u1", "Hola")
	require.NoError(t, err)
	out, err := svc.Reply(ctx, "u1", "¿qué compost tienen?")
	require.NoError(t, err)

	assert.Equal(t, 4, out.ContextLength)
	require.Len(t, gen.history, 2)
	assert.Len(t, gen.history[1], 2)
	require.NotNil(t, out.ImageURL)
	assert.Equal(t, "https://cdn.terrainnova.bo/premium.jpg", *out.ImageURL)
}

func TestReplyValidation(t *testing.T) {
	svc, _ := newService(&fakeGenerator{reply: "x"}, nil, nil)

	_, err := svc.Reply(context.Background(), "u1", "   ")
	assert.ErrorIs(t, err, errx.ErrInvalidInput)
	_, err = svc.Reply(context.Background(), "", "Hola")
	assert.ErrorIs(t, err, errx.ErrInvalidInput)
}

func TestClearContext(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(&fakeGenerator{reply: "x"}, nil, nil)

	_, err := svc.Reply(ctx, "u1", "Hola")
	require.NoError(t, err)
	require.Len(t, svc.Context(ctx, "u1"), 2)

	require.NoError(t, svc.ClearContext(ctx, "u1"))
	assert.Empty(t, svc.Context(ctx, "u1"))
}

const textDelivery = `{"entry":[{"changes":[{"value":{"messages":[{"id":"wamid.1","from":"573000000000","timestamp":"1700000000","type":"text","text":{"body":"Hola"}}]}}]}]}`

func TestHandleWebhookAnswersText(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &fakeGenerator{reply: "¡Hola!"}
	messenger := &fakeMessenger{configured: true}
	svc, store := newService(gen, nil, messenger)

	res, err := svc.HandleWebhook(ctx, []byte(textDelivery))
	require.NoError(t, err)
	// request finished; background work must keep going
	cancel()
	svc.Wait()

	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, 1, res.Accepted)
	assert.Equal(t, "wamid.1", res.MessageID)

	assert.Equal(t, []sent{
		{kind: "read", body: "wamid.1"},
		{kind: "text", to: "573000000000", body: "¡Hola!"},
	}, messenger.sent)

	turns := store.Get(context.Background(), "573000000000")
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, model.RoleAssistant, turns[1].Role)
}

func TestHandleWebhookIgnoresNonText(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	messenger := &fakeMessenger{configured: true}
	svc, _ := newService(gen, nil, messenger)

	body := `{"entry":[{"changes":[{"value":{"messages":[{"id":"wamid.2","from":"573000000000","type":"image","image":{"id":"m1"}}]}}]}]}`
	res, err := svc.HandleWebhook(context.Background(), []byte(body))
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, "ignored", res.Status)
	assert.Equal(t, 1, res.Ignored)
	assert.Zero(t, res.Accepted)
	assert.Empty(t, gen.history)
	assert.Empty(t, messenger.sent)
}

func TestHandleWebhookWithoutMessaging(t *testing.T) {
	gen := &fakeGenerator{reply: "¡Hola!"}
	svc, store := newService(gen, nil, &fakeMessenger{})

	_, err := svc.HandleWebhook(context.Background(), []byte(textDelivery))
	require.NoError(t, err)
	svc.Wait()

	assert.Len(t, store.Get(context.Background(), "573000000000"), 2)
}

func TestHandleWebhookSendFailureKeepsContext(t *testing.T) {
	gen := &fakeGenerator{reply: "¡Hola!"}
	messenger := &fakeMessenger{configured: true, sendErr: errors.New("boom")}
	svc, store := newService(gen, nil, messenger)

	_, err := svc.HandleWebhook(context.Background(), []byte(textDelivery))
	require.NoError(t, err)
	svc.Wait()

	assert.Len(t, store.Get(context.Background(), "573000000000"), 2)
}

func TestHandleWebhookInvalidPayload(t *testing.T) {
	svc, _ := newService(&fakeGenerator{}, nil, nil)

	_, err := svc.HandleWebhook(context.Background(), []byte("not json"))
	assert.ErrorIs(t, err, errx.ErrInvalidInput)
}

// slowGenerator stalls on one message and records call order and history size.
type slowGenerator struct {
	mu      sync.Mutex
	slow    string
	delay   time.Duration
	order   []string
	history map[string]int
}

func (g *slowGenerator) Generate(_ context.Context, history []model.Turn, message string) string {
	if message == g.slow {
		time.Sleep(g.delay)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.order = append(g.order, message)
	g.history[message] = len(history)
	return "re: " + message
}

func textFrom(id, from, body string) []byte {
	return []byte(fmt.Sprintf(`{"entry":[{"changes":[{"value":{"messages":[{"id":%q,"from":%q,"type":"text","text":{"body":%q}}]}}]}]}`, id, from, body))
}

func TestHandleWebhookKeepsArrivalOrderPerUser(t *testing.T) {
	ctx := context.Background()
	gen := &slowGenerator{slow: "primero", delay: 200 * time.Millisecond, history: map[string]int{}}
	svc, store := newService(gen, nil, &fakeMessenger{configured: true})

	_, err := svc.HandleWebhook(ctx, textFrom("wamid.1", "573000000000", "primero"))
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = svc.HandleWebhook(ctx, textFrom("wamid.2", "573000000000", "segundo"))
	require.NoError(t, err)
	_, err = svc.HandleWebhook(ctx, textFrom("wamid.3", "573111111111", "hola"))
	require.NoError(t, err)
	svc.Wait()

	var contents []string
	for _, turn := range store.Get(ctx, "573000000000") {
		contents = append(contents, turn.Content)
	}
	assert.Equal(t, []string{"primero", "re: primero", "segundo", "re: segundo"}, contents)
	// the second message sees the first exchange
	assert.Equal(t, 2, gen.history["segundo"])
	// other senders are not held up by a slow reply
	assert.Equal(t, []string{"hola", "primero", "segundo"}, gen.order)
	assert.Len(t, store.Get(ctx, "573111111111"), 2)
}

func TestHandleWebhookRestartsWorkerAfterDrain(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{reply: "ok"}
	svc, store := newService(gen, nil, nil)

	for i := range 3 {
		_, err := svc.HandleWebhook(ctx, textFrom(fmt.Sprintf("wamid.%d", i), "u1", fmt.Sprintf("msg %d", i)))
		require.NoError(t, err)
		svc.Wait()
	}

	turns := store.Get(ctx, "u1")
	require.Len(t, turns, 6)
	assert.Equal(t, "msg 0", turns[0].Content)
	assert.Equal(t, "msg 2", turns[4].Content)
}
