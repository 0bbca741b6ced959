package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
	"github.com/terrainnova-ai/server/internal/whatsapp"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

// Generator produces the assistant reply for a message.
type Generator interface {
	Generate(ctx context.Context, history []model.Turn, message string) string
}

// ImageFinder looks up a product image relevant to an exchange.
type ImageFinder interface {
	ImageFor(ctx context.Context, message, reply string) (string, bool)
}

// Messenger delivers replies to WhatsApp users.
type Messenger interface {
	IsConfigured() bool
	SendText(ctx context.Context, to, body string) (*whatsapp.SendResult, error)
	SendMedia(ctx context.Context, to, mediaType, link, caption string) (*whatsapp.SendResult, error)
	MarkAsRead(ctx context.Context, messageID string) error
}

type Config struct {
	MaxTurns     int
	ReplyTimeout time.Duration
}

// Service runs the conversation flow: load context, ask the model, store the
// exchange, attach a product image when one fits.
type Service struct {
	store     model.ContextStore
	generator Generator
	images    ImageFinder
	messenger Messenger
	cfg       Config
	now       func() time.Time

	mu     sync.Mutex
	queues map[string][]pendingMessage
	wg     sync.WaitGroup
}

func NewService(store model.ContextStore, generator Generator, images ImageFinder, messenger Messenger, cfg Config) *Service {
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = time.Minute
	}
	return &Service{
		store:     store,
		generator: generator,
		images:    images,
		messenger: messenger,
		cfg:       cfg,
		now:       time.Now,
		queues:    make(map[string][]pendingMessage),
	}
}

type Reply struct {
	Reply         string  `json:"reply"`
	UserID        string  `json:"user_id"`
	ContextLength int     `json:"context_length"`
	ImageURL      *string `json:"imagenUrl"`
}

// Reply answers one message from userID and records both turns.
func (s *Service) Reply(ctx context.Context, userID, message string) (*Reply, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errx.InvalidInput("user_id is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, errx.InvalidInput("message must not be empty")
	}

	history := s.store.Get(ctx, userID)
	text := s.generator.Generate(ctx, history, message)

	now := s.now().UTC()
	s.store.Append(ctx, userID, model.UserTurn(message, now), model.AssistantTurn(text, now))

	length := len(history) + 2
	if s.cfg.MaxTurns > 0 {
		length = min(length, s.cfg.MaxTurns)
	}
	out := &Reply{Reply: text, UserID: userID, ContextLength: length}
	if s.images != nil {
		if url, ok := s.images.ImageFor(ctx, message, text); ok {
			out.ImageURL = &url
		}
	}
	return out, nil
}

// Context returns the stored turns of userID.
func (s *Service) Context(ctx context.Context, userID string) []model.Turn {
	return s.store.Get(ctx, userID)
}

// ClearContext forgets the conversation of userID.
func (s *Service) ClearContext(ctx context.Context, userID string) error {
	return s.store.Clear(ctx, userID)
}

// WebhookResult summarizes what a delivery contained.
type WebhookResult struct {
	Status    string `json:"status"`
	Accepted  int    `json:"accepted"`
	Ignored   int    `json:"ignored"`
	MessageID string `json:"message_id,omitempty"`
}

// HandleWebhook accepts a verified delivery. Text messages are answered in the
// background on a context detached from the request, each bounded by the reply
// timeout. Messages from the same sender are answered in arrival order, across
// deliveries. Other message types are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, body []byte) (*WebhookResult, error) {
	msgs, err := whatsapp.ParseWebhook(body)
	if err != nil {
		return nil, err
	}

	res := &WebhookResult{Status: "ok"}
	var texts []whatsapp.InboundMessage
	for _, m := range msgs {
		if !m.IsText() {
			logx.Info().Str("type", m.Type).Str("from", m.From).Msg("ignoring non-text whatsapp message")
			res.Ignored++
			continue
		}
		texts = append(texts, m)
	}
	res.Accepted = len(texts)
	if len(msgs) > 0 {
		res.MessageID = msgs[0].ID
	}
	if len(texts) == 0 {
		if res.Ignored > 0 {
			res.Status = "ignored"
		}
		return res, nil
	}

	detached := context.WithoutCancel(ctx)
	for _, m := range texts {
		s.enqueue(detached, m)
	}
	return res, nil
}

type pendingMessage struct {
	ctx context.Context
	msg whatsapp.InboundMessage
}

// enqueue hands m to the worker of its sender, starting one when none is
// running. A sender never has more than one worker, so its messages are
// answered one at a time in arrival order.
func (s *Service) enqueue(ctx context.Context, m whatsapp.InboundMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, running := s.queues[m.From]
	s.queues[m.From] = append(q, pendingMessage{ctx: ctx, msg: m})
	if running {
		return
	}
	s.wg.Add(1)
	go s.drain(m.From)
}

// drain answers the queued messages of userID until the queue is empty. The
// queue entry is removed under the lock, so a message enqueued concurrently
// either lands before removal or starts a new worker.
func (s *Service) drain(userID string) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		q := s.queues[userID]
		if len(q) == 0 {
			delete(s.queues, userID)
			s.mu.Unlock()
			return
		}
		next := q[0]
		s.queues[userID] = q[1:]
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(next.ctx, s.cfg.ReplyTimeout)
		s.answer(ctx, next.msg)
		cancel()
	}
}

func (s *Service) answer(ctx context.Context, m whatsapp.InboundMessage) {
	log := logx.With().Str("from", m.From).Str("message_id", m.ID).Logger()

	canSend := s.messenger != nil && s.messenger.IsConfigured()
	if canSend && m.ID != "" {
		if err := s.messenger.MarkAsRead(ctx, m.ID); err != nil {
			log.Warn().Err(err).Msg("mark as read failed")
		}
	}

	reply, err := s.Reply(ctx, m.From, m.Text)
	if err != nil {
		log.Error().Err(err).Msg("whatsapp reply failed")
		return
	}
	if !canSend {
		log.Warn().Msg("messaging not configured, reply not delivered")
		return
	}
	if _, err := s.messenger.SendText(ctx, m.From, reply.Reply); err != nil {
		log.Error().Err(err).Msg("send whatsapp reply failed")
		return
	}
	if reply.ImageURL != nil {
		if _, err := s.messenger.SendMedia(ctx, m.From, whatsapp.TypeImage, *reply.ImageURL, ""); err != nil {
			log.Warn().Err(err).Msg("send product image failed")
		}
	}
	log.Info().Msg("whatsapp reply sent")
}

// Wait blocks until background webhook work has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
