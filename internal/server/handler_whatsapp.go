package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/whatsapp"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

const maxWebhookBody = 1 << 20

// verifyWebhook answers the subscription handshake.
func (h *handler) verifyWebhook(c *gin.Context) {
	challenge, ok := whatsapp.VerifyChallenge(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
		h.Messenger.VerifyToken(),
	)
	if !ok {
		logx.Warn().Str("mode", c.Query("hub.mode")).Msg("webhook verification rejected")
		writeErrorStatus(c, http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// receiveWebhook verifies the delivery signature over the raw body before
// anything is parsed.
func (h *handler) receiveWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorStatus(c, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		badRequest(c, "could not read body")
		return
	}
	if !whatsapp.VerifySignature(body, c.GetHeader(whatsapp.SignatureHeader), h.Messenger.AppSecret()) {
		logx.Warn().Msg("webhook signature rejected")
		writeError(c, errx.SignatureInvalid())
		return
	}

	res, err := h.Chat.HandleWebhook(c.Request.Context(), body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type sendMessageRequest struct {
	To      string `json:"to" binding:"required"`
	Message string `json:"message" binding:"required"`
}

func (h *handler) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "'to' and 'message' are required")
		return
	}
	res, err := h.Messenger.SendText(c.Request.Context(), req.To, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "sent",
		"to":                req.To,
		"message":           req.Message,
		"whatsapp_response": res,
	})
}

type sendMediaRequest struct {
	To        string `json:"to" binding:"required"`
	MediaType string `json:"media_type" binding:"required"`
	MediaURL  string `json:"media_url" binding:"required"`
	Caption   string `json:"caption"`
}

func (h *handler) sendMedia(c *gin.Context) {
	var req sendMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "'to', 'media_type' and 'media_url' are required")
		return
	}
	res, err := h.Messenger.SendMedia(c.Request.Context(), req.To, req.MediaType, req.MediaURL, req.Caption)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            "sent",
		"to":                req.To,
		"media_type":        req.MediaType,
		"whatsapp_response": res,
	})
}
