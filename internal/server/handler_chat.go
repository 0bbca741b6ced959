package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type chatRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

func (h *handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id and message are required")
		return
	}
	reply, err := h.Chat.Reply(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *handler) getContext(c *gin.Context) {
	userID := c.Param("user_id")
	turns := h.Chat.Context(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{
		"user_id":       userID,
		"context":       turns,
		"message_count": len(turns),
	})
}

func (h *handler) clearContext(c *gin.Context) {
	userID := c.Param("user_id")
	if err := h.Chat.ClearContext(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("context cleared for user %s", userID)})
}
