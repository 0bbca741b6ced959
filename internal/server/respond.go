package server

import (
	"github.com/gin-gonic/gin"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

// writeError maps err to its HTTP status and a safe {"error": ...} body.
func writeError(c *gin.Context, err error) {
	status := errx.StatusOf(err)
	if status >= 500 {
		logx.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": errx.MessageOf(err)})
}

func writeErrorStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	writeError(c, errx.InvalidInput(message))
}
