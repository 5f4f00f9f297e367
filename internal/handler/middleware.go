// Package handler provides HTTP handlers for the modelbridge gateway.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UOACoder/modelbridge/internal/security"
)

// CORSMiddleware returns a middleware that enables permissive CORS so web
// applications can call the gateway directly.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// LoggingMiddleware returns a middleware that logs request details. All
// values pass through the security redactor before emission.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		model, _ := c.Get("model")
		modelName, _ := model.(string)
		cached, _ := c.Get("cache_hit")
		cacheHit, _ := cached.(bool)

		logger.Info("request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", security.Redact(path)),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("model", modelName),
			slog.Bool("cache_hit", cacheHit),
		)
	}
}

// RecoveryMiddleware returns a middleware that recovers from panics, logging
// the error and answering in OpenAI-compatible error format.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					slog.Any("error", err),
					slog.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": gin.H{
						"message": "Internal server error",
						"type":    "server_error",
						"code":    "internal_error",
					},
				})
			}
		}()

		c.Next()
	}
}

// StripAuthHeadersMiddleware removes inbound Authorization headers. The
// gateway injects its own provider credential on the outbound call; client
// bearer tokens must never reach a provider.
func StripAuthHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Header.Del("Authorization")
		c.Next()
	}
}
