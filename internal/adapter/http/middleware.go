package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const adminKey = "admin"

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		level := slog.LevelInfo
		switch path := c.Request.URL.Path; {
		case c.Writer.Status() >= http.StatusInternalServerError:
			level = slog.LevelError
		case path == "/healthz" || path == "/readyz" || path == "/metrics":
			level = slog.LevelDebug
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

// authenticate marks requests carrying the admin bearer token. Without a
// configured token nobody is admin.
func (s *Server) authenticate(c *gin.Context) {
	token := s.deps.AdminToken
	bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	c.Set(adminKey, ok && token != "" &&
		subtle.ConstantTimeCompare([]byte(strings.TrimSpace(bearer)), []byte(token)) == 1)
	c.Next()
}

func requireAdmin(c *gin.Context) {
	if !isAdmin(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin token required"})
		return
	}
	c.Next()
}

func isAdmin(c *gin.Context) bool {
	return c.GetBool(adminKey)
}
