package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		searchID, _ := c.Get("searchId")
		sessionID, _ := c.Get("onboardingId")
		provider, _ := c.Get("provider")

		telemetry.Info("request.complete", map[string]any{
			"request_id":    RequestIDFromContext(c),
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"status":        c.Writer.Status(),
			"duration_ms":   float64(latency.Microseconds()) / 1000.0,
			"principal":     PrincipalFromContext(c),
			"search_id":     searchID,
			"onboarding_id": sessionID,
			"provider":      provider,
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
		})
	}
}
