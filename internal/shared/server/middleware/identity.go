package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/shared/server/respond"
)

const (
	principalKey = "principal"
	guestKey     = "isGuest"
)

var guestIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Identity resolves the caller principal used for rate limits and search history.
// Session and credential mechanics live outside this service; a browser sends
// its stable X-Guest-Id and everything else is keyed by client IP.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		guestID := strings.TrimSpace(c.GetHeader("X-Guest-Id"))
		if guestID != "" {
			if !guestIDPattern.MatchString(guestID) {
				respond.Error(c, http.StatusBadRequest, "validation_error", "invalid X-Guest-Id header", nil)
				return
			}
			c.Set(principalKey, "guest:"+guestID)
			c.Set(guestKey, true)
			c.Next()
			return
		}
		c.Set(principalKey, "ip:"+c.ClientIP())
		c.Set(guestKey, true)
		c.Next()
	}
}

// PrincipalFromContext fetches the principal set by the Identity middleware.
func PrincipalFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(principalKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
