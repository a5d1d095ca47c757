package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/shared/server/middleware"
	"shoppa-backend/internal/shared/server/respond"
)

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

func meHandler(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	if principal == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
		return
	}
	respond.OK(c, gin.H{
		"principal": principal,
		"isGuest":   c.GetBool("isGuest"),
	})
}
