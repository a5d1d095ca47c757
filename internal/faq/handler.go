package faq

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/shared/server/respond"
)

const maxQueryLength = 500

type Handler struct {
	Cache *Cache
}

func NewHandler(cache *Cache) *Handler {
	return &Handler{Cache: cache}
}

// RegisterRoutes attaches the common-questions lookup to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/faq", h.lookup)
}

func (h *Handler) lookup(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" || len(q) > maxQueryLength {
		respond.Error(c, http.StatusBadRequest, "validation_error", "q must be between 1 and 500 characters", nil)
		return
	}
	answers, ok := h.Cache.Lookup(q)
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "no common questions for this topic", nil)
		return
	}
	respond.OK(c, gin.H{"questions": answers})
}
