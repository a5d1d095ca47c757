package searches

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/shared/server/middleware"
	"shoppa-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches search history routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/searches", h.list)
	rg.GET("/searches/:id", h.get)
}

func (h *Handler) list(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Svc.List(c.Request.Context(), principal, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to list searches", nil)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) get(c *gin.Context) {
	principal := middleware.PrincipalFromContext(c)
	id := c.Param("id")
	c.Set("searchId", id)

	s, err := h.Svc.Get(c.Request.Context(), principal, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "search not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load search", nil)
		return
	}
	respond.OK(c, s)
}
