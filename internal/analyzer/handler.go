package analyzer

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/events"
	"shoppa-backend/internal/shared/server/respond"
	"shoppa-backend/internal/shared/util"
)

const maxQueryLength = 500

type Handler struct {
	Analyzer *Analyzer
	Events   events.Publisher
}

func NewHandler(a *Analyzer, pub events.Publisher) *Handler {
	return &Handler{Analyzer: a, Events: pub}
}

// RegisterRoutes attaches the analysis route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
}

type analyzeRequest struct {
	Query string `json:"query"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if len(req.Query) > maxQueryLength {
		respond.Error(c, http.StatusBadRequest, "validation_error", "query is too long", gin.H{"maxLength": maxQueryLength})
		return
	}

	analysis, err := h.Analyzer.AnalyzeOrAskAll(c.Request.Context(), req.Query)
	if err != nil {
		if errors.Is(err, ErrEmptyQuery) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "analysis failed", nil)
		return
	}
	events.Emit(c.Request.Context(), h.Events, events.New(events.TypeSearchAnalyzed, "", map[string]any{
		"missing":     analysis.Missing,
		"is_complete": analysis.IsComplete,
		"failed":      analysis.Failed,
		"query_hash":  util.HashKey(analysis.Query),
	}))
	respond.OK(c, analysis)
}
