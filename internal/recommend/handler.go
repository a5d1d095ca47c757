package recommend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/searches"
	"shoppa-backend/internal/shared/server/middleware"
	"shoppa-backend/internal/shared/server/respond"
	"shoppa-backend/internal/shared/telemetry"
)

const (
	maxProfileLength = 8000
	failureMessage   = "Something went wrong, please try again"
)

// SearchRecorder persists completed full-batch searches.
type SearchRecorder interface {
	Save(ctx context.Context, rec searches.Record) (searches.Search, error)
}

type Handler struct {
	Gen      *Generator
	Searches SearchRecorder
}

func NewHandler(gen *Generator, recorder SearchRecorder) *Handler {
	return &Handler{Gen: gen, Searches: recorder}
}

// RegisterRoutes attaches recommendation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recommendations", h.generate)
	rg.POST("/recommendations/rank/:rank", h.generateAt)
	rg.POST("/recommendations/stream", h.stream)
}

type generateRequest struct {
	Profile string `json:"profile"`
	Query   string `json:"query"`
}

type generateResponse struct {
	SearchID        string   `json:"searchId,omitempty"`
	Provider        string   `json:"provider"`
	FallbackUsed    bool     `json:"fallbackUsed"`
	Recommendations []Result `json:"recommendations"`
}

func (h *Handler) generate(c *gin.Context) {
	req, ok := bindProfile(c)
	if !ok {
		return
	}

	out, err := h.Gen.Generate(c.Request.Context(), req.Profile)
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.Set("provider", out.Provider)

	resp := generateResponse{
		Provider:        out.Provider,
		FallbackUsed:    out.FallbackUsed,
		Recommendations: out.Results,
	}
	if h.Searches != nil {
		saved, err := h.Searches.Save(c.Request.Context(), searches.Record{
			Principal:       middleware.PrincipalFromContext(c),
			Query:           strings.TrimSpace(req.Query),
			Profile:         req.Profile,
			Provider:        out.Provider,
			Model:           out.Model,
			FallbackUsed:    out.FallbackUsed,
			Recommendations: out.Results,
		})
		if err != nil {
			telemetry.Warn("search.save_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"error":      err,
			})
		} else {
			resp.SearchID = saved.ID
			c.Set("searchId", saved.ID)
		}
	}
	respond.OK(c, resp)
}

func (h *Handler) generateAt(c *gin.Context) {
	rank, err := strconv.Atoi(c.Param("rank"))
	if err != nil || rank < MinRank || rank > MaxRank {
		respond.Error(c, http.StatusBadRequest, "validation_error", ErrInvalidRank.Error(), nil)
		return
	}
	req, ok := bindProfile(c)
	if !ok {
		return
	}

	out, err := h.Gen.GenerateAt(c.Request.Context(), req.Profile, rank)
	if err != nil {
		writeFailure(c, err)
		return
	}
	c.Set("provider", out.Provider)
	respond.OK(c, gin.H{
		"provider":       out.Provider,
		"fallbackUsed":   out.FallbackUsed,
		"recommendation": out.Results[0],
	})
}

type streamEvent struct {
	Rank           int    `json:"rank"`
	Provider       string `json:"provider"`
	FallbackUsed   bool   `json:"fallbackUsed"`
	Recommendation Result `json:"recommendation"`
}

// stream emits one "recommendation" event per rank as it completes, then a
// final "done" or "error" event.
func (h *Handler) stream(c *gin.Context) {
	req, ok := bindProfile(c)
	if !ok {
		return
	}
	t, err := h.Gen.prepare(req.Profile)
	if err != nil {
		writeFailure(c, err)
		return
	}

	ctx := c.Request.Context()
	updates := make(chan Outcome, BatchSize)
	finished := make(chan []Result, 1)
	var genErr error
	go func() {
		results, err := h.Gen.generateRanked(ctx, t, func(o Outcome) { updates <- o })
		genErr = err
		close(updates)
		finished <- results
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(io.Writer) bool {
		if o, ok := <-updates; ok {
			r := o.Results[0]
			c.SSEvent("recommendation", streamEvent{
				Rank:           r.Rank,
				Provider:       o.Provider,
				FallbackUsed:   o.FallbackUsed,
				Recommendation: r,
			})
			return true
		}
		results := <-finished
		if genErr == nil {
			c.SSEvent("done", gin.H{"count": len(results)})
			return false
		}
		failed := []int{}
		for i, r := range results {
			if r.Rank == 0 {
				failed = append(failed, i+1)
			}
		}
		telemetry.Warn("recommendation.stream_incomplete", map[string]any{
			"request_id":   middleware.RequestIDFromContext(c),
			"failed_ranks": failed,
			"error":        genErr,
		})
		c.SSEvent("error", gin.H{
			"code":        "generation_failed",
			"message":     failureMessage,
			"failedRanks": failed,
		})
		return false
	})
}

func bindProfile(c *gin.Context) (generateRequest, bool) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return req, false
	}
	req.Profile = strings.TrimSpace(req.Profile)
	if req.Profile == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", ErrEmptyProfile.Error(), nil)
		return req, false
	}
	if len(req.Profile) > maxProfileLength {
		respond.Error(c, http.StatusBadRequest, "validation_error", "profile is too long", gin.H{"maxLength": maxProfileLength})
		return req, false
	}
	return req, true
}

func writeFailure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyProfile), errors.Is(err, ErrInvalidRank):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrCatalogUnavailable):
		respond.Error(c, http.StatusServiceUnavailable, "catalog_unavailable", "catalog unavailable", nil)
	case errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusGatewayTimeout, "timeout", failureMessage, nil)
	case errors.Is(err, context.Canceled):
		c.Abort()
	default:
		respond.Error(c, http.StatusBadGateway, "generation_failed", failureMessage, nil)
	}
}
