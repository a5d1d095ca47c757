package onboarding

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/analyzer"
	"shoppa-backend/internal/shared/server/middleware"
	"shoppa-backend/internal/shared/server/respond"
)

const maxQueryLength = 500

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches onboarding routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/onboarding", h.start)
	rg.GET("/onboarding/:id", h.get)
	rg.POST("/onboarding/:id/select", h.selectOptions)
	rg.POST("/onboarding/:id/next", h.next)
	rg.POST("/onboarding/:id/back", h.back)
	rg.POST("/onboarding/:id/finish", h.finish)
}

// View is the client-facing state of a flow.
type View struct {
	ID            string                 `json:"id"`
	Step          Step                   `json:"step"`
	Question      *Question              `json:"question,omitempty"`
	Selected      []string               `json:"selected"`
	QuestionIndex int                    `json:"questionIndex"`
	QuestionCount int                    `json:"questionCount"`
	CanGoBack     bool                   `json:"canGoBack"`
	CanAdvance    bool                   `json:"canAdvance"`
	Analysis      analyzer.QueryAnalysis `json:"analysis"`
	Details       string                 `json:"details,omitempty"`
	Profile       string                 `json:"profile,omitempty"`
}

func viewOf(f *Flow) View {
	v := View{
		ID:            f.ID,
		Step:          f.Step(),
		Selected:      []string{},
		QuestionIndex: f.Index,
		QuestionCount: len(f.Steps),
		CanGoBack:     !f.Done && f.Index > 0,
		CanAdvance:    f.CanAdvance(),
		Analysis:      f.Analysis,
		Details:       f.Details,
		Profile:       f.Profile,
	}
	if q, ok := f.Question(); ok {
		v.Question = &q
		if sel := f.Answers[q.Dimension]; len(sel) > 0 {
			v.Selected = sel
		}
	}
	return v
}

type startRequest struct {
	Query string `json:"query"`
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "query is required", nil)
		return
	}
	if len(req.Query) > maxQueryLength {
		respond.Error(c, http.StatusBadRequest, "validation_error", "query is too long", gin.H{"maxLength": maxQueryLength})
		return
	}

	f, err := h.Svc.Start(c.Request.Context(), middleware.PrincipalFromContext(c), req.Query)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set("onboardingId", f.ID)
	respond.JSON(c, http.StatusCreated, viewOf(f))
}

func (h *Handler) get(c *gin.Context) {
	f, err := h.Svc.Get(c.Request.Context(), middleware.PrincipalFromContext(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, viewOf(f))
}

type selectRequest struct {
	Options []string `json:"options"`
}

func (h *Handler) selectOptions(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	h.apply(c, func(principal, id string) (*Flow, error) {
		return h.Svc.Select(c.Request.Context(), principal, id, req.Options)
	})
}

func (h *Handler) next(c *gin.Context) {
	h.apply(c, func(principal, id string) (*Flow, error) {
		return h.Svc.Next(c.Request.Context(), principal, id)
	})
}

func (h *Handler) back(c *gin.Context) {
	h.apply(c, func(principal, id string) (*Flow, error) {
		return h.Svc.Back(c.Request.Context(), principal, id)
	})
}

type finishRequest struct {
	Details string `json:"details"`
}

func (h *Handler) finish(c *gin.Context) {
	var req finishRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	h.apply(c, func(principal, id string) (*Flow, error) {
		return h.Svc.Finish(c.Request.Context(), principal, id, req.Details)
	})
}

func (h *Handler) apply(c *gin.Context, op func(principal, id string) (*Flow, error)) {
	id := c.Param("id")
	c.Set("onboardingId", id)
	f, err := op(middleware.PrincipalFromContext(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond.OK(c, viewOf(f))
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "onboarding session not found", nil)
	case errors.Is(err, analyzer.ErrEmptyQuery):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNoSelection), errors.Is(err, ErrUnknownOption), errors.Is(err, ErrSingleSelect):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case IsUserError(err):
		respond.Error(c, http.StatusConflict, "invalid_step", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", "onboarding failed", nil)
	}
}
