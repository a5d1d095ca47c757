package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/shared/server/respond"
	"shoppa-backend/internal/shared/util"
)

type Handler struct {
	Store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches the read-only catalog routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/catalog", h.list)
	rg.GET("/catalog/:id", h.get)
}

type deviceView struct {
	Device
	PriceCents *int64 `json:"priceCents,omitempty"`
}

func viewOf(d Device) deviceView {
	v := deviceView{Device: d}
	if cents, ok := PriceCents(d.Price); ok {
		v.PriceCents = &cents
	}
	return v
}

func (h *Handler) list(c *gin.Context) {
	devices, err := h.Store.Devices()
	if err != nil {
		respond.Error(c, http.StatusServiceUnavailable, "catalog_unavailable", "catalog unavailable", nil)
		return
	}
	brand := util.Fold(strings.TrimSpace(c.Query("brand")))

	items := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		if brand != "" && !strings.Contains(util.Fold(d.Name()), brand) {
			continue
		}
		items = append(items, viewOf(d))
	}
	respond.OK(c, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) get(c *gin.Context) {
	d, err := h.Store.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "device not found", nil)
			return
		}
		respond.Error(c, http.StatusServiceUnavailable, "catalog_unavailable", "catalog unavailable", nil)
		return
	}
	respond.OK(c, viewOf(d))
}
