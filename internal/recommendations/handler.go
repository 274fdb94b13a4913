package recommendations

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"streetfood-backend/internal/query"
	"streetfood-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the recommendation service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches public recommendation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/areas", h.listAreas)
	rg.GET("/areas/:area", h.areaInfo)
	rg.POST("/recommendations", h.recommend)
	rg.POST("/recommendations/validate", h.validate)
}

// RegisterAdminRoutes attaches operator routes. Callers guard the group.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/refresh", h.refresh)
}

func (h *Handler) listAreas(c *gin.Context) {
	respond.OK(c, gin.H{"areas": h.Svc.Areas()})
}

func (h *Handler) areaInfo(c *gin.Context) {
	area := strings.TrimSpace(c.Param("area"))
	if area == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "area is required", nil)
		return
	}
	respond.OK(c, h.Svc.AreaInfo(area))
}

func (h *Handler) recommend(c *gin.Context) {
	raw, ok := bindQuery(c)
	if !ok {
		return
	}
	if errs := h.Svc.Validate(raw); len(errs) > 0 {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "invalid recommendation request", errs)
		return
	}
	c.Set("area", raw.Area)
	set := h.Svc.GetRecommendations(c.Request.Context(), raw)
	respond.OK(c, set.ToMap())
}

func (h *Handler) validate(c *gin.Context) {
	raw, ok := bindQuery(c)
	if !ok {
		return
	}
	errs := h.Svc.Validate(raw)
	if errs == nil {
		errs = query.ValidationErrors{}
	}
	respond.OK(c, gin.H{
		"valid":  len(errs) == 0,
		"errors": errs,
	})
}

func (h *Handler) refresh(c *gin.Context) {
	h.Svc.Refresh()
	respond.OK(c, gin.H{
		"refreshed": true,
		"areas":     len(h.Svc.Areas()),
	})
}

// bindQuery decodes the request body and fills blank time and budget with the
// pipeline defaults.
func bindQuery(c *gin.Context) (query.Raw, bool) {
	var raw query.Raw
	if err := c.ShouldBindJSON(&raw); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return query.Raw{}, false
	}
	if strings.TrimSpace(raw.TimePreference) == "" {
		raw.TimePreference = string(query.DefaultTime)
	}
	if strings.TrimSpace(raw.BudgetCategory) == "" {
		raw.BudgetCategory = string(query.DefaultBudget)
	}
	return raw, true
}
