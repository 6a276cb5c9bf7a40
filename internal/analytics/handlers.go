package analytics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for dashboard analytics.
type Handler struct {
	svc *Service
}

// NewHandler creates an analytics handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes sets up analytics routes under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/overview", h.Overview)
	r.GET("/risk-distribution", h.RiskDistribution)
	r.GET("/daily-volume", h.DailyVolume)
	r.GET("/top-merchants", h.TopMerchants)
	r.GET("/countries", h.Countries)
	r.GET("/model-stats", h.ModelStats)
	r.GET("/patterns", h.FraudPatterns)
}

// Overview handles GET /v1/analytics/overview
func (h *Handler) Overview(c *gin.Context) {
	o, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"overview": o})
}

// RiskDistribution handles GET /v1/analytics/risk-distribution
func (h *Handler) RiskDistribution(c *gin.Context) {
	buckets, err := h.svc.RiskDistribution(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"distribution": buckets})
}

// DailyVolume handles GET /v1/analytics/daily-volume?days=7
func (h *Handler) DailyVolume(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 90 {
			days = n
		}
	}

	volume, err := h.svc.DailyVolume(c.Request.Context(), days)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": volume})
}

// TopMerchants handles GET /v1/analytics/top-merchants?limit=10
func (h *Handler) TopMerchants(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	merchants, err := h.svc.TopMerchants(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merchants": merchants})
}

// Countries handles GET /v1/analytics/countries
func (h *Handler) Countries(c *gin.Context) {
	countries, err := h.svc.Countries(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}

// ModelStats handles GET /v1/analytics/model-stats
func (h *Handler) ModelStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"model": h.svc.ModelStats()})
}

// FraudPatterns handles GET /v1/analytics/patterns
func (h *Handler) FraudPatterns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"patterns": h.svc.FraudPatterns()})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "internal_error",
		"message": err.Error(),
	})
}
