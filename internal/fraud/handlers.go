package fraud

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/metrics"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/traces"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/validation"
)

// Handler provides HTTP endpoints for manual card verification.
type Handler struct {
	engine *Engine
	store  Store
}

// NewHandler creates a verification handler.
func NewHandler(engine *Engine, store Store) *Handler {
	return &Handler{engine: engine, store: store}
}

// RegisterRoutes sets up verification routes under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/verify", h.Verify)
	r.GET("/verify/pattern/:cardNumber", h.GetPattern)
	r.GET("/assessments", h.ListAssessments)
}

// VerifyRequest is the request body for POST /v1/verify.
type VerifyRequest struct {
	TransactionInput
	// Pattern supplies real historical context when the caller has it.
	Pattern *HistoricalPattern `json:"pattern,omitempty"`
	// SynthesizePattern asks the server to derive a deterministic demo
	// pattern from the card number. Ignored when Pattern is set.
	SynthesizePattern bool `json:"synthesizePattern,omitempty"`
}

// Verify handles POST /v1/verify
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
		return
	}

	req.CardNumber = validation.SanitizeCardNumber(req.CardNumber)
	if req.CardNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_card_number",
			"message": "Card number must contain digits",
		})
		return
	}
	req.Merchant = validation.SanitizeString(req.Merchant, validation.MaxStringLength)

	pattern := req.Pattern
	if pattern == nil && req.SynthesizePattern {
		pattern = SynthesizePattern(req.CardNumber)
	}

	ctx, span := traces.StartSpan(c.Request.Context(), "fraud.Verify",
		traces.CardLast4(last4(req.CardNumber)), traces.Merchant(req.Merchant))
	defer span.End()

	result := h.engine.Analyze(ctx, &req.TransactionInput, pattern)
	span.SetAttributes(traces.RiskScore(result.RiskScore), traces.Recommendation(string(result.Recommendation)))
	metrics.AnalysesTotal.WithLabelValues(string(result.Recommendation)).Inc()
	metrics.RiskScoreObserved.Observe(float64(result.RiskScore))

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetPattern handles GET /v1/verify/pattern/:cardNumber
func (h *Handler) GetPattern(c *gin.Context) {
	cardNumber := validation.SanitizeCardNumber(c.Param("cardNumber"))
	if cardNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_card_number",
			"message": "Card number must contain digits",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pattern": SynthesizePattern(cardNumber)})
}

// ListAssessments handles GET /v1/assessments
func (h *Handler) ListAssessments(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	assessments, err := h.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assessments": assessments, "count": len(assessments)})
}
