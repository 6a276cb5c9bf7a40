package transactions

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/pagination"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/traces"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/validation"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Handler provides HTTP endpoints for browsing the transaction feed.
type Handler struct {
	store Store
}

// NewHandler creates a transactions handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes sets up transaction routes under the given group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.GET("/:id", h.Get)
}

// List handles GET /v1/transactions
//
// Query parameters: status, search, min_risk_score, limit, cursor.
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{Limit: defaultPageSize}

	if raw := c.Query("status"); raw != "" {
		status := Status(raw)
		switch status {
		case StatusApproved, StatusDeclined, StatusFlagged, StatusPending:
			filter.Status = status
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_status",
				"message": "Status must be one of Approved, Declined, Flagged, Pending",
			})
			return
		}
	}

	filter.Search = validation.SanitizeString(c.Query("search"), 100)

	if raw := c.Query("min_risk_score"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n <= 100 {
			filter.MinRiskScore = n
		}
	}

	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxPageSize {
			filter.Limit = n
		}
	}

	cursor, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_cursor",
			"message": "Cursor is malformed",
		})
		return
	}
	filter.Cursor = cursor

	ctx, span := traces.StartSpan(c.Request.Context(), "transactions.List")
	defer span.End()

	txs, err := h.store.List(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}

	txs, next, hasMore := pagination.ComputePage(txs, filter.Limit, func(tx *Transaction) (time.Time, string) {
		return tx.Timestamp, tx.ID
	})

	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"count":        len(txs),
		"next_cursor":  next,
		"has_more":     hasMore,
	})
}

// Get handles GET /v1/transactions/:id
func (h *Handler) Get(c *gin.Context) {
	ctx, span := traces.StartSpan(c.Request.Context(), "transactions.Get",
		traces.TransactionID(c.Param("id")))
	defer span.End()

	tx, err := h.store.Get(ctx, c.Param("id"))
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Transaction not found",
		})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"transaction": tx})
	}
}
