package fraud

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupRouter(t *testing.T) (*gin.Engine, *MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := NewMemoryStore()
	engine := NewEngine(store)
	h := NewHandler(engine, store)

	r := gin.New()
	h.RegisterRoutes(r.Group("/v1"))
	return r, store
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyEndpoint(t *testing.T) {
	r, _ := setupRouter(t)

	w := postJSON(r, "/v1/verify", gin.H{
		"cardNumber": "4532 0151 1283 0366",
		"amount":     52.40,
		"merchant":   "Starbucks Coffee",
		"location":   gin.H{"city": "Seattle", "country": "United States"},
		"timestamp":  time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC),
		"deviceFingerprint": "fp_a1b2c3d4",
		"userAgent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Result FraudAnalysisResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 0, resp.Result.RiskScore)
	assert.Equal(t, RiskLow, resp.Result.RiskLevel)
	assert.Equal(t, RecommendApprove, resp.Result.Recommendation)
	assert.Equal(t, ModelVersion, resp.Result.ModelVersion)
}

func TestVerifyHighRiskTransaction(t *testing.T) {
	r, _ := setupRouter(t)

	w := postJSON(r, "/v1/verify", gin.H{
		"cardNumber": "4532015112830367", // fails Luhn
		"amount":     15000,
		"merchant":   "Lucky Casino Online",
		"location":   gin.H{"country": "Nigeria"},
		"timestamp":  time.Date(2025, 3, 16, 3, 0, 0, 0, time.UTC),
		"userAgent":  "bot",
		"pattern": gin.H{
			"avgTransactionAmount": 100,
			"cardUsageHistory": gin.H{
				"totalTransactions":    400,
				"declinedTransactions": 80,
			},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Result FraudAnalysisResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.GreaterOrEqual(t, resp.Result.RiskScore, 85)
	assert.Equal(t, RiskCritical, resp.Result.RiskLevel)
	assert.Equal(t, RecommendDecline, resp.Result.Recommendation)
	assert.NotEmpty(t, resp.Result.RiskFactors)
}

func TestVerifyRejectsEmptyCardNumber(t *testing.T) {
	r, _ := setupRouter(t)

	w := postJSON(r, "/v1/verify", gin.H{
		"cardNumber": "not a card",
		"amount":     10,
		"merchant":   "Some Shop",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_card_number")
}

func TestVerifyRejectsMalformedBody(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/verify", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyWithSynthesizedPattern(t *testing.T) {
	r, _ := setupRouter(t)

	w := postJSON(r, "/v1/verify", gin.H{
		"cardNumber":        "4532015112830366",
		"amount":            52.40,
		"merchant":          "Starbucks Coffee",
		"location":          gin.H{"country": "United States"},
		"timestamp":         time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC),
		"deviceFingerprint": "fp_a1b2c3d4",
		"userAgent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"synthesizePattern": true,
	})

	require.Equal(t, http.StatusOK, w.Code)

	// Same request twice must score identically: the synthesized pattern is
	// a pure function of the card number.
	w2 := postJSON(r, "/v1/verify", gin.H{
		"cardNumber":        "4532015112830366",
		"amount":            52.40,
		"merchant":          "Starbucks Coffee",
		"location":          gin.H{"country": "United States"},
		"timestamp":         time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC),
		"deviceFingerprint": "fp_a1b2c3d4",
		"userAgent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"synthesizePattern": true,
	})

	var a, b struct {
		Result FraudAnalysisResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &b))
	assert.Equal(t, a.Result.RiskScore, b.Result.RiskScore)
}

func TestVerifyRecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	r, _ := setupRouter(t)

	w := postJSON(r, "/v1/verify", gin.H{
		"cardNumber": "4532015112830366",
		"amount":     52.40,
		"merchant":   "Starbucks Coffee",
		"location":   gin.H{"country": "United States"},
		"timestamp":  time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusOK, w.Code)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "fraud.Verify", spans[0].Name())

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "0366", attrs["card.last4"].AsString())
	assert.Equal(t, "Starbucks Coffee", attrs["merchant"].AsString())
	assert.Equal(t, string(RecommendApprove), attrs["risk.recommendation"].AsString())
}

func TestGetPattern(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/verify/pattern/4532015112830366", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Pattern HistoricalPattern `json:"pattern"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "0366", resp.Pattern.OwnerID)
	assert.NotEmpty(t, resp.Pattern.FrequentMerchants)
}

func TestListAssessments(t *testing.T) {
	r, store := setupRouter(t)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(ctx, &Assessment{
			ID:             "frd_test" + string(rune('a'+i)),
			CardLast4:      "0366",
			RiskScore:      10,
			RiskLevel:      RiskLow,
			Recommendation: RecommendApprove,
			CreatedAt:      time.Now(),
		}))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/assessments?limit=2", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Assessments []Assessment `json:"assessments"`
		Count       int          `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Assessments, 2)
}
