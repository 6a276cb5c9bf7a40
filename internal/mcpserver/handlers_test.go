package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

func newTestSetup(handler http.Handler) (*Handlers, func()) {
	ts := httptest.NewServer(handler)
	client := NewFraudClient(Config{APIURL: ts.URL})
	h := NewHandlers(client)
	return h, ts.Close
}

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

// ============================================================
// Client tests
// ============================================================

func TestClient_DoRequest_HTTPError_WithAPIMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "invalid_card_number",
			"message": "Card number must contain digits",
		})
	}))
	defer ts.Close()

	client := NewFraudClient(Config{APIURL: ts.URL})
	_, err := client.VerifyCard(context.Background(), map[string]any{"cardNumber": "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Card number must contain digits")
}

func TestClient_DoRequest_HTTPError_NonJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream timeout"))
	}))
	defer ts.Close()

	client := NewFraudClient(Config{APIURL: ts.URL})
	_, err := client.GetAnalyticsOverview(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream timeout")
}

func TestClient_DoRequest_ConnectionRefused(t *testing.T) {
	client := NewFraudClient(Config{APIURL: "http://127.0.0.1:1"})
	_, err := client.GetAnalyticsOverview(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_ListTransactions_QueryParams(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"transactions":[],"count":0}`))
	}))
	defer ts.Close()

	client := NewFraudClient(Config{APIURL: ts.URL})
	_, err := client.ListTransactions(context.Background(), "Flagged", "casino", 70, 5)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "status=Flagged")
	assert.Contains(t, gotQuery, "search=casino")
	assert.Contains(t, gotQuery, "min_risk_score=70")
	assert.Contains(t, gotQuery, "limit=5")
}

func TestClient_GetCardPattern_PathEscaped(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"pattern":{}}`))
	}))
	defer ts.Close()

	client := NewFraudClient(Config{APIURL: ts.URL})
	_, err := client.GetCardPattern(context.Background(), "4532015112830366")
	require.NoError(t, err)
	assert.Equal(t, "/v1/verify/pattern/4532015112830366", gotPath)
}

// ============================================================
// verify_card
// ============================================================

func TestHandleVerifyCard_Success(t *testing.T) {
	var gotBody map[string]any
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/verify", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"result":{
			"riskScore":92,"riskLevel":"CRITICAL","confidence":0.95,
			"recommendation":"DECLINE","modelVersion":"v2.1.0","processingTime":1.52,
			"riskFactors":[
				{"factor":"Invalid Card Number","weight":1.0,"impact":"HIGH","description":"Card number failed validation check"},
				{"factor":"High-Risk Merchant","weight":0.4,"impact":"HIGH","description":"Merchant category flagged"}
			]}}`))
	}))
	defer closeFn()

	req := makeRequest(map[string]any{
		"card_number": "4532015112830367",
		"amount":      15000.0,
		"merchant":    "Lucky Casino Online",
		"country":     "Nigeria",
	})

	result, err := h.HandleVerifyCard(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "92/100")
	assert.Contains(t, text, "CRITICAL")
	assert.Contains(t, text, "DECLINE")
	assert.Contains(t, text, "Invalid Card Number")
	assert.Contains(t, text, "High-Risk Merchant")

	// Request body shape
	assert.Equal(t, "4532015112830367", gotBody["cardNumber"])
	assert.Equal(t, "Lucky Casino Online", gotBody["merchant"])
	assert.Equal(t, true, gotBody["synthesizePattern"])
	loc, ok := gotBody["location"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Nigeria", loc["country"])
}

func TestHandleVerifyCard_NoRiskFactors(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{
			"riskScore":0,"riskLevel":"LOW","confidence":0.75,
			"recommendation":"APPROVE","modelVersion":"v2.1.0","processingTime":0.40,
			"riskFactors":[]}}`))
	}))
	defer closeFn()

	req := makeRequest(map[string]any{
		"card_number": "4532015112830366",
		"amount":      52.40,
		"merchant":    "Whole Foods Market",
	})

	result, err := h.HandleVerifyCard(context.Background(), req)
	require.NoError(t, err)
	text := resultText(t, result)
	assert.Contains(t, text, "APPROVE")
	assert.Contains(t, text, "No risk factors detected")
}

func TestHandleVerifyCard_MissingRequired(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("API should not be called")
	}))
	defer closeFn()

	result, err := h.HandleVerifyCard(context.Background(), makeRequest(map[string]any{
		"amount": 10.0, "merchant": "Shop",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "card_number is required")

	result, err = h.HandleVerifyCard(context.Background(), makeRequest(map[string]any{
		"card_number": "4532015112830366", "amount": 10.0,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "merchant is required")
}

func TestHandleVerifyCard_APIError(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "invalid_card_number",
			"message": "Card number must contain digits",
		})
	}))
	defer closeFn()

	result, err := h.HandleVerifyCard(context.Background(), makeRequest(map[string]any{
		"card_number": "----", "amount": 10.0, "merchant": "Shop",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Verification failed")
}

// ============================================================
// get_card_pattern
// ============================================================

func TestHandleGetCardPattern_Success(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pattern":{
			"ownerId":"0366",
			"avgTransactionAmount":312.50,
			"frequentMerchants":["Amazon","Walmart"],
			"usualCountries":["United States"],
			"typicalTransactionHours":[9,12,18],
			"cardUsageHistory":{"totalTransactions":142,"declinedTransactions":3,"flaggedTransactions":1}}}`))
	}))
	defer closeFn()

	result, err := h.HandleGetCardPattern(context.Background(), makeRequest(map[string]any{
		"card_number": "4532015112830366",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Card ending 0366")
	assert.Contains(t, text, "$312.50")
	assert.Contains(t, text, "United States")
	assert.Contains(t, text, "142 transactions (3 declined, 1 flagged)")
}

func TestHandleGetCardPattern_MissingCardNumber(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("API should not be called")
	}))
	defer closeFn()

	result, err := h.HandleGetCardPattern(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ============================================================
// list_transactions / get_transaction
// ============================================================

func TestHandleListTransactions_Success(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/transactions", r.URL.Path)
		_, _ = w.Write([]byte(`{"transactions":[
			{"id":"txn_abc","timestamp":"2026-08-27T10:00:00Z","cardNumber":"**** 0366","amount":1250.00,
			 "merchant":"Crypto Exchange Pro","location":{"country":"Nigeria","city":"Lagos"},
			 "riskScore":88,"status":"Declined","riskFactors":["High-risk merchant category"]},
			{"id":"txn_def","timestamp":"2026-08-27T09:00:00Z","cardNumber":"**** 1234","amount":42.10,
			 "merchant":"Starbucks","location":{"country":"United States","city":"Seattle"},
			 "riskScore":5,"status":"Approved","riskFactors":[]}
		],"count":2,"next_cursor":"","has_more":false}`))
	}))
	defer closeFn()

	result, err := h.HandleListTransactions(context.Background(), makeRequest(map[string]any{
		"limit": 10.0,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Found 2 transaction(s)")
	assert.Contains(t, text, "txn_abc")
	assert.Contains(t, text, "Crypto Exchange Pro")
	assert.Contains(t, text, "risk 88")
	assert.NotContains(t, text, "More results available")
}

func TestHandleListTransactions_Empty(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transactions":[],"count":0,"next_cursor":"","has_more":false}`))
	}))
	defer closeFn()

	result, err := h.HandleListTransactions(context.Background(), makeRequest(map[string]any{
		"status": "Pending",
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "No transactions matched")
}

func TestHandleListTransactions_HasMore(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"transactions":[
			{"id":"txn_abc","cardNumber":"**** 0366","amount":10,"merchant":"Shop",
			 "location":{"country":"US"},"riskScore":1,"status":"Approved"}
		],"count":1,"next_cursor":"abc","has_more":true}`))
	}))
	defer closeFn()

	result, err := h.HandleListTransactions(context.Background(), makeRequest(map[string]any{"limit": 1.0}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "More results available")
}

func TestHandleGetTransaction_Success(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/transactions/txn_abc", r.URL.Path)
		_, _ = w.Write([]byte(`{"transaction":
			{"id":"txn_abc","timestamp":"2026-08-27T10:00:00Z","cardNumber":"**** 0366","amount":1250.00,
			 "merchant":"Crypto Exchange Pro","location":{"country":"Nigeria","city":"Lagos"},
			 "riskScore":88,"status":"Declined","riskFactors":["High-risk merchant category","Unusual location"]}}`))
	}))
	defer closeFn()

	result, err := h.HandleGetTransaction(context.Background(), makeRequest(map[string]any{
		"transaction_id": "txn_abc",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Transaction txn_abc")
	assert.Contains(t, text, "Lagos, Nigeria")
	assert.Contains(t, text, "88 (Declined)")
	assert.Contains(t, text, "Unusual location")
}

func TestHandleGetTransaction_NotFound(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":   "not_found",
			"message": "Transaction not found",
		})
	}))
	defer closeFn()

	result, err := h.HandleGetTransaction(context.Background(), makeRequest(map[string]any{
		"transaction_id": "txn_nope",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Transaction not found")
}

// ============================================================
// get_analytics / get_fraud_patterns
// ============================================================

func TestHandleGetAnalytics_Success(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/analytics/overview":
			_, _ = w.Write([]byte(`{"overview":{
				"totalTransactions":50,"flaggedTransactions":6,"declinedTransactions":4,
				"approvedTransactions":40,"highRiskTransactions":9,"avgRiskScore":31,
				"totalAmount":12345.67}}`))
		case "/v1/analytics/risk-distribution":
			_, _ = w.Write([]byte(`{"distribution":[
				{"tier":"LOW","min":0,"max":39,"count":35},
				{"tier":"MEDIUM","min":40,"max":69,"count":6},
				{"tier":"HIGH","min":70,"max":84,"count":5},
				{"tier":"CRITICAL","min":85,"max":100,"count":4}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer closeFn()

	result, err := h.HandleGetAnalytics(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Transactions: 50 totaling $12345.67")
	assert.Contains(t, text, "Approved: 40, Flagged: 6, Declined: 4")
	assert.Contains(t, text, "CRITICAL (85-100): 4")
}

func TestHandleGetFraudPatterns_Success(t *testing.T) {
	h, closeFn := newTestSetup(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/analytics/patterns", r.URL.Path)
		_, _ = w.Write([]byte(`{"patterns":[
			{"pattern":"Velocity Attacks","frequency":23,"trend":"+15%","severity":"HIGH",
			 "description":"Multiple rapid transactions on the same card"},
			{"pattern":"Geographic Anomalies","frequency":18,"trend":"+8%","severity":"MEDIUM",
			 "description":"Transactions far from the cardholder's usual countries"}]}`))
	}))
	defer closeFn()

	result, err := h.HandleGetFraudPatterns(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "Velocity Attacks [HIGH, trend +15%]")
	assert.Contains(t, text, "23 detections")
	assert.Contains(t, text, "Geographic Anomalies")
}
