package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the fraud detection API.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
}

// FraudClient is a pure HTTP client for the fraud detection API.
type FraudClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewFraudClient creates a new client for the fraud detection API.
func NewFraudClient(cfg Config) *FraudClient {
	return &FraudClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the API and returns the response body.
func (c *FraudClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// VerifyCard submits a transaction for risk scoring.
func (c *FraudClient) VerifyCard(ctx context.Context, input map[string]any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/v1/verify", nil, input)
}

// GetCardPattern returns the synthesized spending pattern for a card.
func (c *FraudClient) GetCardPattern(ctx context.Context, cardNumber string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/verify/pattern/"+url.PathEscape(cardNumber), nil, nil)
}

// ListTransactions lists scored transactions with optional filters.
func (c *FraudClient) ListTransactions(ctx context.Context, status, search string, minRiskScore, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if search != "" {
		q.Set("search", search)
	}
	if minRiskScore > 0 {
		q.Set("min_risk_score", strconv.Itoa(minRiskScore))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/v1/transactions", q, nil)
}

// GetTransaction returns a single transaction by ID.
func (c *FraudClient) GetTransaction(ctx context.Context, id string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/transactions/"+id, nil, nil)
}

// GetAnalyticsOverview returns aggregate statistics for the monitored window.
func (c *FraudClient) GetAnalyticsOverview(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/analytics/overview", nil, nil)
}

// GetRiskDistribution returns transaction counts bucketed by risk tier.
func (c *FraudClient) GetRiskDistribution(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/analytics/risk-distribution", nil, nil)
}

// GetFraudPatterns returns the detected fraud pattern summary.
func (c *FraudClient) GetFraudPatterns(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/analytics/patterns", nil, nil)
}
