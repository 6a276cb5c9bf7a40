package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *FraudClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *FraudClient) *Handlers {
	return &Handlers{client: client}
}

// HandleVerifyCard scores a transaction and formats the assessment.
func (h *Handlers) HandleVerifyCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardNumber := req.GetString("card_number", "")
	if cardNumber == "" {
		return mcp.NewToolResultError("card_number is required"), nil
	}
	merchant := req.GetString("merchant", "")
	if merchant == "" {
		return mcp.NewToolResultError("merchant is required"), nil
	}
	amount := req.GetFloat("amount", 0)

	input := map[string]any{
		"cardNumber": cardNumber,
		"amount":     amount,
		"merchant":   merchant,
		// Without caller-supplied history, derive a deterministic pattern
		// so velocity and deviation checks still contribute.
		"synthesizePattern": true,
	}
	if country := req.GetString("country", ""); country != "" {
		input["location"] = map[string]string{
			"country": country,
			"city":    req.GetString("city", ""),
		}
	}
	if ts := req.GetString("timestamp", ""); ts != "" {
		input["timestamp"] = ts
	}
	if ua := req.GetString("user_agent", ""); ua != "" {
		input["userAgent"] = ua
	}

	raw, err := h.client.VerifyCard(ctx, input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Verification failed: %v", err)), nil
	}

	text, err := formatAssessment(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse assessment: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetCardPattern returns the spending pattern on file for a card.
func (h *Handlers) HandleGetCardPattern(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardNumber := req.GetString("card_number", "")
	if cardNumber == "" {
		return mcp.NewToolResultError("card_number is required"), nil
	}

	raw, err := h.client.GetCardPattern(ctx, cardNumber)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Pattern lookup failed: %v", err)), nil
	}

	text, err := formatPattern(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse pattern: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleListTransactions browses the scored transaction feed.
func (h *Handlers) HandleListTransactions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := req.GetString("status", "")
	search := req.GetString("search", "")
	minRisk := req.GetInt("min_risk_score", 0)
	limit := req.GetInt("limit", 20)

	raw, err := h.client.ListTransactions(ctx, status, search, minRisk, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list transactions: %v", err)), nil
	}

	text, err := formatTransactionList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse transactions: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetTransaction fetches a single transaction with its risk factors.
func (h *Handlers) HandleGetTransaction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("transaction_id", "")
	if id == "" {
		return mcp.NewToolResultError("transaction_id is required"), nil
	}

	raw, err := h.client.GetTransaction(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch transaction: %v", err)), nil
	}

	text, err := formatTransaction(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse transaction: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetAnalytics combines the overview with the risk distribution.
func (h *Handlers) HandleGetAnalytics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	overviewRaw, err := h.client.GetAnalyticsOverview(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch analytics: %v", err)), nil
	}

	distRaw, err := h.client.GetRiskDistribution(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch risk distribution: %v", err)), nil
	}

	text, err := formatAnalytics(overviewRaw, distRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse analytics: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleGetFraudPatterns returns the tracked fraud patterns.
func (h *Handlers) HandleGetFraudPatterns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetFraudPatterns(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch fraud patterns: %v", err)), nil
	}

	text, err := formatFraudPatterns(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse fraud patterns: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// --- response formatting ---

type assessmentResult struct {
	RiskScore      int     `json:"riskScore"`
	RiskLevel      string  `json:"riskLevel"`
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
	ModelVersion   string  `json:"modelVersion"`
	ProcessingMS   float64 `json:"processingTime"`
	RiskFactors    []struct {
		Factor      string  `json:"factor"`
		Weight      float64 `json:"weight"`
		Impact      string  `json:"impact"`
		Description string  `json:"description"`
	} `json:"riskFactors"`
}

func formatAssessment(raw json.RawMessage) (string, error) {
	var resp struct {
		Result assessmentResult `json:"result"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	r := resp.Result

	var sb strings.Builder
	fmt.Fprintf(&sb, "Risk score: %d/100 (%s)\n", r.RiskScore, r.RiskLevel)
	fmt.Fprintf(&sb, "Recommendation: %s\n", r.Recommendation)
	fmt.Fprintf(&sb, "Confidence: %.0f%%\n", r.Confidence*100)
	fmt.Fprintf(&sb, "Model: %s (%.2fms)\n", r.ModelVersion, r.ProcessingMS)

	if len(r.RiskFactors) == 0 {
		sb.WriteString("\nNo risk factors detected.")
		return sb.String(), nil
	}

	sb.WriteString("\nRisk factors:\n")
	for _, f := range r.RiskFactors {
		fmt.Fprintf(&sb, "- [%s] %s: %s\n", f.Impact, f.Factor, f.Description)
	}

	return sb.String(), nil
}

func formatPattern(raw json.RawMessage) (string, error) {
	var resp struct {
		Pattern struct {
			OwnerID           string   `json:"ownerId"`
			AvgAmount         float64  `json:"avgTransactionAmount"`
			FrequentMerchants []string `json:"frequentMerchants"`
			UsualCountries    []string `json:"usualCountries"`
			TypicalHours      []int    `json:"typicalTransactionHours"`
			Usage             struct {
				TotalTransactions    int `json:"totalTransactions"`
				DeclinedTransactions int `json:"declinedTransactions"`
				FlaggedTransactions  int `json:"flaggedTransactions"`
			} `json:"cardUsageHistory"`
		} `json:"pattern"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	p := resp.Pattern

	var sb strings.Builder
	fmt.Fprintf(&sb, "Card ending %s\n", p.OwnerID)
	fmt.Fprintf(&sb, "Average transaction: $%.2f\n", p.AvgAmount)
	fmt.Fprintf(&sb, "Usual countries: %s\n", strings.Join(p.UsualCountries, ", "))
	fmt.Fprintf(&sb, "Frequent merchants: %s\n", strings.Join(p.FrequentMerchants, ", "))
	fmt.Fprintf(&sb, "Usage: %d transactions (%d declined, %d flagged)\n",
		p.Usage.TotalTransactions, p.Usage.DeclinedTransactions, p.Usage.FlaggedTransactions)

	return sb.String(), nil
}

type transactionSummary struct {
	ID         string  `json:"id"`
	Timestamp  string  `json:"timestamp"`
	CardNumber string  `json:"cardNumber"`
	Amount     float64 `json:"amount"`
	Merchant   string  `json:"merchant"`
	Location   struct {
		Country string `json:"country"`
		City    string `json:"city"`
	} `json:"location"`
	RiskScore   int      `json:"riskScore"`
	Status      string   `json:"status"`
	RiskFactors []string `json:"riskFactors"`
}

func formatTransactionList(raw json.RawMessage) (string, error) {
	var resp struct {
		Transactions []transactionSummary `json:"transactions"`
		Count        int                  `json:"count"`
		HasMore      bool                 `json:"has_more"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	if len(resp.Transactions) == 0 {
		return "No transactions matched the given filters.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d transaction(s):\n\n", resp.Count)
	for _, tx := range resp.Transactions {
		fmt.Fprintf(&sb, "%s  %s  $%.2f  %s (%s)  risk %d  %s\n",
			tx.ID, tx.CardNumber, tx.Amount, tx.Merchant, tx.Location.Country, tx.RiskScore, tx.Status)
	}
	if resp.HasMore {
		sb.WriteString("\nMore results available. Raise the limit or narrow the filters.")
	}

	return sb.String(), nil
}

func formatTransaction(raw json.RawMessage) (string, error) {
	var resp struct {
		Transaction transactionSummary `json:"transaction"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}
	tx := resp.Transaction

	var sb strings.Builder
	fmt.Fprintf(&sb, "Transaction %s\n", tx.ID)
	fmt.Fprintf(&sb, "Card: %s\n", tx.CardNumber)
	fmt.Fprintf(&sb, "Amount: $%.2f at %s\n", tx.Amount, tx.Merchant)
	fmt.Fprintf(&sb, "Location: %s, %s\n", tx.Location.City, tx.Location.Country)
	fmt.Fprintf(&sb, "Time: %s\n", tx.Timestamp)
	fmt.Fprintf(&sb, "Risk score: %d (%s)\n", tx.RiskScore, tx.Status)

	if len(tx.RiskFactors) > 0 {
		sb.WriteString("Risk factors:\n")
		for _, f := range tx.RiskFactors {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	return sb.String(), nil
}

func formatAnalytics(overviewRaw, distRaw json.RawMessage) (string, error) {
	var overviewResp struct {
		Overview struct {
			TotalTransactions    int     `json:"totalTransactions"`
			FlaggedTransactions  int     `json:"flaggedTransactions"`
			DeclinedTransactions int     `json:"declinedTransactions"`
			ApprovedTransactions int     `json:"approvedTransactions"`
			HighRiskTransactions int     `json:"highRiskTransactions"`
			AvgRiskScore         int     `json:"avgRiskScore"`
			TotalAmount          float64 `json:"totalAmount"`
		} `json:"overview"`
	}
	if err := json.Unmarshal(overviewRaw, &overviewResp); err != nil {
		return "", err
	}

	var distResp struct {
		Distribution []struct {
			Tier  string `json:"tier"`
			Min   int    `json:"min"`
			Max   int    `json:"max"`
			Count int    `json:"count"`
		} `json:"distribution"`
	}
	if err := json.Unmarshal(distRaw, &distResp); err != nil {
		return "", err
	}

	o := overviewResp.Overview

	var sb strings.Builder
	fmt.Fprintf(&sb, "Transactions: %d totaling $%.2f\n", o.TotalTransactions, o.TotalAmount)
	fmt.Fprintf(&sb, "Approved: %d, Flagged: %d, Declined: %d\n",
		o.ApprovedTransactions, o.FlaggedTransactions, o.DeclinedTransactions)
	fmt.Fprintf(&sb, "High risk (score 70+): %d\n", o.HighRiskTransactions)
	fmt.Fprintf(&sb, "Average risk score: %d\n", o.AvgRiskScore)

	sb.WriteString("\nRisk distribution:\n")
	for _, b := range distResp.Distribution {
		fmt.Fprintf(&sb, "- %s (%d-%d): %d\n", b.Tier, b.Min, b.Max, b.Count)
	}

	return sb.String(), nil
}

func formatFraudPatterns(raw json.RawMessage) (string, error) {
	var resp struct {
		Patterns []struct {
			Pattern     string `json:"pattern"`
			Frequency   int    `json:"frequency"`
			Trend       string `json:"trend"`
			Severity    string `json:"severity"`
			Description string `json:"description"`
		} `json:"patterns"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", err
	}

	if len(resp.Patterns) == 0 {
		return "No fraud patterns are currently tracked.", nil
	}

	var sb strings.Builder
	sb.WriteString("Tracked fraud patterns:\n\n")
	for _, p := range resp.Patterns {
		fmt.Fprintf(&sb, "%s [%s, trend %s]\n", p.Pattern, p.Severity, p.Trend)
		fmt.Fprintf(&sb, "  %d detections. %s\n", p.Frequency, p.Description)
	}

	return sb.String(), nil
}
