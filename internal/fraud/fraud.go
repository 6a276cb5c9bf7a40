// Package fraud implements deterministic, rule-weighted fraud scoring for
// card transactions.
//
// Every candidate transaction is evaluated by a fixed pipeline of independent
// analyzers: amount anomaly, location risk, time-of-day, merchant category,
// velocity, and device fingerprint. Each analyzer returns a raw subscore in
// [0, 100] plus named risk factors; subscores are combined with fixed weights
// and mapped to a risk level and a recommended action. Card-number integrity
// (Luhn) sits outside the weighted pipeline and contributes a flat penalty.
package fraud

import (
	"context"
	"time"
)

// RiskLevel classifies the final score into a tier.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Recommendation is the suggested downstream action for a scored transaction.
type Recommendation string

const (
	RecommendApprove      Recommendation = "APPROVE"
	RecommendFlag         Recommendation = "FLAG"
	RecommendManualReview Recommendation = "MANUAL_REVIEW"
	RecommendDecline      Recommendation = "DECLINE"
)

// Impact grades how strongly a single risk factor pushed the score.
type Impact string

const (
	ImpactLow    Impact = "LOW"
	ImpactMedium Impact = "MEDIUM"
	ImpactHigh   Impact = "HIGH"
)

// Coordinates is an optional geographic point attached to a location.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location describes where a transaction originated.
type Location struct {
	Country     string       `json:"country"`
	City        string       `json:"city"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// TransactionInput is the candidate transaction being scored. It is treated
// as immutable for the duration of one Analyze call.
type TransactionInput struct {
	CardNumber        string    `json:"cardNumber" binding:"required"`
	Expiry            string    `json:"expiry"`
	CVV               string    `json:"cvv"`
	Amount            float64   `json:"amount"`
	Merchant          string    `json:"merchant" binding:"required"`
	Location          *Location `json:"location,omitempty"`
	Timestamp         time.Time `json:"timestamp,omitzero"`
	DeviceFingerprint string    `json:"deviceFingerprint,omitempty"`
	IPAddress         string    `json:"ipAddress,omitempty"`
	UserAgent         string    `json:"userAgent,omitempty"`
}

// UsageHistory summarizes how a card has been used.
// Declined+Flagged never exceeding Total is the caller's responsibility.
type UsageHistory struct {
	TotalTransactions    int `json:"totalTransactions"`
	DeclinedTransactions int `json:"declinedTransactions"`
	FlaggedTransactions  int `json:"flaggedTransactions"`
}

// HistoricalPattern is optional behavioral context for the card being scored.
// The engine reads it and never mutates or persists it.
type HistoricalPattern struct {
	OwnerID           string       `json:"ownerId"`
	AvgAmount         float64      `json:"avgTransactionAmount"`
	FrequentMerchants []string     `json:"frequentMerchants"`
	UsualCountries    []string     `json:"usualCountries"`
	TypicalHours      []int        `json:"typicalTransactionHours"`
	Usage             UsageHistory `json:"cardUsageHistory"`
}

// RiskFactor is one named piece of evidence contributing to the score.
// Factors are returned in analyzer execution order, not by severity.
type RiskFactor struct {
	Factor      string  `json:"factor"`
	Weight      float64 `json:"weight"`
	Impact      Impact  `json:"impact"`
	Description string  `json:"description"`
}

// FraudAnalysisResult is the outcome of scoring one transaction.
// Nothing in it is cached or shared across calls.
type FraudAnalysisResult struct {
	RiskScore      int            `json:"riskScore"`
	RiskLevel      RiskLevel      `json:"riskLevel"`
	Confidence     float64        `json:"confidence"`
	RiskFactors    []RiskFactor   `json:"riskFactors"`
	Recommendation Recommendation `json:"recommendation"`
	ModelVersion   string         `json:"modelVersion"`
	ProcessingMS   float64        `json:"processingTime"` // milliseconds, 2 decimal places
}

// Assessment is the audit-trail record of one scoring call.
type Assessment struct {
	ID             string         `json:"id"`
	CardLast4      string         `json:"cardLast4"`
	RiskScore      int            `json:"riskScore"`
	RiskLevel      RiskLevel      `json:"riskLevel"`
	Recommendation Recommendation `json:"recommendation"`
	RiskFactors    []RiskFactor   `json:"riskFactors"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// Store persists assessments for the audit trail.
type Store interface {
	Record(ctx context.Context, a *Assessment) error
	ListRecent(ctx context.Context, limit int) ([]*Assessment, error)
}
