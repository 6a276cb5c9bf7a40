// Package analytics computes aggregate fraud statistics over the
// transaction feed for the monitoring dashboard.
package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/fraud"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/transactions"
)

// Overview is the headline dashboard summary.
type Overview struct {
	TotalTransactions    int     `json:"totalTransactions"`
	FlaggedTransactions  int     `json:"flaggedTransactions"`
	DeclinedTransactions int     `json:"declinedTransactions"`
	ApprovedTransactions int     `json:"approvedTransactions"`
	HighRiskTransactions int     `json:"highRiskTransactions"`
	AvgRiskScore         int     `json:"avgRiskScore"`
	TotalAmount          float64 `json:"totalAmount"`
}

// RiskBucket is one tier of the risk score distribution.
type RiskBucket struct {
	Tier  string `json:"tier"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

// DailyVolume is one day's transaction activity.
type DailyVolume struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	Count        int     `json:"count"`
	AvgRiskScore float64 `json:"avgRiskScore"`
	TotalAmount  float64 `json:"totalAmount"`
}

// MerchantStats summarizes activity for one merchant.
type MerchantStats struct {
	Merchant     string  `json:"merchant"`
	Count        int     `json:"count"`
	AvgRiskScore float64 `json:"avgRiskScore"`
	TotalAmount  float64 `json:"totalAmount"`
}

// CountryStats summarizes activity for one country.
type CountryStats struct {
	Country      string  `json:"country"`
	Count        int     `json:"count"`
	AvgRiskScore float64 `json:"avgRiskScore"`
}

// ModelStats reports static scoring pipeline characteristics. The engine is
// a fixed rule set; these figures describe it, they are not measured live.
type ModelStats struct {
	ModelVersion      string              `json:"modelVersion"`
	Accuracy          float64             `json:"accuracy"`
	FalsePositiveRate float64             `json:"falsePositiveRate"`
	AvgProcessingMS   float64             `json:"avgProcessingMs"`
	TrainingSamples   int                 `json:"trainingSamples"`
	FeatureImportance []FeatureImportance `json:"featureImportance"`
}

// FeatureImportance ranks one scoring input.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"` // percent
}

// FraudPattern is one recognized attack pattern reported on the dashboard.
type FraudPattern struct {
	Pattern     string `json:"pattern"`
	Frequency   int    `json:"frequency"`
	Trend       string `json:"trend"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Service computes analytics over a transaction store.
type Service struct {
	store transactions.Store
	clock func() time.Time
}

// NewService creates an analytics service.
func NewService(store transactions.Store) *Service {
	return &Service{store: store, clock: time.Now}
}

// WithClock overrides the time source used for daily bucketing.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

func (s *Service) all(ctx context.Context) ([]*transactions.Transaction, error) {
	return s.store.List(ctx, transactions.ListFilter{})
}

// Overview computes the headline summary.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	txs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	o := &Overview{TotalTransactions: len(txs)}
	var scoreSum int
	for _, tx := range txs {
		switch tx.Status {
		case transactions.StatusFlagged:
			o.FlaggedTransactions++
		case transactions.StatusDeclined:
			o.DeclinedTransactions++
		case transactions.StatusApproved:
			o.ApprovedTransactions++
		}
		if tx.RiskScore >= 70 {
			o.HighRiskTransactions++
		}
		scoreSum += tx.RiskScore
		o.TotalAmount += tx.Amount
	}
	if len(txs) > 0 {
		o.AvgRiskScore = int(math.Round(float64(scoreSum) / float64(len(txs))))
	}
	o.TotalAmount = math.Round(o.TotalAmount*100) / 100
	return o, nil
}

// RiskDistribution buckets transactions into the four scoring tiers.
func (s *Service) RiskDistribution(ctx context.Context) ([]RiskBucket, error) {
	txs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	buckets := []RiskBucket{
		{Tier: "LOW", Min: 0, Max: 39},
		{Tier: "MEDIUM", Min: 40, Max: 69},
		{Tier: "HIGH", Min: 70, Max: 84},
		{Tier: "CRITICAL", Min: 85, Max: 100},
	}
	for _, tx := range txs {
		for i := range buckets {
			if tx.RiskScore >= buckets[i].Min && tx.RiskScore <= buckets[i].Max {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets, nil
}

// DailyVolume aggregates the last days days of activity, oldest first.
// Days with no traffic appear with zero counts.
func (s *Service) DailyVolume(ctx context.Context, days int) ([]DailyVolume, error) {
	txs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count    int
		scoreSum int
		amount   float64
	}

	today := s.clock().UTC().Truncate(24 * time.Hour)
	byDay := make(map[string]*acc, days)
	var out []DailyVolume
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format("2006-01-02")
		byDay[date] = &acc{}
		out = append(out, DailyVolume{Date: date})
	}

	for _, tx := range txs {
		date := tx.Timestamp.UTC().Format("2006-01-02")
		if a, ok := byDay[date]; ok {
			a.count++
			a.scoreSum += tx.RiskScore
			a.amount += tx.Amount
		}
	}

	for i := range out {
		a := byDay[out[i].Date]
		out[i].Count = a.count
		out[i].TotalAmount = math.Round(a.amount*100) / 100
		if a.count > 0 {
			out[i].AvgRiskScore = math.Round(float64(a.scoreSum)/float64(a.count)*10) / 10
		}
	}
	return out, nil
}

// TopMerchants returns the busiest merchants, highest transaction count
// first.
func (s *Service) TopMerchants(ctx context.Context, limit int) ([]MerchantStats, error) {
	txs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count    int
		scoreSum int
		amount   float64
	}
	byMerchant := make(map[string]*acc)
	for _, tx := range txs {
		a, ok := byMerchant[tx.Merchant]
		if !ok {
			a = &acc{}
			byMerchant[tx.Merchant] = a
		}
		a.count++
		a.scoreSum += tx.RiskScore
		a.amount += tx.Amount
	}

	out := make([]MerchantStats, 0, len(byMerchant))
	for merchant, a := range byMerchant {
		out = append(out, MerchantStats{
			Merchant:     merchant,
			Count:        a.count,
			AvgRiskScore: math.Round(float64(a.scoreSum)/float64(a.count)*10) / 10,
			TotalAmount:  math.Round(a.amount*100) / 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Merchant < out[j].Merchant
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Countries aggregates activity by origin country, riskiest first.
func (s *Service) Countries(ctx context.Context) ([]CountryStats, error) {
	txs, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		count    int
		scoreSum int
	}
	byCountry := make(map[string]*acc)
	for _, tx := range txs {
		a, ok := byCountry[tx.Location.Country]
		if !ok {
			a = &acc{}
			byCountry[tx.Location.Country] = a
		}
		a.count++
		a.scoreSum += tx.RiskScore
	}

	out := make([]CountryStats, 0, len(byCountry))
	for country, a := range byCountry {
		out = append(out, CountryStats{
			Country:      country,
			Count:        a.count,
			AvgRiskScore: math.Round(float64(a.scoreSum)/float64(a.count)*10) / 10,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgRiskScore != out[j].AvgRiskScore {
			return out[i].AvgRiskScore > out[j].AvgRiskScore
		}
		return out[i].Country < out[j].Country
	})
	return out, nil
}

// ModelStats returns the static pipeline characteristics.
func (s *Service) ModelStats() *ModelStats {
	return &ModelStats{
		ModelVersion:      fraud.ModelVersion,
		Accuracy:          97.8,
		FalsePositiveRate: 1.2,
		AvgProcessingMS:   12,
		TrainingSamples:   2400000,
		FeatureImportance: []FeatureImportance{
			{Feature: "Transaction Amount", Importance: 28.5},
			{Feature: "Merchant Category", Importance: 22.1},
			{Feature: "Geographic Location", Importance: 18.7},
			{Feature: "Transaction Velocity", Importance: 15.3},
			{Feature: "Device Fingerprint", Importance: 9.2},
			{Feature: "Time Patterns", Importance: 6.2},
		},
	}
}

// FraudPatterns returns the recognized attack pattern summaries.
func (s *Service) FraudPatterns() []FraudPattern {
	return []FraudPattern{
		{
			Pattern:     "Velocity Attacks",
			Frequency:   23,
			Trend:       "+15%",
			Severity:    "HIGH",
			Description: "Multiple rapid transactions from same card",
		},
		{
			Pattern:     "Geographic Anomalies",
			Frequency:   18,
			Trend:       "+8%",
			Severity:    "MEDIUM",
			Description: "Transactions from unusual locations",
		},
		{
			Pattern:     "Amount Clustering",
			Frequency:   12,
			Trend:       "-5%",
			Severity:    "MEDIUM",
			Description: "Suspicious round-number transactions",
		},
		{
			Pattern:     "Device Spoofing",
			Frequency:   8,
			Trend:       "+22%",
			Severity:    "HIGH",
			Description: "Fake or manipulated device fingerprints",
		},
	}
}
