package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/transactions"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 12, 14, 0, 0, 0, time.UTC)
}

func seededService(t *testing.T) *Service {
	t.Helper()
	store := transactions.NewMemoryStore()
	ctx := context.Background()

	// Two days of traffic: yesterday three approved low-risk at Amazon,
	// today one declined critical and one flagged high at Crypto Exchange.
	entries := []struct {
		id       string
		daysAgo  int
		amount   float64
		merchant string
		country  string
		score    int
		status   transactions.Status
	}{
		{"txn_a", 1, 20, "Amazon", "United States", 10, transactions.StatusApproved},
		{"txn_b", 1, 30, "Amazon", "United States", 20, transactions.StatusApproved},
		{"txn_c", 1, 50, "Walmart", "Canada", 30, transactions.StatusApproved},
		{"txn_d", 0, 2000, "Crypto Exchange", "Nigeria", 90, transactions.StatusDeclined},
		{"txn_e", 0, 400, "Crypto Exchange", "Nigeria", 75, transactions.StatusFlagged},
	}
	for _, e := range entries {
		err := store.Insert(ctx, &transactions.Transaction{
			ID:        e.id,
			Timestamp: fixedNow().AddDate(0, 0, -e.daysAgo),
			Amount:    e.amount,
			Merchant:  e.merchant,
			Location:  transactions.Location{Country: e.country},
			RiskScore: e.score,
			Status:    e.status,
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	return NewService(store).WithClock(fixedNow)
}

func TestOverview(t *testing.T) {
	svc := seededService(t)

	o, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}

	if o.TotalTransactions != 5 {
		t.Errorf("TotalTransactions = %d, want 5", o.TotalTransactions)
	}
	if o.ApprovedTransactions != 3 || o.FlaggedTransactions != 1 || o.DeclinedTransactions != 1 {
		t.Errorf("status counts = %d/%d/%d, want 3/1/1",
			o.ApprovedTransactions, o.FlaggedTransactions, o.DeclinedTransactions)
	}
	if o.HighRiskTransactions != 2 {
		t.Errorf("HighRiskTransactions = %d, want 2", o.HighRiskTransactions)
	}
	// (10+20+30+90+75)/5 = 45
	if o.AvgRiskScore != 45 {
		t.Errorf("AvgRiskScore = %d, want 45", o.AvgRiskScore)
	}
	if o.TotalAmount != 2500 {
		t.Errorf("TotalAmount = %v, want 2500", o.TotalAmount)
	}
}

func TestOverviewEmptyStore(t *testing.T) {
	svc := NewService(transactions.NewMemoryStore()).WithClock(fixedNow)

	o, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if o.TotalTransactions != 0 || o.AvgRiskScore != 0 {
		t.Errorf("empty overview = %+v", o)
	}
}

func TestRiskDistribution(t *testing.T) {
	svc := seededService(t)

	buckets, err := svc.RiskDistribution(context.Background())
	if err != nil {
		t.Fatalf("RiskDistribution: %v", err)
	}

	want := map[string]int{"LOW": 3, "MEDIUM": 0, "HIGH": 1, "CRITICAL": 1}
	total := 0
	for _, b := range buckets {
		if b.Count != want[b.Tier] {
			t.Errorf("bucket %s = %d, want %d", b.Tier, b.Count, want[b.Tier])
		}
		total += b.Count
	}
	if total != 5 {
		t.Errorf("bucket total = %d, want 5", total)
	}
}

func TestDailyVolume(t *testing.T) {
	svc := seededService(t)

	days, err := svc.DailyVolume(context.Background(), 7)
	if err != nil {
		t.Fatalf("DailyVolume: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("len = %d, want 7", len(days))
	}

	// Oldest first; today is the last entry.
	today := days[6]
	if today.Date != "2025-03-12" || today.Count != 2 {
		t.Errorf("today = %+v, want 2025-03-12 with 2 transactions", today)
	}
	if today.AvgRiskScore != 82.5 {
		t.Errorf("today avg = %v, want 82.5", today.AvgRiskScore)
	}

	yesterday := days[5]
	if yesterday.Count != 3 {
		t.Errorf("yesterday count = %d, want 3", yesterday.Count)
	}

	// Quiet days present with zero counts
	if days[0].Count != 0 {
		t.Errorf("oldest day count = %d, want 0", days[0].Count)
	}
}

func TestTopMerchants(t *testing.T) {
	svc := seededService(t)

	merchants, err := svc.TopMerchants(context.Background(), 2)
	if err != nil {
		t.Fatalf("TopMerchants: %v", err)
	}
	if len(merchants) != 2 {
		t.Fatalf("len = %d, want 2", len(merchants))
	}

	// Amazon and Crypto Exchange tie at 2; alphabetical breaks the tie.
	if merchants[0].Merchant != "Amazon" || merchants[0].Count != 2 {
		t.Errorf("first = %+v, want Amazon x2", merchants[0])
	}
	if merchants[1].Merchant != "Crypto Exchange" {
		t.Errorf("second = %+v, want Crypto Exchange", merchants[1])
	}
	if merchants[1].AvgRiskScore != 82.5 {
		t.Errorf("Crypto Exchange avg = %v, want 82.5", merchants[1].AvgRiskScore)
	}
}

func TestCountries(t *testing.T) {
	svc := seededService(t)

	countries, err := svc.Countries(context.Background())
	if err != nil {
		t.Fatalf("Countries: %v", err)
	}
	if len(countries) != 3 {
		t.Fatalf("len = %d, want 3", len(countries))
	}
	if countries[0].Country != "Nigeria" {
		t.Errorf("riskiest = %s, want Nigeria", countries[0].Country)
	}
	if countries[0].AvgRiskScore != 82.5 {
		t.Errorf("Nigeria avg = %v, want 82.5", countries[0].AvgRiskScore)
	}
}

func TestModelStatsStatic(t *testing.T) {
	svc := seededService(t)

	m := svc.ModelStats()
	if m.ModelVersion != "v2.1.0" {
		t.Errorf("ModelVersion = %s, want v2.1.0", m.ModelVersion)
	}

	var sum float64
	for _, f := range m.FeatureImportance {
		sum += f.Importance
	}
	if fmt.Sprintf("%.1f", sum) != "100.0" {
		t.Errorf("feature importance sums to %.1f, want 100.0", sum)
	}
}

func TestFraudPatterns(t *testing.T) {
	svc := seededService(t)

	patterns := svc.FraudPatterns()
	if len(patterns) != 4 {
		t.Fatalf("len = %d, want 4", len(patterns))
	}
	for _, p := range patterns {
		if p.Pattern == "" || p.Description == "" || p.Severity == "" {
			t.Errorf("incomplete pattern: %+v", p)
		}
	}
}
