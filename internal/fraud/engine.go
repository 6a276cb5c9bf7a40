package fraud

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/idgen"
)

// ModelVersion is a static label reported with every result. The engine is a
// fixed heuristic, not a trained model; the version only tracks rule changes.
const ModelVersion = "v2.1.0"

// Weights are the fixed per-analyzer combination weights. They sum to 1.0.
// BehavioralPattern is reserved: the weight exists in the table but no
// analyzer consumes it yet.
type Weights struct {
	AmountAnomaly     float64
	LocationRisk      float64
	TimeAnomaly       float64
	MerchantRisk      float64
	VelocityCheck     float64
	DeviceFingerprint float64
	BehavioralPattern float64
}

// MerchantKeyword is one entry in the ordered merchant risk table.
// The table is scanned top to bottom and the first substring match wins.
type MerchantKeyword struct {
	Keyword string
	Impact  Impact
}

// Config holds the immutable rule tables for one engine instance. Distinct
// configs can run side by side; nothing is shared between engines.
type Config struct {
	Weights             Weights
	MerchantKeywords    []MerchantKeyword
	HighRiskCountries   []string
	MediumRiskCountries []string
}

// DefaultConfig returns the production rule tables.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			AmountAnomaly:     0.25,
			LocationRisk:      0.20,
			TimeAnomaly:       0.15,
			MerchantRisk:      0.15,
			VelocityCheck:     0.10,
			DeviceFingerprint: 0.08,
			BehavioralPattern: 0.07,
		},
		// High-risk keywords come first so a high match short-circuits
		// before any medium keyword is considered.
		MerchantKeywords: []MerchantKeyword{
			{"crypto", ImpactHigh},
			{"bitcoin", ImpactHigh},
			{"gambling", ImpactHigh},
			{"casino", ImpactHigh},
			{"adult", ImpactHigh},
			{"escort", ImpactHigh},
			{"online", ImpactMedium},
			{"digital", ImpactMedium},
			{"virtual", ImpactMedium},
			{"gaming", ImpactMedium},
			{"gift card", ImpactMedium},
		},
		HighRiskCountries:   []string{"Nigeria", "Romania", "Ghana", "Indonesia"},
		MediumRiskCountries: []string{"Brazil", "India", "Philippines", "Turkey"},
	}
}

// Flat penalties and thresholds used by the analyzers.
const (
	luhnFailurePenalty = 50.0

	extremeAmountThreshold = 10000.0
	highAmountThreshold    = 5000.0
	roundAmountThreshold   = 1000.0

	velocityWindowDays = 30.0

	minUserAgentLength = 20
	minMerchantLength  = 3
)

// suspiciousMerchantPattern flags names that are all caps/digits/spaces,
// which usually means a raw terminal descriptor rather than a merchant name.
var suspiciousMerchantPattern = regexp.MustCompile(`^[A-Z0-9\s]+$`)

// subscore is the output of a single analyzer before weighting.
type subscore struct {
	score   float64
	factors []RiskFactor
}

// Engine scores transactions against immutable rule tables. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	cfg   Config
	store Store
	clock func() time.Time
}

// NewEngine creates a scoring engine with default rules. The store receives
// best-effort audit records and may be nil.
func NewEngine(store Store) *Engine {
	return &Engine{
		cfg:   DefaultConfig(),
		store: store,
		clock: time.Now,
	}
}

// WithConfig overrides the rule tables.
func (e *Engine) WithConfig(cfg Config) *Engine {
	e.cfg = cfg
	return e
}

// WithClock overrides the time source used when an input carries no
// timestamp. Tests inject a frozen clock here.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	e.clock = clock
	return e
}

// Analyze scores one transaction, optionally informed by the card's
// historical pattern. It never fails on well-formed input: missing optional
// fields are themselves mild risk signals, and malformed amounts (negative
// or NaN) are clamped to zero before scoring so the result stays in [0, 100].
func (e *Engine) Analyze(ctx context.Context, input *TransactionInput, pattern *HistoricalPattern) *FraudAnalysisResult {
	start := time.Now()

	amount := input.Amount
	if math.IsNaN(amount) || amount < 0 {
		amount = 0
	}

	ts := input.Timestamp
	if ts.IsZero() {
		ts = e.clock()
	}

	var factors []RiskFactor
	var total float64

	// Card integrity is a hard fraud signal: a Luhn failure adds a flat
	// penalty to the total, unscaled by any analyzer weight.
	if !ValidLuhn(input.CardNumber) {
		total += luhnFailurePenalty
		factors = append(factors, RiskFactor{
			Factor:      "Invalid Card Number",
			Weight:      0.5,
			Impact:      ImpactHigh,
			Description: "Card number fails Luhn algorithm validation",
		})
	}

	passes := []struct {
		weight float64
		run    func() subscore
	}{
		{e.cfg.Weights.AmountAnomaly, func() subscore { return e.analyzeAmount(amount, pattern) }},
		{e.cfg.Weights.LocationRisk, func() subscore { return e.analyzeLocation(input.Location) }},
		{e.cfg.Weights.TimeAnomaly, func() subscore { return e.analyzeTime(ts) }},
		{e.cfg.Weights.MerchantRisk, func() subscore { return e.analyzeMerchant(input.Merchant) }},
		{e.cfg.Weights.VelocityCheck, func() subscore { return e.analyzeVelocity(pattern) }},
		{e.cfg.Weights.DeviceFingerprint, func() subscore { return e.analyzeDevice(input.DeviceFingerprint, input.UserAgent) }},
	}
	for _, p := range passes {
		s := p.run()
		total += s.score * p.weight
		factors = append(factors, s.factors...)
	}

	finalScore := int(math.Round(clamp(total, 0, 100)))
	level, recommendation, confidence := classify(finalScore)

	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	result := &FraudAnalysisResult{
		RiskScore:      finalScore,
		RiskLevel:      level,
		Confidence:     confidence,
		RiskFactors:    factors,
		Recommendation: recommendation,
		ModelVersion:   ModelVersion,
		ProcessingMS:   math.Round(elapsed*100) / 100,
	}

	// Persist asynchronously (best-effort audit trail).
	if e.store != nil {
		a := &Assessment{
			ID:             idgen.WithPrefix("frd_"),
			CardLast4:      last4(input.CardNumber),
			RiskScore:      result.RiskScore,
			RiskLevel:      result.RiskLevel,
			Recommendation: result.Recommendation,
			RiskFactors:    factors,
			CreatedAt:      e.clock(),
		}
		go func() {
			_ = e.store.Record(context.Background(), a)
		}()
	}

	return result
}

// classify maps a final score to its tier, recommendation, and the fixed
// per-tier confidence label. Boundaries are exclusive and evaluated high to
// low: 85, 70, 40.
func classify(score int) (RiskLevel, Recommendation, float64) {
	switch {
	case score >= 85:
		return RiskCritical, RecommendDecline, 0.95
	case score >= 70:
		return RiskHigh, RecommendManualReview, 0.90
	case score >= 40:
		return RiskMedium, RecommendFlag, 0.80
	default:
		return RiskLow, RecommendApprove, 0.75
	}
}

// ValidLuhn reports whether the card number passes the Luhn checksum.
// Non-digit characters are ignored.
func ValidLuhn(cardNumber string) bool {
	var digits []int
	for _, r := range cardNumber {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func (e *Engine) analyzeAmount(amount float64, pattern *HistoricalPattern) subscore {
	var s subscore

	if amount > extremeAmountThreshold {
		s.score += 40
		s.factors = append(s.factors, RiskFactor{
			Factor:      "Extremely High Transaction Amount",
			Weight:      0.4,
			Impact:      ImpactHigh,
			Description: fmt.Sprintf("Transaction amount $%s exceeds normal limits", formatAmount(amount)),
		})
	} else if amount > highAmountThreshold {
		s.score += 25
		s.factors = append(s.factors, RiskFactor{
			Factor:      "High Transaction Amount",
			Weight:      0.25,
			Impact:      ImpactMedium,
			Description: fmt.Sprintf("Transaction amount $%s is above average", formatAmount(amount)),
		})
	}

	// Round amounts above the threshold are disproportionately fraudulent.
	if amount > roundAmountThreshold && math.Mod(amount, 100) == 0 {
		s.score += 15
		s.factors = append(s.factors, RiskFactor{
			Factor:      "Round Number Transaction",
			Weight:      0.15,
			Impact:      ImpactMedium,
			Description: "Round number amounts are statistically more likely to be fraudulent",
		})
	}

	if pattern != nil && pattern.AvgAmount > 0 {
		deviation := math.Abs(amount-pattern.AvgAmount) / pattern.AvgAmount
		if deviation > 5 {
			s.score += 30
			s.factors = append(s.factors, RiskFactor{
				Factor:      "Significant Deviation from User Pattern",
				Weight:      0.3,
				Impact:      ImpactHigh,
				Description: fmt.Sprintf("Amount deviates %.1f%% from user's average", deviation*100),
			})
		} else if deviation > 2 {
			s.score += 15
			s.factors = append(s.factors, RiskFactor{
				Factor:      "Moderate Deviation from User Pattern",
				Weight:      0.15,
				Impact:      ImpactMedium,
				Description: fmt.Sprintf("Amount deviates %.1f%% from user's average", deviation*100),
			})
		}
	}

	s.score = math.Min(s.score, 100)
	return s
}

func (e *Engine) analyzeLocation(loc *Location) subscore {
	var s subscore

	if loc == nil {
		s.score += 20
		s.factors = append(s.factors, RiskFactor{
			Factor:      "Unknown Location",
			Weight:      0.2,
			Impact:      ImpactMedium,
			Description: "Transaction location could not be determined",
		})
		return s
	}

	switch {
	case containsString(e.cfg.HighRiskCountries, loc.Country):
		s.score += 35
		s.factors = append(s.factors, RiskFactor{
			Factor:      "High-Risk Country",
			Weight:      0.35,
			Impact:      ImpactHigh,
			Description: fmt.Sprintf("Transaction from %s - elevated fraud risk region", loc.Country),
		})
	case containsString(e.cfg.MediumRiskCountries, loc.Country):
		s.score += 20
		s.factors = append(s.factors, RiskFactor{
			Factor:      "Medium-Risk Country",
			Weight:      0.2,
			Impact:      ImpactMedium,
			Description: fmt.Sprintf("Transaction from %s - moderate fraud risk region", loc.Country),
		})
	}

	return s
}

func (e *Engine) analyzeTime(ts time.Time) subscore {
	var s subscore
	hour := ts.Hour()

	if hour >= 2 && hour <= 6 {
		s.score += 25
		s.factors = append(s.factors, RiskFactor{
			Factor:      "Unusual Transaction Time",
			Weight:      0.25,
			Impact:      ImpactMedium,
			Description: fmt.Sprintf("Transaction at %d:00 is outside normal business hours", hour),
		})
	}

	if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
		s.score += 10
		s.factors = append(s.factors, RiskFactor{
			Factor:      "Weekend Transaction",
			Weight:      0.1,
			Impact:      ImpactLow,
			Description: "Weekend transactions have slightly higher fraud rates",
		})
	}

	return s
}

func (e *Engine) analyzeMerchant(merchant string) subscore {
	var s subscore
	lower := strings.ToLower(merchant)

	// Ordered table scan, first match wins. High-risk keywords sit ahead of
	// medium-risk ones, so a high match suppresses any medium match.
	for _, kw := range e.cfg.MerchantKeywords {
		if !strings.Contains(lower, kw.Keyword) {
			continue
		}
		if kw.Impact == ImpactHigh {
			s.score += 40
			s.factors = append(s.factors, RiskFactor{
				Factor:      "High-Risk Merchant Category",
				Weight:      0.4,
				Impact:      ImpactHigh,
				Description: fmt.Sprintf("Merchant %q operates in high-risk category", merchant),
			})
		} else {
			s.score += 20
			s.factors = append(s.factors, RiskFactor{
				Factor:      "Medium-Risk Merchant Category",
				Weight:      0.2,
				Impact:      ImpactMedium,
				Description: fmt.Sprintf("Merchant %q operates in elevated-risk category", merchant),
			})
		}
		break
	}

	if len(merchant) < minMerchantLength || suspiciousMerchantPattern.MatchString(merchant) {
		s.score += 15
		s.factors = append(s.factors, RiskFactor{
			Factor:      "Unknown or Suspicious Merchant",
			Weight:      0.15,
			Impact:      ImpactMedium,
			Description: "Merchant name appears suspicious or incomplete",
		})
	}

	return s
}

func (e *Engine) analyzeVelocity(pattern *HistoricalPattern) subscore {
	var s subscore
	if pattern == nil {
		return s
	}

	rate := float64(pattern.Usage.TotalTransactions) / velocityWindowDays
	if rate > 10 {
		s.score += 30
		s.factors = append(s.factors, RiskFactor{
			Factor:      "High Transaction Velocity",
			Weight:      0.3,
			Impact:      ImpactHigh,
			Description: fmt.Sprintf("Unusually high transaction frequency: %.1f per day", rate),
		})
	} else if rate > 5 {
		s.score += 15
		s.factors = append(s.factors, RiskFactor{
			Factor:      "Elevated Transaction Velocity",
			Weight:      0.15,
			Impact:      ImpactMedium,
			Description: fmt.Sprintf("Above-average transaction frequency: %.1f per day", rate),
		})
	}

	if pattern.Usage.TotalTransactions > 0 {
		declineRate := float64(pattern.Usage.DeclinedTransactions) / float64(pattern.Usage.TotalTransactions)
		if declineRate > 0.1 {
			s.score += 25
			s.factors = append(s.factors, RiskFactor{
				Factor:      "High Decline Rate",
				Weight:      0.25,
				Impact:      ImpactHigh,
				Description: fmt.Sprintf("%.1f%% of recent transactions were declined", declineRate*100),
			})
		}
	}

	return s
}

func (e *Engine) analyzeDevice(fingerprint, userAgent string) subscore {
	var s subscore

	if fingerprint == "" {
		s.score += 15
		s.factors = append(s.factors, RiskFactor{
			Factor:      "Missing Device Fingerprint",
			Weight:      0.15,
			Impact:      ImpactMedium,
			Description: "Device fingerprint unavailable - potential privacy tools or fraud",
		})
	}

	if userAgent != "" {
		if strings.Contains(userAgent, "bot") || strings.Contains(userAgent, "crawler") || len(userAgent) < minUserAgentLength {
			s.score += 25
			s.factors = append(s.factors, RiskFactor{
				Factor:      "Suspicious User Agent",
				Weight:      0.25,
				Impact:      ImpactHigh,
				Description: "User agent suggests automated or suspicious activity",
			})
		}

		if strings.Contains(userAgent, "MSIE") || strings.Contains(userAgent, "Chrome/5") {
			s.score += 10
			s.factors = append(s.factors, RiskFactor{
				Factor:      "Outdated Browser",
				Weight:      0.1,
				Impact:      ImpactLow,
				Description: "Outdated browser may indicate compromised system",
			})
		}
	}

	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// formatAmount renders an amount with thousands separators, e.g. 15000 →
// "15,000" and 1234.5 → "1,234.50".
func formatAmount(amount float64) string {
	whole := int64(amount)
	frac := amount - float64(whole)

	s := fmt.Sprintf("%d", whole)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 && c != '-' {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if frac > 1e-9 {
		return fmt.Sprintf("%s.%02d", out, int(math.Round(frac*100)))
	}
	return string(out)
}

func last4(cardNumber string) string {
	if len(cardNumber) <= 4 {
		return cardNumber
	}
	return cardNumber[len(cardNumber)-4:]
}
