package transactions

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/idgen"
)

// Pools the generator draws from. Ordering within each pool groups entries
// by risk class; risk is decided by lookup, not position.
var (
	merchantPool = []string{
		// Low risk
		"Amazon", "Walmart", "Target", "Apple Store", "Best Buy", "Home Depot", "Costco", "Starbucks",
		// Medium risk
		"Netflix", "Uber", "DoorDash", "Airbnb", "Spotify", "Digital Ocean", "eBay", "Shopify Store",
		// High risk
		"Online Electronics Store", "Gaming Platform", "Travel Booking", "Digital Downloads",
		"Crypto Exchange", "Online Casino", "Gift Card Store", "Virtual Goods",
	}

	highRiskMerchants   = []string{"Crypto Exchange", "Online Casino", "Gift Card Store", "Virtual Goods"}
	mediumRiskMerchants = []string{"Gaming Platform", "Travel Booking", "Digital Downloads"}

	locationPool = []locationEntry{
		{Location{"United States", "New York"}, riskLow},
		{Location{"United States", "San Francisco"}, riskLow},
		{Location{"United States", "Los Angeles"}, riskLow},
		{Location{"Canada", "Toronto"}, riskLow},
		{Location{"United Kingdom", "London"}, riskLow},
		{Location{"Germany", "Berlin"}, riskLow},
		{Location{"Australia", "Sydney"}, riskLow},
		{Location{"Japan", "Tokyo"}, riskLow},
		{Location{"Brazil", "Sao Paulo"}, riskMedium},
		{Location{"India", "Mumbai"}, riskMedium},
		{Location{"Mexico", "Mexico City"}, riskMedium},
		{Location{"Turkey", "Istanbul"}, riskMedium},
		{Location{"Nigeria", "Lagos"}, riskHigh},
		{Location{"Romania", "Bucharest"}, riskHigh},
		{Location{"Ghana", "Accra"}, riskHigh},
		{Location{"Indonesia", "Jakarta"}, riskHigh},
	}

	cardTypePool = []CardType{CardVisa, CardMastercard, CardAmex, CardDiscover}

	devicePool = []string{
		"iPhone 14", "iPhone 13", "Samsung Galaxy S22", "Samsung Galaxy S21", "MacBook Pro",
		"Windows PC", "iPad Pro", "Android Tablet", "Chrome Browser", "Firefox Browser",
		"Unknown Device", "Linux Desktop", "MacBook Air",
	}
)

type riskClass int

const (
	riskLow riskClass = iota
	riskMedium
	riskHigh
)

type locationEntry struct {
	loc  Location
	risk riskClass
}

// Generator produces demo transactions with a realistic risk distribution.
// Seeded generators are deterministic; concurrent use requires external
// synchronization because of the shared rand source.
type Generator struct {
	rng   *rand.Rand
	clock func() time.Time
}

// NewGenerator creates a generator. Seed 0 falls back to the current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		clock: time.Now,
	}
}

// WithClock overrides the time source. Tests inject a frozen clock here.
func (g *Generator) WithClock(clock func() time.Time) *Generator {
	g.clock = clock
	return g
}

// Generate produces count transactions timestamped within the last seven
// days, sorted most recent first.
func (g *Generator) Generate(count int) []*Transaction {
	txs := make([]*Transaction, 0, count)
	for i := 0; i < count; i++ {
		txs = append(txs, g.GenerateOne())
	}
	sort.Slice(txs, func(i, j int) bool {
		return txs[i].Timestamp.After(txs[j].Timestamp)
	})
	return txs
}

// GenerateOne produces a single transaction.
func (g *Generator) GenerateOne() *Transaction {
	cardType := cardTypePool[g.rng.Intn(len(cardTypePool))]
	cardNumber := g.cardNumber(cardType)
	entry := locationPool[g.rng.Intn(len(locationPool))]
	merchant := merchantPool[g.rng.Intn(len(merchantPool))]

	base := g.rng.Float64() * 30

	switch entry.risk {
	case riskHigh:
		base += 30
	case riskMedium:
		base += 15
	}

	switch merchantRisk(merchant) {
	case riskHigh:
		base += 25
	case riskMedium:
		base += 15
	}

	var amount float64
	if g.rng.Float64() < 0.1 {
		// Occasional high-value transaction
		amount = round2(g.rng.Float64()*5000 + 1000)
		base += 20
	} else {
		amount = round2(g.rng.Float64()*500 + 5)
	}

	if math.Mod(amount, 100) == 0 && amount > 500 {
		base += 15
	}

	score := int(math.Round(base))
	if score > 100 {
		score = 100
	}

	ts := g.clock().Add(-time.Duration(g.rng.Int63n(7 * 24 * int64(time.Hour))))

	return &Transaction{
		ID:          idgen.WithPrefix("txn_"),
		Timestamp:   ts,
		CardNumber:  cardNumber,
		CardType:    cardType,
		Amount:      amount,
		Merchant:    merchant,
		Location:    entry.loc,
		Device:      devicePool[g.rng.Intn(len(devicePool))],
		IPAddress:   g.ipAddress(),
		RiskScore:   score,
		Status:      g.status(score),
		RiskFactors: g.riskFactors(score, amount, merchant, entry),
	}
}

// status maps a risk score to an outcome. Scores in [60, 70) are flagged
// probabilistically to mimic a review queue that samples borderline traffic.
func (g *Generator) status(score int) Status {
	switch {
	case score >= 85:
		return StatusDeclined
	case score >= 70:
		return StatusFlagged
	case score >= 60 && g.rng.Float64() > 0.7:
		return StatusFlagged
	default:
		return StatusApproved
	}
}

func (g *Generator) riskFactors(score int, amount float64, merchant string, entry locationEntry) []string {
	if score < 30 {
		return nil
	}

	var factors []string

	if amount > 5000 {
		factors = append(factors, "High transaction amount")
	}
	if math.Mod(amount, 100) == 0 && amount > 1000 {
		factors = append(factors, "Round number transaction")
	}

	switch entry.risk {
	case riskHigh:
		factors = append(factors, "High-risk geographic location")
	case riskMedium:
		factors = append(factors, "Elevated-risk geographic location")
	}

	switch merchantRisk(merchant) {
	case riskHigh:
		factors = append(factors, "High-risk merchant category")
	case riskMedium:
		factors = append(factors, "Medium-risk merchant category")
	}

	if hour := g.clock().Hour(); hour >= 2 && hour <= 6 {
		factors = append(factors, "Unusual transaction time")
	}

	if score >= 70 {
		factors = append(factors, "Multiple risk indicators detected")
	}
	if score >= 60 {
		factors = append(factors, "Behavioral pattern anomaly")
	}
	if score >= 50 {
		factors = append(factors, "Device fingerprint mismatch")
	}

	max := score / 15
	if max > 5 {
		max = 5
	}
	if len(factors) > max {
		factors = factors[:max]
	}
	return factors
}

func (g *Generator) cardNumber(cardType CardType) string {
	prefix := "4"
	length := 16

	switch cardType {
	case CardMastercard:
		prefix = "5"
	case CardAmex:
		prefix = "3"
		length = 15
	case CardDiscover:
		prefix = "6"
	}

	var b strings.Builder
	b.WriteString(prefix)
	for b.Len() < length {
		b.WriteByte(byte('0' + g.rng.Intn(10)))
	}
	return b.String()
}

func (g *Generator) ipAddress() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256))
}

func merchantRisk(merchant string) riskClass {
	for _, m := range highRiskMerchants {
		if strings.Contains(merchant, m) {
			return riskHigh
		}
	}
	for _, m := range mediumRiskMerchants {
		if strings.Contains(merchant, m) {
			return riskMedium
		}
	}
	return riskLow
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
