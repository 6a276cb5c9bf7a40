package fraud

import "math"

// SynthesizePattern derives a realistic-looking historical pattern from a
// card number. The output is deterministic: the same card number always
// yields the same pattern. It exists to furnish demo context for the
// verification flow; production callers supply real history instead.
func SynthesizePattern(cardNumber string) *HistoricalPattern {
	// 32-bit string hash, wrapping on overflow.
	var h int32
	for _, r := range cardNumber {
		h = (h << 5) - h + int32(r)
	}

	random := math.Abs(float64(h)) / float64(math.MaxInt32)

	return &HistoricalPattern{
		OwnerID:           last4(cardNumber),
		AvgAmount:         150 + random*500,
		FrequentMerchants: []string{"Amazon", "Walmart", "Target", "Starbucks"},
		UsualCountries:    []string{"United States", "Canada"},
		TypicalHours:      []int{9, 12, 15, 18, 21},
		Usage: UsageHistory{
			TotalTransactions:    int(math.Floor(50 + random*200)),
			DeclinedTransactions: int(math.Floor(random * 5)),
			FlaggedTransactions:  int(math.Floor(random * 3)),
		},
	}
}
