// Package transactions manages the monitored card transaction feed: a
// generator producing realistic demo traffic, persistent storage, and the
// HTTP surface for browsing and filtering it.
package transactions

import (
	"context"
	"errors"
	"time"

	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/pagination"
)

// Sentinel errors.
var (
	ErrNotFound = errors.New("transaction not found")
)

// CardType is the card network a transaction was made on.
type CardType string

const (
	CardVisa       CardType = "Visa"
	CardMastercard CardType = "Mastercard"
	CardAmex       CardType = "Amex"
	CardDiscover   CardType = "Discover"
)

// Status is the processing outcome of a transaction.
type Status string

const (
	StatusApproved Status = "Approved"
	StatusDeclined Status = "Declined"
	StatusFlagged  Status = "Flagged"
	StatusPending  Status = "Pending"
)

// Location is where the transaction originated.
type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// Transaction is one monitored card transaction.
type Transaction struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	CardNumber  string    `json:"cardNumber"`
	CardType    CardType  `json:"cardType"`
	Amount      float64   `json:"amount"`
	Merchant    string    `json:"merchant"`
	Location    Location  `json:"location"`
	Device      string    `json:"device"`
	IPAddress   string    `json:"ipAddress"`
	RiskScore   int       `json:"riskScore"`
	Status      Status    `json:"status"`
	RiskFactors []string  `json:"riskFactors,omitempty"`
}

// ListFilter narrows a transaction listing.
type ListFilter struct {
	// Status filters to one processing outcome; empty means all.
	Status Status
	// Search matches a substring of the merchant name, card number, or ID.
	Search string
	// MinRiskScore drops transactions scoring below the threshold.
	MinRiskScore int
	// Cursor resumes a previous page; nil starts from the newest.
	Cursor *pagination.Cursor
	// Limit caps the page size. Stores fetch Limit+1 rows so the caller
	// can compute has_more.
	Limit int
}

// Store persists transactions.
type Store interface {
	Insert(ctx context.Context, tx *Transaction) error
	Get(ctx context.Context, id string) (*Transaction, error)
	List(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	Count(ctx context.Context) (int, error)
}
