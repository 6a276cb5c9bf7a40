package transactions

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory transaction store for demo mode and tests.
type MemoryStore struct {
	mu  sync.RWMutex
	txs map[string]*Transaction
}

// NewMemoryStore creates an in-memory transaction store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[string]*Transaction)}
}

func (s *MemoryStore) Insert(_ context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := copyTx(tx)
	s.txs[cp.ID] = cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTx(tx), nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)

	var result []*Transaction
	for _, tx := range s.txs {
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		if tx.RiskScore < filter.MinRiskScore {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Merchant), search) &&
			!strings.Contains(tx.CardNumber, search) &&
			!strings.Contains(strings.ToLower(tx.ID), search) {
			continue
		}
		result = append(result, copyTx(tx))
	}

	// Newest first; ID breaks timestamp ties so pagination is stable.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].ID > result[j].ID
	})

	if filter.Cursor != nil {
		idx := 0
		for idx < len(result) {
			tx := result[idx]
			if tx.Timestamp.Before(filter.Cursor.CreatedAt) ||
				(tx.Timestamp.Equal(filter.Cursor.CreatedAt) && tx.ID < filter.Cursor.ID) {
				break
			}
			idx++
		}
		result = result[idx:]
	}

	if filter.Limit > 0 && len(result) > filter.Limit+1 {
		result = result[:filter.Limit+1]
	}
	return result, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs), nil
}

func copyTx(tx *Transaction) *Transaction {
	cp := *tx
	cp.RiskFactors = make([]string, len(tx.RiskFactors))
	copy(cp.RiskFactors, tx.RiskFactors)
	return &cp
}

var _ Store = (*MemoryStore)(nil)
