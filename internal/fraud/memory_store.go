package fraud

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory assessment store for demo mode and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	assessments []*Assessment
}

// NewMemoryStore creates an in-memory assessment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(_ context.Context, a *Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	cp.RiskFactors = make([]RiskFactor, len(a.RiskFactors))
	copy(cp.RiskFactors, a.RiskFactors)
	s.assessments = append(s.assessments, &cp)
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]*Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.assessments) - limit
	if start < 0 {
		start = 0
	}

	// Most recent first.
	result := make([]*Assessment, 0, len(s.assessments)-start)
	for i := len(s.assessments) - 1; i >= start; i-- {
		cp := *s.assessments[i]
		cp.RiskFactors = make([]RiskFactor, len(s.assessments[i].RiskFactors))
		copy(cp.RiskFactors, s.assessments[i].RiskFactors)
		result = append(result, &cp)
	}
	return result, nil
}

var _ Store = (*MemoryStore)(nil)
