package fraud

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists assessments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the fraud_assessments table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fraud_assessments (
			id             VARCHAR(36) PRIMARY KEY,
			card_last4     VARCHAR(4) NOT NULL,
			risk_score     INTEGER NOT NULL CHECK (risk_score >= 0 AND risk_score <= 100),
			risk_level     VARCHAR(10) NOT NULL CHECK (risk_level IN ('LOW', 'MEDIUM', 'HIGH', 'CRITICAL')),
			recommendation VARCHAR(15) NOT NULL,
			risk_factors   JSONB NOT NULL DEFAULT '[]',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_fraud_assessments_created
			ON fraud_assessments (created_at DESC);
	`)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, a *Assessment) error {
	factorsJSON, err := json.Marshal(a.RiskFactors)
	if err != nil {
		return fmt.Errorf("failed to marshal risk factors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fraud_assessments (id, card_last4, risk_score, risk_level, recommendation, risk_factors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		a.ID,
		a.CardLast4,
		a.RiskScore,
		string(a.RiskLevel),
		string(a.Recommendation),
		factorsJSON,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]*Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_last4, risk_score, risk_level, recommendation, risk_factors, created_at
		FROM fraud_assessments
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Assessment
	for rows.Next() {
		var a Assessment
		var factorsJSON []byte
		var createdAt time.Time

		if err := rows.Scan(&a.ID, &a.CardLast4, &a.RiskScore, &a.RiskLevel, &a.Recommendation, &factorsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		a.CreatedAt = createdAt
		if err := json.Unmarshal(factorsJSON, &a.RiskFactors); err != nil {
			return nil, fmt.Errorf("failed to decode risk factors for %s: %w", a.ID, err)
		}
		result = append(result, &a)
	}
	return result, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
