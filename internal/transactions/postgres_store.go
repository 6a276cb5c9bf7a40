package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists transactions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed transaction store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the transactions table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id           VARCHAR(36) PRIMARY KEY,
			ts           TIMESTAMPTZ NOT NULL,
			card_number  VARCHAR(19) NOT NULL,
			card_type    VARCHAR(12) NOT NULL,
			amount       NUMERIC(12,2) NOT NULL,
			merchant     TEXT NOT NULL,
			country      TEXT NOT NULL DEFAULT '',
			city         TEXT NOT NULL DEFAULT '',
			device       TEXT NOT NULL DEFAULT '',
			ip_address   VARCHAR(45) NOT NULL DEFAULT '',
			risk_score   INTEGER NOT NULL CHECK (risk_score >= 0 AND risk_score <= 100),
			status       VARCHAR(10) NOT NULL CHECK (status IN ('Approved', 'Declined', 'Flagged', 'Pending')),
			risk_factors TEXT[] NOT NULL DEFAULT '{}'
		);

		CREATE INDEX IF NOT EXISTS idx_transactions_ts ON transactions (ts DESC, id DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions (status);
	`)
	return err
}

func (s *PostgresStore) Insert(ctx context.Context, tx *Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, ts, card_number, card_type, amount, merchant, country, city, device, ip_address, risk_score, status, risk_factors)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		tx.ID, tx.Timestamp, tx.CardNumber, string(tx.CardType), tx.Amount,
		tx.Merchant, tx.Location.Country, tx.Location.City, tx.Device,
		tx.IPAddress, tx.RiskScore, string(tx.Status), pq.Array(tx.RiskFactors),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, ts, card_number, card_type, amount, merchant, country, city, device, ip_address, risk_score, status, risk_factors
		FROM transactions WHERE id = $1
	`, id)

	tx, err := scanTx(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tx, err
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	query := `
		SELECT id, ts, card_number, card_type, amount, merchant, country, city, device, ip_address, risk_score, status, risk_factors
		FROM transactions
		WHERE 1=1
	`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		query += " AND status = " + arg(string(filter.Status))
	}
	if filter.MinRiskScore > 0 {
		query += " AND risk_score >= " + arg(filter.MinRiskScore)
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		query += fmt.Sprintf(" AND (merchant ILIKE %s OR card_number LIKE %s OR id ILIKE %s)", p, p, p)
	}
	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (ts, id) < (%s, %s)",
			arg(filter.Cursor.CreatedAt), arg(filter.Cursor.ID))
	}

	query += " ORDER BY ts DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit+1)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*Transaction
	for rows.Next() {
		tx, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTx(row rowScanner) (*Transaction, error) {
	var tx Transaction
	var factors pq.StringArray
	err := row.Scan(
		&tx.ID, &tx.Timestamp, &tx.CardNumber, &tx.CardType, &tx.Amount,
		&tx.Merchant, &tx.Location.Country, &tx.Location.City, &tx.Device,
		&tx.IPAddress, &tx.RiskScore, &tx.Status, &factors,
	)
	if err != nil {
		return nil, err
	}
	tx.RiskFactors = factors
	return &tx, nil
}

var _ Store = (*PostgresStore)(nil)
