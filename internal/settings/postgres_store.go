package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore persists settings in PostgreSQL as a single JSONB document.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed settings store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the settings table and seeds the default document.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS settings (
			id         VARCHAR(16) PRIMARY KEY,
			document   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}

	doc, err := json.Marshal(Defaults())
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, document) VALUES ('default', $1)
		ON CONFLICT (id) DO NOTHING
	`, doc)
	return err
}

func (s *PostgresStore) Get(ctx context.Context) (*Settings, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM settings WHERE id = 'default'`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(doc, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

func (s *PostgresStore) Put(ctx context.Context, settings *Settings) error {
	doc, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, document, updated_at) VALUES ('default', $1, NOW())
		ON CONFLICT (id) DO UPDATE SET document = $1, updated_at = NOW()
	`, doc)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
