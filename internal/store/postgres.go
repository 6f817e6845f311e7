package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists each namespace as a single JSONB row.
// The upsert is one statement, so replacement is transactional.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL, verifies the connection, and
// ensures the state table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: create connection pool: %v", ErrUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %v", ErrUnavailable, err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS gateway_state (
			namespace  TEXT PRIMARY KEY,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("%w: ensure schema: %v", ErrUnavailable, err)
	}
	return nil
}

// Load fetches and decodes a namespace row.
func (s *PostgresStore) Load(ctx context.Context, namespace string, dest any) (bool, error) {
	query := `SELECT data FROM gateway_state WHERE namespace = $1`

	var data []byte
	err := s.pool.QueryRow(ctx, query, namespace).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: select %s: %v", ErrUnavailable, namespace, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", namespace, err)
	}
	return true, nil
}

// Save upserts a namespace row in a single statement.
func (s *PostgresStore) Save(ctx context.Context, namespace string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", namespace, err)
	}

	query := `
		INSERT INTO gateway_state (namespace, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (namespace)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, namespace, data); err != nil {
		return fmt.Errorf("%w: upsert %s: %v", ErrUnavailable, namespace, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
