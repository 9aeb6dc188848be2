// Package storage provides the cache persistence backends: in-memory,
// JSON file, and Postgres.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geo-alert-engine/internal/cache"
	"geo-alert-engine/internal/config"
)

// PostgresStore keeps one snapshot row per manager name in manager_state.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, cfg config.Config) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Postgres.MaxIdleConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS manager_state (
			name       text PRIMARY KEY,
			state      jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure manager_state table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) Load(ctx context.Context, name string) (*cache.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM manager_state WHERE name = $1`, name,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query manager state: %w", err)
	}

	var snap cache.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode manager state: %w", err)
	}
	return &snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, name string, snap *cache.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode manager state: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO manager_state (name, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET state = $2, updated_at = now()
	`, name, raw)
	if err != nil {
		return fmt.Errorf("upsert manager state: %w", err)
	}
	return nil
}
