package seen

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sjsage522/listingwatcher/logger"
	apperrors "sjsage522/listingwatcher/pkg/errors"
)

const createSeenTable = `
CREATE TABLE IF NOT EXISTS seen_listings (
	url     TEXT PRIMARY KEY,
	seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore persists the seen set in the seen_listings table
type PostgresStore struct {
	memberSet
	pool *pgxpool.Pool
}

// NewPostgresStore opens a pool, ensures the table exists and loads every URL
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}

	if _, err := pool.Exec(ctx, createSeenTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create seen_listings: %w", err)
	}

	rows, err := pool.Query(ctx, `SELECT url FROM seen_listings`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to load seen_listings: %w", err)
	}
	urls, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to scan seen_listings: %w", err)
	}

	logger.ForStore().Info().
		Int("count", len(urls)).
		Msg("Loaded seen listings from Postgres")

	s := &PostgresStore{pool: pool}
	s.load(urls)
	return s, nil
}

// Add inserts url; a row that already exists counts as persisted
func (s *PostgresStore) Add(ctx context.Context, url string) error {
	return s.add(url, func() error {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO seen_listings (url) VALUES ($1) ON CONFLICT (url) DO NOTHING`, url)
		if err != nil {
			return apperrors.NewPersistence("postgres", "failed to insert seen listing", err)
		}
		return nil
	})
}

// Close closes the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
