// Package postgres implements the store Backend on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/and161185/stash/internal/migrate"
	"github.com/and161185/stash/internal/store"
)

// maxConns bounds the pool.
const maxConns = 4

// Pool is the subset of *pgxpool.Pool used by Backend.
// pgxmock.PgxPoolIface implements it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Backend stores values in the stash_kv table.
type Backend struct{ pool Pool }

var _ store.Backend = (*Backend)(nil)

// NewBackend constructs a backend over an existing pool.
func NewBackend(pool Pool) *Backend { return &Backend{pool: pool} }

// Open applies migrations and connects to dsn.
func Open(ctx context.Context, dsn string) (*Backend, error) {
	if err := migrate.Postgres(ctx, dsn); err != nil {
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = maxConns
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewBackend(pool), nil
}

// Get returns (nil, nil) when key is absent.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value FROM stash_kv WHERE key=$1`
	var value []byte
	if err := b.pool.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Set upserts the value in one statement, so readers never see a partial write.
func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	const q = `
INSERT INTO stash_kv (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()`
	_, err := b.pool.Exec(ctx, q, key, value)
	return err
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM stash_kv WHERE key=$1`
	_, err := b.pool.Exec(ctx, q, key)
	return err
}

func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}
