package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresBackend stores values in the kv_store table created by the
// migrations package.
type PostgresBackend struct {
	db pgxQuerier
}

// NewPostgresBackend accepts a *pgxpool.Pool or any compatible querier.
func NewPostgresBackend(db pgxQuerier) *PostgresBackend {
	if db == nil {
		panic("storage: pgx pool required")
	}
	return &PostgresBackend{db: db}
}

// GetItem selects the value for key.
func (p *PostgresBackend) GetItem(ctx context.Context, key string) (string, error) {
	var value string
	err := p.db.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("storage: select %s: %w", key, err)
	}
	return value, nil
}

// SetItem upserts the value for key.
func (p *PostgresBackend) SetItem(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := p.db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("storage: upsert %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside a transaction holding a row lock on key, so
// concurrent writers on any replica are serialized by the database.
func (p *PostgresBackend) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// seed the row so FOR UPDATE has something to lock on first write
	tag, err := tx.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, '', now())
		ON CONFLICT (key) DO NOTHING
	`, key)
	if err != nil {
		return fmt.Errorf("storage: seed %s: %w", key, err)
	}
	found := tag.RowsAffected() == 0

	var current string
	if err := tx.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1 FOR UPDATE`, key).Scan(&current); err != nil {
		return fmt.Errorf("storage: lock %s: %w", key, err)
	}

	next, err := fn(current, found)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE kv_store SET value = $2, updated_at = now() WHERE key = $1`, key, next); err != nil {
		return fmt.Errorf("storage: update %s: %w", key, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage: commit %s: %w", key, err)
	}
	return nil
}
