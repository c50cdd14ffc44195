// Package postgres provides a PostgreSQL-backed implementation of
// [store.Store] using a single JSONB documents table. It is the multi-device
// alternative to the local file store; both persist the same wholesale JSON
// documents.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hvngan/echoscribe/internal/store"
)

// schema creates the documents table on first connect. Idempotent.
const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		key        text PRIMARY KEY,
		doc        jsonb NOT NULL,
		updated_at timestamptz NOT NULL DEFAULT now()
	)`

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is the JSONB document store. Obtain one via [New].
// All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at dsn, ensures the schema exists, and returns
// a ready [Store].
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Load implements [store.Store.Load].
func (s *Store) Load(ctx context.Context, key string, v any) error {
	const q = `SELECT doc FROM documents WHERE key = $1`

	var data []byte
	err := s.pool.QueryRow(ctx, q, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("postgres: load %q: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %q: %v", store.ErrCorrupt, key, err)
	}
	return nil
}

// Save implements [store.Store.Save]. The upsert is a single statement, so a
// failed save leaves the prior document intact.
func (s *Store) Save(ctx context.Context, key string, v any) error {
	const q = `
		INSERT INTO documents (key, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("postgres: marshal %q: %w", key, err)
	}
	if _, err := s.pool.Exec(ctx, q, key, data); err != nil {
		return fmt.Errorf("postgres: save %q: %w", key, err)
	}
	return nil
}

// Ping probes connectivity; used by the readiness checker.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
