// Package store defines the key-value JSON persistence contract used by the
// practice, stats, and notes layers, together with a local file
// implementation. A PostgreSQL-backed implementation lives in the postgres
// subpackage.
//
// Each key maps to one JSON document that is read and written wholesale.
// Writes must be atomic: a failed save leaves the previously persisted
// document untouched.
package store

import (
	"context"
	"errors"
)

// Well-known document keys.
const (
	// KeySessions holds every practice session.
	KeySessions = "sessions"

	// KeyStatistics holds the daily statistics rollup.
	KeyStatistics = "statistics"

	// KeyProgress holds the streak and completed-video record.
	KeyProgress = "progress"
)

// ErrNotFound is returned by Load when no document exists under the key.
// Callers treat this as empty default state.
var ErrNotFound = errors.New("store: document not found")

// ErrCorrupt is returned by Load when a document exists but cannot be
// decoded. The caller is responsible for backing up and recreating the
// document; the store never deletes data on its own.
var ErrCorrupt = errors.New("store: corrupt document")

// Store is a key-value JSON document store.
//
// All implementations must be safe for concurrent use and must guarantee
// that a failed Save leaves the prior document intact.
type Store interface {
	// Load decodes the document stored under key into v.
	// Returns [ErrNotFound] when the key has never been written and
	// [ErrCorrupt] when the stored bytes are not valid JSON for v.
	Load(ctx context.Context, key string, v any) error

	// Save encodes v as JSON and stores it under key, replacing any
	// previous document atomically.
	Save(ctx context.Context, key string, v any) error
}
