package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// defaultBackupsToKeep is how many timestamped backups are retained per key.
const defaultBackupsToKeep = 5

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// FileStoreOption is a functional option for configuring a [FileStore].
type FileStoreOption func(*FileStore)

// WithBackupsToKeep sets how many backups [FileStore.Backup] retains per key.
// Default: 5.
func WithBackupsToKeep(n int) FileStoreOption {
	return func(fs *FileStore) {
		if n > 0 {
			fs.backupsToKeep = n
		}
	}
}

// FileStore persists each key as <dir>/<key>.json. Saves go through a
// temporary file followed by a rename so a crash mid-write never corrupts the
// previous document. Safe for concurrent use.
type FileStore struct {
	mu            sync.Mutex
	dir           string
	backupsToKeep int
}

// NewFileStore creates a FileStore rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir %q: %w", dir, err)
	}
	s := &FileStore{dir: dir, backupsToKeep: defaultBackupsToKeep}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Load implements [Store.Load].
func (s *FileStore) Load(ctx context.Context, key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("store: read %q: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrCorrupt, key, err)
	}
	return nil
}

// Save implements [Store.Save].
func (s *FileStore) Save(ctx context.Context, key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal %q: %w", key, err)
	}

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file for %q: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp file for %q: %w", key, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: replace %q: %w", key, err)
	}
	return nil
}

// Backup copies the current document under key into
// <dir>/backups/<key>_backup_<timestamp>.json and prunes old backups beyond
// the configured retention. Backing up a key that has never been written is a
// no-op.
func (s *FileStore) Backup(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: backup read %q: %w", key, err)
	}

	backupDir := filepath.Join(s.dir, "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("store: create backup dir: %w", err)
	}

	name := fmt.Sprintf("%s_backup_%s.json", key, time.Now().Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(backupDir, name), data, 0o644); err != nil {
		return fmt.Errorf("store: write backup for %q: %w", key, err)
	}

	return s.pruneBackups(backupDir, key)
}

// Restore replaces the document under key with the contents of backupPath.
// The current document is backed up first, and the backup file must contain
// valid JSON — a corrupt backup is rejected with [ErrCorrupt] before anything
// is overwritten.
func (s *FileStore) Restore(ctx context.Context, key, backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("store: read backup %q: %w", backupPath, err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("%w: backup %q", ErrCorrupt, backupPath)
	}

	if err := s.Backup(ctx, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("store: restore %q: %w", key, err)
	}
	return nil
}

// pruneBackups removes the oldest backups for key beyond the retention limit.
// Backup file names sort chronologically because of the timestamp suffix.
func (s *FileStore) pruneBackups(backupDir, key string) error {
	matches, err := filepath.Glob(filepath.Join(backupDir, key+"_backup_*.json"))
	if err != nil {
		return fmt.Errorf("store: list backups for %q: %w", key, err)
	}
	if len(matches) <= s.backupsToKeep {
		return nil
	}
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-s.backupsToKeep] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("store: prune backup %q: %w", old, err)
		}
	}
	return nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
