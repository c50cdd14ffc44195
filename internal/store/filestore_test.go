package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hvngan/echoscribe/internal/store"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newFileStore(t *testing.T) *store.FileStore {
	t.Helper()
	s, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newFileStore(t)

	want := testDoc{Name: "sessions", Count: 3}
	if err := s.Save(ctx, "sessions", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var got testDoc
	if err := s.Load(ctx, "sessions", &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}
}

func TestFileStoreMissingKey(t *testing.T) {
	t.Parallel()

	s := newFileStore(t)
	var doc testDoc
	err := s.Load(context.Background(), "never-written", &doc)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Load missing: expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var doc testDoc
	err = s.Load(context.Background(), "broken", &doc)
	if !errors.Is(err, store.ErrCorrupt) {
		t.Fatalf("Load corrupt: expected ErrCorrupt, got %v", err)
	}
}

func TestFileStoreSaveReplacesAtomically(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := s.Save(ctx, "doc", testDoc{Name: "first"}); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	if err := s.Save(ctx, "doc", testDoc{Name: "second"}); err != nil {
		t.Fatalf("Save second: %v", err)
	}

	var got testDoc
	if err := s.Load(ctx, "doc", &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "second" {
		t.Fatalf("Load = %+v, want the replacement document", got)
	}

	// No stray temp files left behind.
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}

func TestFileStoreBackupRotation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.NewFileStore(dir, store.WithBackupsToKeep(2))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := s.Save(ctx, "doc", testDoc{Name: "v"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Backup names are second-granular; identical timestamps overwrite, so
	// just assert the retention bound holds after several backups.
	for i := 0; i < 4; i++ {
		if err := s.Backup(ctx, "doc"); err != nil {
			t.Fatalf("Backup %d: %v", i, err)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, "backups", "doc_backup_*.json"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(matches) > 2 {
		t.Fatalf("backups retained = %d, want at most 2", len(matches))
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one backup file")
	}
}

func TestFileStoreBackupOfMissingKeyIsNoop(t *testing.T) {
	t.Parallel()

	s := newFileStore(t)
	if err := s.Backup(context.Background(), "missing"); err != nil {
		t.Fatalf("Backup of missing key: %v", err)
	}
}

func TestFileStoreRestoreRejectsCorruptBackup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Save(ctx, "doc", testDoc{Name: "current"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	bad := filepath.Join(dir, "bad_backup.json")
	if err := os.WriteFile(bad, []byte("{{{"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := s.Restore(ctx, "doc", bad); !errors.Is(err, store.ErrCorrupt) {
		t.Fatalf("Restore corrupt backup: expected ErrCorrupt, got %v", err)
	}

	// Current document untouched.
	var got testDoc
	if err := s.Load(ctx, "doc", &got); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "current" {
		t.Fatalf("document overwritten by failed restore: %+v", got)
	}
}
