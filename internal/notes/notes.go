// Package notes keeps per-video study notes: individual words and whole
// segment texts the user wants to revisit. Notes are persisted as one
// JSON document per video through a [store.Store] and can be exported
// to markdown, which clears them.
package notes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/hvngan/echoscribe/internal/store"
)

// Document holds the notes collected for one video.
type Document struct {
	Words    []string `json:"words"`
	Segments []string `json:"segments"`
}

// Manager reads and writes note documents keyed by video identifier.
type Manager struct {
	mu sync.Mutex
	st store.Store
}

// NewManager returns a Manager over st.
func NewManager(st store.Store) *Manager {
	return &Manager{st: st}
}

// Key returns the store key for a video's notes. The video identifier is
// hashed so arbitrary paths produce a stable, filename-safe key.
func Key(videoID string) string {
	sum := sha256.Sum256([]byte(videoID))
	return "notes_" + hex.EncodeToString(sum[:8])
}

// Load returns the notes for videoID. A video with no notes yet yields
// an empty document.
func (m *Manager) Load(ctx context.Context, videoID string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx, videoID)
}

// AddWord appends word to the video's word list unless already present.
func (m *Manager) AddWord(ctx context.Context, videoID, word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return errors.New("notes: empty word")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load(ctx, videoID)
	if err != nil {
		return err
	}
	if slices.Contains(doc.Words, word) {
		return nil
	}
	doc.Words = append(doc.Words, word)
	return m.save(ctx, videoID, doc)
}

// AddSegment appends text to the video's segment list unless already
// present.
func (m *Manager) AddSegment(ctx context.Context, videoID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("notes: empty segment text")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load(ctx, videoID)
	if err != nil {
		return err
	}
	if slices.Contains(doc.Segments, text) {
		return nil
	}
	doc.Segments = append(doc.Segments, text)
	return m.save(ctx, videoID, doc)
}

// Export renders the video's notes as markdown and clears them. The
// rendered document lists saved words as bullets and saved segments as
// block quotes. Clearing only happens after the render succeeds.
func (m *Manager) Export(ctx context.Context, videoID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load(ctx, videoID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Saved Words\n\n")
	for _, w := range doc.Words {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	b.WriteString("\n# Saved Segments\n\n")
	for _, s := range doc.Segments {
		fmt.Fprintf(&b, "> %s\n\n", s)
	}

	if err := m.save(ctx, videoID, Document{Words: []string{}, Segments: []string{}}); err != nil {
		return "", err
	}
	slog.Info("notes exported", "video", videoID, "words", len(doc.Words), "segments", len(doc.Segments))
	return b.String(), nil
}

func (m *Manager) load(ctx context.Context, videoID string) (Document, error) {
	var doc Document
	switch err := m.st.Load(ctx, Key(videoID), &doc); {
	case err == nil, errors.Is(err, store.ErrNotFound):
	default:
		return Document{}, fmt.Errorf("notes: load %q: %w", videoID, err)
	}
	if doc.Words == nil {
		doc.Words = []string{}
	}
	if doc.Segments == nil {
		doc.Segments = []string{}
	}
	return doc, nil
}

func (m *Manager) save(ctx context.Context, videoID string, doc Document) error {
	if err := m.st.Save(ctx, Key(videoID), doc); err != nil {
		return fmt.Errorf("notes: save %q: %w", videoID, err)
	}
	return nil
}
