package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hvngan/echoscribe/internal/store"
)

// ErrNoActiveSession is returned by operations that require a session when
// none has been created or loaded.
var ErrNoActiveSession = errors.New("practice: no active session")

// ErrSessionNotFound is returned by [Manager.LoadSession] when no persisted
// session carries the requested id.
var ErrSessionNotFound = errors.New("practice: session not found")

// ManagerOption is a functional option for configuring a [Manager].
type ManagerOption func(*Manager)

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithCompletionThreshold sets the best-accuracy percentage at which a
// segment counts as completed. Default: 95.
func WithCompletionThreshold(threshold float64) ManagerOption {
	return func(m *Manager) {
		m.completionThreshold = threshold
	}
}

// Manager owns the active practice session and persists it after every
// mutation. Exactly one mutator operates at a time (the engine serialises UI
// events); the mutex guards against accidental concurrent use, not a
// concurrent design.
//
// Persistence follows write-after-success ordering: the in-memory aggregate
// is recomputed first and survives a failed store write, so the caller can
// retry the persist without replaying the attempt.
type Manager struct {
	mu                  sync.Mutex
	st                  store.Store
	clock               func() time.Time
	completionThreshold float64
	current             *Session
}

// NewManager creates a session manager persisting through st.
func NewManager(st store.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		st:                  st,
		clock:               time.Now,
		completionThreshold: DefaultCompletionThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// CreateSession starts a fresh session for a video and subtitle pair and
// persists it immediately. When name is empty a default is templated from the
// current timestamp. The new session becomes the active one.
func (m *Manager) CreateSession(ctx context.Context, videoPath, subtitlePath, name string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if name == "" {
		name = "Practice Session " + now.Format("20060102_1504")
	}

	session := &Session{
		ID:           uuid.NewString(),
		Name:         name,
		VideoPath:    videoPath,
		SubtitlePath: subtitlePath,
		CreatedDate:  now,
		LastAccessed: now,
		Progress:     Progress{CurrentSegment: 1},
		SegmentsData: make(map[string]*SegmentProgress),
	}

	if err := m.persist(ctx, session); err != nil {
		return nil, err
	}
	m.current = session
	slog.Info("session created", "session_id", session.ID, "video", videoPath)
	return session, nil
}

// LoadSession resumes a persisted session by id, bumps its last-accessed
// time, and makes it the active session.
func (m *Manager) LoadSession(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.loadDocument(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range doc.Sessions {
		if s.ID != id {
			continue
		}
		s.LastAccessed = m.clock()
		if s.SegmentsData == nil {
			s.SegmentsData = make(map[string]*SegmentProgress)
		}
		if err := m.persist(ctx, s); err != nil {
			return nil, err
		}
		m.current = s
		slog.Info("session resumed", "session_id", id)
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
}

// Sessions lists every persisted session. A store that has never been
// written yields an empty list.
func (m *Manager) Sessions(ctx context.Context) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.loadDocument(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Sessions, nil
}

// Current returns the active session, or nil when none is active.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// SetCurrentSegment records the segment the user navigated to and persists
// the session so a resume lands on the same segment.
func (m *Manager) SetCurrentSegment(ctx context.Context, i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoActiveSession
	}
	m.current.Progress.CurrentSegment = i
	return m.persist(ctx, m.current)
}

// SetCompletionThreshold changes the accuracy at which a segment counts as
// completed. Segments already marked completed keep the flag; attempts
// recorded from here on are judged against the new value.
func (m *Manager) SetCompletionThreshold(threshold float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if threshold > 0 {
		m.completionThreshold = threshold
	}
}

// SetTotalSegments records how many segments the loaded subtitle set has.
func (m *Manager) SetTotalSegments(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Progress.TotalSegments = n
	}
}

// RecordAttempt validates and appends one attempt to the segment's history,
// recomputes the segment aggregate and session progress, and persists the
// session. Validation failures reject the mutation without touching state.
// A persist failure is returned to the caller, but the in-memory aggregates
// are kept — retrying the persist does not require re-recording.
func (m *Manager) RecordAttempt(ctx context.Context, segmentIndex int, attempt Attempt) (*SegmentProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, ErrNoActiveSession
	}
	if err := ValidateAttempt(attempt); err != nil {
		return nil, err
	}

	key := strconv.Itoa(segmentIndex)
	prev := m.current.SegmentsData[key]
	var history []Attempt
	if prev != nil {
		history = prev.Attempts
	}

	recomputed := Recompute(append(history, attempt), m.completionThreshold)
	if prev != nil && prev.Completed {
		// Completion never reverts, even when the threshold was raised
		// above the segment's best accuracy since it completed.
		recomputed.Completed = true
	}
	m.current.SegmentsData[key] = &recomputed
	m.recomputeProgress(segmentIndex)

	if err := m.persist(ctx, m.current); err != nil {
		return &recomputed, err
	}
	return &recomputed, nil
}

// recomputeProgress rebuilds the session-level summary from all segment
// aggregates. Means over empty sets are zero, never an error.
// Callers must hold m.mu.
func (m *Manager) recomputeProgress(currentSegment int) {
	s := m.current
	p := &s.Progress
	p.CurrentSegment = currentSegment
	p.CompletedSegments = 0
	p.Accuracy = 0
	p.TypingSpeed = 0
	p.TotalTime = 0

	if len(s.SegmentsData) == 0 {
		return
	}

	var accuracySum, speedSum float64
	for _, sp := range s.SegmentsData {
		if sp.Completed {
			p.CompletedSegments++
		}
		accuracySum += sp.BestAccuracy
		speedSum += meanOf(sp.TypingSpeeds)
		p.TotalTime += sp.AverageTime * float64(len(sp.Attempts))
	}

	n := float64(len(s.SegmentsData))
	p.Accuracy = accuracySum / n
	p.TypingSpeed = speedSum / n
}

// Statistics returns a detailed snapshot of the active session, or zeroed
// values when no session is active.
func (m *Manager) Statistics() SessionStatistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats SessionStatistics
	if m.current == nil {
		return stats
	}
	stats.TotalSegments = m.current.Progress.TotalSegments
	stats.CompletedSegments = m.current.Progress.CompletedSegments
	stats.AverageAccuracy = m.current.Progress.Accuracy
	stats.AverageSpeed = m.current.Progress.TypingSpeed
	stats.TotalTime = m.current.Progress.TotalTime
	for _, sp := range m.current.SegmentsData {
		stats.TotalAttempts += len(sp.Attempts)
	}
	return stats
}

// persist loads the sessions document, replaces or appends session by id,
// and writes the document back. Callers must hold m.mu.
func (m *Manager) persist(ctx context.Context, session *Session) error {
	doc, err := m.loadDocument(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i, s := range doc.Sessions {
		if s.ID == session.ID {
			doc.Sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Sessions = append(doc.Sessions, session)
	}

	if err := m.st.Save(ctx, store.KeySessions, doc); err != nil {
		return fmt.Errorf("practice: persist session %q: %w", session.ID, err)
	}
	return nil
}

// loadDocument reads the sessions document, treating a never-written store as
// empty state.
func (m *Manager) loadDocument(ctx context.Context) (*sessionsDocument, error) {
	var doc sessionsDocument
	err := m.st.Load(ctx, store.KeySessions, &doc)
	if errors.Is(err, store.ErrNotFound) {
		return &sessionsDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("practice: load sessions: %w", err)
	}
	return &doc, nil
}

// meanOf returns the arithmetic mean of values, or 0 for an empty slice.
func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
