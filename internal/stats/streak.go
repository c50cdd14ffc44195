package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hvngan/echoscribe/internal/store"
)

// CompletedVideo records the best run over a video. An entry is replaced
// only when a later attempt scores strictly higher.
type CompletedVideo struct {
	ID            string  `json:"id"`
	CompletedDate string  `json:"completed_date"`
	Accuracy      float64 `json:"accuracy"`
}

// ProgressRecord is the process-wide learning-continuity state.
// TotalPracticeTime only ever grows.
type ProgressRecord struct {
	PracticeStreak    int              `json:"practice_streak"`
	LastPracticeDate  string           `json:"last_practice_date,omitempty"`
	TotalPracticeTime float64          `json:"total_practice_time"`
	CompletedVideos   []CompletedVideo `json:"completed_videos"`
}

// PracticeSummary is the condensed view of the progress record.
type PracticeSummary struct {
	CurrentStreak   int     `json:"current_streak"`
	TotalVideos     int     `json:"total_videos"`
	TotalTime       float64 `json:"total_time"`
	AverageAccuracy float64 `json:"average_accuracy"`
}

// Tracker maintains the progress record: streak, accumulated practice
// time, and the set of completed videos.
type Tracker struct {
	mu    sync.Mutex
	st    store.Store
	clock func() time.Time
	rec   *ProgressRecord
}

// NewTracker returns a Tracker over st. The progress record is loaded
// lazily; a store with no record yet starts from zeroed state.
func NewTracker(st store.Store, opts ...Option) *Tracker {
	s := newSettings(opts)
	return &Tracker{st: st, clock: s.clock}
}

// UpdateStreak applies the consecutive-day rule and returns the streak
// after the update. With no prior practice date the streak becomes 1; a
// gap of more than one day resets it to 1; practicing on the day after
// the last recorded one increments it; a second update on the same day
// changes nothing.
func (t *Tracker) UpdateStreak(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	today := truncateToDay(t.clock())
	switch last, err := time.Parse(dateKey, t.rec.LastPracticeDate); {
	case t.rec.LastPracticeDate == "", err != nil:
		if err != nil && t.rec.LastPracticeDate != "" {
			slog.Warn("unreadable last practice date, resetting streak", "value", t.rec.LastPracticeDate)
		}
		t.rec.PracticeStreak = 1
	case today.Sub(last) > 24*time.Hour:
		t.rec.PracticeStreak = 1
	case today.After(last):
		t.rec.PracticeStreak++
	}
	t.rec.LastPracticeDate = today.Format(dateKey)

	if err := t.persist(ctx); err != nil {
		return t.rec.PracticeStreak, err
	}
	return t.rec.PracticeStreak, nil
}

// Streak returns the current streak without updating it.
func (t *Tracker) Streak(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	return t.rec.PracticeStreak, nil
}

// AddPracticeTime accumulates seconds onto the lifetime practice time.
// Negative values are rejected so the counter stays monotone.
func (t *Tracker) AddPracticeTime(ctx context.Context, seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("stats: practice time delta must not be negative, got %v", seconds)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureLoaded(ctx); err != nil {
		return err
	}
	t.rec.TotalPracticeTime += seconds
	return t.persist(ctx)
}

// RecordCompletedVideo upserts the completed-video entry for videoID.
// An existing entry is replaced only when accuracy is strictly higher
// than the stored best.
func (t *Tracker) RecordCompletedVideo(ctx context.Context, videoID string, accuracy float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureLoaded(ctx); err != nil {
		return err
	}

	entry := CompletedVideo{
		ID:            videoID,
		CompletedDate: t.clock().Format(dateKey),
		Accuracy:      accuracy,
	}
	for i, v := range t.rec.CompletedVideos {
		if v.ID != videoID {
			continue
		}
		if accuracy <= v.Accuracy {
			return nil
		}
		t.rec.CompletedVideos[i] = entry
		return t.persist(ctx)
	}
	t.rec.CompletedVideos = append(t.rec.CompletedVideos, entry)
	return t.persist(ctx)
}

// Summary condenses the progress record into the dashboard view.
func (t *Tracker) Summary(ctx context.Context) (PracticeSummary, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ensureLoaded(ctx); err != nil {
		return PracticeSummary{}, err
	}

	accuracies := make([]float64, 0, len(t.rec.CompletedVideos))
	for _, v := range t.rec.CompletedVideos {
		accuracies = append(accuracies, v.Accuracy)
	}
	return PracticeSummary{
		CurrentStreak:   t.rec.PracticeStreak,
		TotalVideos:     len(t.rec.CompletedVideos),
		TotalTime:       t.rec.TotalPracticeTime,
		AverageAccuracy: meanOf(accuracies),
	}, nil
}

func (t *Tracker) ensureLoaded(ctx context.Context) error {
	if t.rec != nil {
		return nil
	}
	rec := &ProgressRecord{}
	switch err := t.st.Load(ctx, store.KeyProgress, rec); {
	case err == nil, errors.Is(err, store.ErrNotFound):
	default:
		return fmt.Errorf("stats: load progress: %w", err)
	}
	if rec.CompletedVideos == nil {
		rec.CompletedVideos = []CompletedVideo{}
	}
	t.rec = rec
	return nil
}

func (t *Tracker) persist(ctx context.Context) error {
	if err := t.st.Save(ctx, store.KeyProgress, t.rec); err != nil {
		return fmt.Errorf("stats: persist progress: %w", err)
	}
	return nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
