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

// AttemptSnapshot is the slice of an attempt that feeds the daily ledger.
type AttemptSnapshot struct {
	SegmentIndex int       `json:"segment_index"`
	Accuracy     float64   `json:"accuracy"`
	TypingSpeed  float64   `json:"typing_speed"`
	TimeTaken    float64   `json:"time_taken"`
	Timestamp    time.Time `json:"timestamp"`
}

// DailyRecord aggregates every attempt recorded on one calendar day
// across all sessions. The derived fields are recomputed in full from
// Sessions on every update.
type DailyRecord struct {
	Sessions          map[string][]AttemptSnapshot `json:"sessions"`
	TotalTime         float64                      `json:"total_time"`
	AverageAccuracy   float64                      `json:"average_accuracy"`
	AverageSpeed      float64                      `json:"average_speed"`
	SegmentsCompleted int                          `json:"segments_completed"`
}

// CurrentStats is the dashboard view of today's practice. PracticeStreak
// is sourced from the progress record, not owned by the daily ledger.
type CurrentStats struct {
	Accuracy          float64 `json:"accuracy"`
	TypingSpeed       float64 `json:"typing_speed"`
	TotalTime         float64 `json:"total_time"`
	SegmentsCompleted int     `json:"segments_completed"`
	PracticeStreak    int     `json:"practice_streak"`
}

type statisticsDocument struct {
	DailyStats             map[string]*DailyRecord `json:"daily_stats"`
	TotalPracticeTime      float64                 `json:"total_practice_time"`
	TotalSegmentsCompleted int                     `json:"total_segments_completed"`
	Achievements           []string                `json:"achievements"`
}

func newStatisticsDocument() *statisticsDocument {
	return &statisticsDocument{
		DailyStats:   make(map[string]*DailyRecord),
		Achievements: []string{},
	}
}

// Aggregator maintains the per-day statistics document.
type Aggregator struct {
	mu    sync.Mutex
	st    store.Store
	clock func() time.Time
	doc   *statisticsDocument
}

// NewAggregator returns an Aggregator over st. The statistics document
// is loaded lazily on first use; a store with no document yet yields an
// empty ledger.
func NewAggregator(st store.Store, opts ...Option) *Aggregator {
	s := newSettings(opts)
	return &Aggregator{st: st, clock: s.clock}
}

// UpdateDailyStats appends snap under today's date for sessionID, then
// recomputes the full day from scratch over every attempt recorded that
// day. On a persist failure the in-memory ledger keeps the new snapshot
// and the error is returned so the caller can retry the write.
func (a *Aggregator) UpdateDailyStats(ctx context.Context, sessionID string, snap AttemptSnapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(ctx); err != nil {
		return err
	}

	today := a.clock().Format(dateKey)
	day, ok := a.doc.DailyStats[today]
	if !ok {
		day = &DailyRecord{Sessions: make(map[string][]AttemptSnapshot)}
		a.doc.DailyStats[today] = day
	}
	day.Sessions[sessionID] = append(day.Sessions[sessionID], snap)

	recomputeDay(day)
	a.recomputeTotals()

	if err := a.st.Save(ctx, store.KeyStatistics, a.doc); err != nil {
		slog.Error("statistics persist failed", "error", err, "day", today)
		return fmt.Errorf("stats: persist daily stats: %w", err)
	}
	return nil
}

// CurrentStats returns today's record, or zeroed defaults if nothing has
// been recorded yet today. streak is threaded through from the progress
// record.
func (a *Aggregator) CurrentStats(ctx context.Context, streak int) (CurrentStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(ctx); err != nil {
		return CurrentStats{}, err
	}

	cs := CurrentStats{PracticeStreak: streak}
	day, ok := a.doc.DailyStats[a.clock().Format(dateKey)]
	if !ok {
		return cs, nil
	}
	cs.Accuracy = day.AverageAccuracy
	cs.TypingSpeed = day.AverageSpeed
	cs.TotalTime = day.TotalTime
	cs.SegmentsCompleted = day.SegmentsCompleted
	return cs, nil
}

// SetAchievements replaces the persisted list of unlocked achievement
// names. Already-present names are kept, so unlocks are monotone.
func (a *Aggregator) SetAchievements(ctx context.Context, names []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(ctx); err != nil {
		return err
	}

	have := make(map[string]bool, len(a.doc.Achievements))
	for _, n := range a.doc.Achievements {
		have[n] = true
	}
	changed := false
	for _, n := range names {
		if !have[n] {
			a.doc.Achievements = append(a.doc.Achievements, n)
			have[n] = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := a.st.Save(ctx, store.KeyStatistics, a.doc); err != nil {
		return fmt.Errorf("stats: persist achievements: %w", err)
	}
	return nil
}

// Achievements returns the persisted unlocked achievement names.
func (a *Aggregator) Achievements(ctx context.Context) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]string, len(a.doc.Achievements))
	copy(out, a.doc.Achievements)
	return out, nil
}

func (a *Aggregator) ensureLoaded(ctx context.Context) error {
	if a.doc != nil {
		return nil
	}
	doc := newStatisticsDocument()
	switch err := a.st.Load(ctx, store.KeyStatistics, doc); {
	case err == nil, errors.Is(err, store.ErrNotFound):
	default:
		return fmt.Errorf("stats: load statistics: %w", err)
	}
	if doc.DailyStats == nil {
		doc.DailyStats = make(map[string]*DailyRecord)
	}
	if doc.Achievements == nil {
		doc.Achievements = []string{}
	}
	a.doc = doc
	return nil
}

func (a *Aggregator) recomputeTotals() {
	var totalTime float64
	var totalSegments int
	for _, day := range a.doc.DailyStats {
		totalTime += day.TotalTime
		totalSegments += day.SegmentsCompleted
	}
	a.doc.TotalPracticeTime = totalTime
	a.doc.TotalSegmentsCompleted = totalSegments
}

// recomputeDay rebuilds every derived field of day from its raw
// snapshots. Segments count as completed once any attempt on the
// (session, segment) pair reaches the completion accuracy; distinct
// pairs are counted once.
func recomputeDay(day *DailyRecord) {
	var (
		accuracies []float64
		speeds     []float64
		totalTime  float64
		completed  = make(map[string]struct{})
	)
	for sessionID, attempts := range day.Sessions {
		for _, att := range attempts {
			accuracies = append(accuracies, att.Accuracy)
			speeds = append(speeds, att.TypingSpeed)
			totalTime += att.TimeTaken
			if att.Accuracy >= 95 {
				completed[fmt.Sprintf("%s_%d", sessionID, att.SegmentIndex)] = struct{}{}
			}
		}
	}
	day.TotalTime = totalTime
	day.AverageAccuracy = meanOf(accuracies)
	day.AverageSpeed = meanOf(speeds)
	day.SegmentsCompleted = len(completed)
}
