// Package app wires the echoscribe subsystems into one engine.
//
// The Engine owns the segment navigator, the word comparator, the session
// manager, and the statistics aggregates, and exposes the operations the
// outer surface (CLI, UI, HTTP) drives: start or resume a session, navigate
// segments, score attempts, and read back statistics and recommendations.
//
// For testing, inject fakes via functional options (WithClock, WithMetrics).
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hvngan/echoscribe/internal/config"
	"github.com/hvngan/echoscribe/internal/health"
	"github.com/hvngan/echoscribe/internal/navigator"
	"github.com/hvngan/echoscribe/internal/notes"
	"github.com/hvngan/echoscribe/internal/observe"
	"github.com/hvngan/echoscribe/internal/practice"
	"github.com/hvngan/echoscribe/internal/stats"
	"github.com/hvngan/echoscribe/internal/store"
	"github.com/hvngan/echoscribe/pkg/compare"
	"github.com/hvngan/echoscribe/pkg/subtitle"
)

// Engine coordinates one active practice session end to end.
type Engine struct {
	mu sync.Mutex

	st       store.Store
	sessions *practice.Manager
	nav      *navigator.Navigator
	cmp      *compare.Comparator
	daily    *stats.Aggregator
	progress *stats.Tracker
	notes    *notes.Manager
	metrics  *observe.Metrics
	clock    func() time.Time

	practiceCfg config.PracticeConfig
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*Engine)

// WithClock overrides the time source. Useful in tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithMetrics injects a metrics instance instead of the package default.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithPractice applies scoring thresholds from configuration.
func WithPractice(cfg config.PracticeConfig) Option {
	return func(e *Engine) {
		e.practiceCfg = cfg
	}
}

// New creates an Engine persisting through st.
func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		st:    st,
		nav:   &navigator.Navigator{},
		clock: time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}

	e.cmp = newComparator(e.practiceCfg)

	sessionOpts := []practice.ManagerOption{practice.WithClock(e.clock)}
	if e.practiceCfg.CompletionThreshold > 0 {
		sessionOpts = append(sessionOpts, practice.WithCompletionThreshold(e.practiceCfg.CompletionThreshold))
	}
	e.sessions = practice.NewManager(st, sessionOpts...)
	e.daily = stats.NewAggregator(st, stats.WithClock(e.clock))
	e.progress = stats.NewTracker(st, stats.WithClock(e.clock))
	e.notes = notes.NewManager(st)
	return e
}

func newComparator(cfg config.PracticeConfig) *compare.Comparator {
	var opts []compare.Option
	if cfg.CorrectThreshold > 0 {
		opts = append(opts, compare.WithCorrectThreshold(cfg.CorrectThreshold))
	}
	if cfg.SimilarThreshold > 0 {
		opts = append(opts, compare.WithSimilarThreshold(cfg.SimilarThreshold))
	}
	return compare.New(opts...)
}

// ApplyPractice applies changed scoring thresholds at runtime. Called from
// the config watcher's change callback.
func (e *Engine) ApplyPractice(cfg config.PracticeConfig) {
	e.mu.Lock()
	e.practiceCfg = cfg
	e.cmp = newComparator(cfg)
	e.mu.Unlock()

	e.sessions.SetCompletionThreshold(cfg.CompletionThreshold)
	slog.Info("practice thresholds applied",
		"completion", cfg.CompletionThreshold,
		"correct", cfg.CorrectThreshold,
		"similar", cfg.SimilarThreshold,
	)
}

// StartSession parses the subtitle file, loads its segments for navigation,
// and creates a fresh persisted session over the pair. It returns the session
// and the number of segments loaded.
func (e *Engine) StartSession(ctx context.Context, videoPath, subtitlePath, name string) (*practice.Session, int, error) {
	ctx, span := observe.StartSpan(ctx, "session.start")
	defer span.End()

	segments, err := subtitle.ParseFile(subtitlePath)
	if err != nil {
		return nil, 0, fmt.Errorf("app: load subtitles: %w", err)
	}

	e.mu.Lock()
	err = e.nav.Load(segments)
	e.mu.Unlock()
	if err != nil {
		return nil, 0, fmt.Errorf("app: load subtitles: %w", err)
	}

	session, err := e.sessions.CreateSession(ctx, videoPath, subtitlePath, name)
	if err != nil {
		return nil, 0, err
	}
	e.sessions.SetTotalSegments(len(segments))
	e.metrics.RecordSessionCreated(ctx)
	return session, len(segments), nil
}

// ResumeSession loads a persisted session by id, reparses its subtitle file,
// and jumps back to the segment the user left off on. A stored segment index
// that no longer fits the subtitle file falls back to the first segment.
func (e *Engine) ResumeSession(ctx context.Context, id string) (*practice.Session, error) {
	session, err := e.sessions.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	segments, err := subtitle.ParseFile(session.SubtitlePath)
	if err != nil {
		return nil, fmt.Errorf("app: load subtitles: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.nav.Load(segments); err != nil {
		return nil, fmt.Errorf("app: load subtitles: %w", err)
	}
	e.sessions.SetTotalSegments(len(segments))
	if i := session.Progress.CurrentSegment; i > 1 {
		if err := e.nav.JumpTo(i); err != nil {
			slog.Warn("stored segment index out of range, starting from the first segment",
				"session_id", id, "segment", i, "segments", len(segments))
		}
	}
	return session, nil
}

// Sessions lists every persisted session.
func (e *Engine) Sessions(ctx context.Context) ([]*practice.Session, error) {
	return e.sessions.Sessions(ctx)
}

// Segment returns the segment currently navigated to.
func (e *Engine) Segment() (subtitle.Segment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nav.Segment()
}

// Window returns the playback window of the current segment: its own start
// up to the next segment's onset when one exists.
func (e *Engine) Window() (navigator.Window, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nav.EffectiveWindow(e.nav.Current())
}

// Next advances to the following segment and persists the new position.
// At the last segment it returns the unchanged segment together with
// [navigator.ErrAtLastSegment].
func (e *Engine) Next(ctx context.Context) (subtitle.Segment, error) {
	return e.move(ctx, (*navigator.Navigator).Next)
}

// Previous steps back one segment and persists the new position. At the
// first segment it returns the unchanged segment together with
// [navigator.ErrAtFirstSegment].
func (e *Engine) Previous(ctx context.Context) (subtitle.Segment, error) {
	return e.move(ctx, (*navigator.Navigator).Previous)
}

func (e *Engine) move(ctx context.Context, step func(*navigator.Navigator) error) (subtitle.Segment, error) {
	e.mu.Lock()
	stepErr := step(e.nav)
	seg, segErr := e.nav.Segment()
	current := e.nav.Current()
	e.mu.Unlock()

	if segErr != nil {
		return subtitle.Segment{}, segErr
	}
	if stepErr != nil {
		// Boundary no-op: nothing moved, nothing to persist.
		return seg, stepErr
	}
	if err := e.sessions.SetCurrentSegment(ctx, current); err != nil && !errors.Is(err, practice.ErrNoActiveSession) {
		e.metrics.RecordStoreError(ctx, store.KeySessions)
		return seg, err
	}
	return seg, nil
}

// LiveFeedback classifies each typed word against the current segment for
// real-time display. The verdicts never influence scoring.
func (e *Engine) LiveFeedback(userText string) ([]compare.Verdict, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seg, err := e.nav.Segment()
	if err != nil {
		return nil, err
	}
	return e.cmp.LiveVerdicts(userText, seg.Text), nil
}

// AttemptResult is everything a caller needs to render after one scored
// attempt.
type AttemptResult struct {
	SegmentIndex int                      `json:"segment_index"`
	Check        compare.Result           `json:"check"`
	TypingSpeed  float64                  `json:"typing_speed"`
	Progress     practice.SegmentProgress `json:"progress"`

	// NewAchievements lists achievements unlocked by this attempt.
	NewAchievements []stats.Achievement `json:"new_achievements,omitempty"`
}

// CheckAttempt scores userText against the current segment, records the
// attempt, and rolls it into the daily statistics, streak, and achievements.
// The in-memory aggregates are always updated before any persistence; a
// persist failure is reported alongside the (still valid) result so the
// caller can retry the write without re-typing.
func (e *Engine) CheckAttempt(ctx context.Context, userText string, timeTaken float64) (*AttemptResult, error) {
	ctx, span := observe.StartSpan(ctx, "attempt.check")
	defer span.End()

	e.mu.Lock()
	seg, err := e.nav.Segment()
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	current := e.nav.Current()
	res := e.cmp.Check(userText, seg.Text)
	e.mu.Unlock()

	speed := compare.TypingSpeed(userText, timeTaken)
	attempt := practice.Attempt{
		Timestamp:    e.clock(),
		Accuracy:     res.Accuracy,
		TypingSpeed:  speed,
		TimeTaken:    timeTaken,
		CorrectWords: res.CorrectWords,
		TotalWords:   res.TotalWords,
		Errors:       res.Errors,
	}

	wasCompleted := e.segmentCompleted(current)

	sp, err := e.sessions.RecordAttempt(ctx, current, attempt)
	if sp == nil {
		// Validation failure or no active session; nothing was recorded.
		return nil, err
	}

	var persistErrs []error
	if err != nil {
		e.metrics.RecordStoreError(ctx, store.KeySessions)
		persistErrs = append(persistErrs, err)
	}

	result := &AttemptResult{
		SegmentIndex: current,
		Check:        res,
		TypingSpeed:  speed,
		Progress:     *sp,
	}

	e.metrics.RecordAttempt(ctx, res.Accuracy, speed, timeTaken, sp.Completed)
	if sp.Completed && !wasCompleted {
		e.metrics.RecordSegmentCompleted(ctx)
	}

	observe.Logger(ctx).Info("attempt recorded",
		"segment", current,
		"accuracy", res.Accuracy,
		"typing_speed", speed,
		"completed", sp.Completed,
	)

	session := e.sessions.Current()

	// Daily ledger.
	snap := stats.AttemptSnapshot{
		SegmentIndex: current,
		Accuracy:     res.Accuracy,
		TypingSpeed:  speed,
		TimeTaken:    timeTaken,
		Timestamp:    attempt.Timestamp,
	}
	if err := e.daily.UpdateDailyStats(ctx, session.ID, snap); err != nil {
		e.metrics.RecordStoreError(ctx, store.KeyStatistics)
		persistErrs = append(persistErrs, err)
	}

	// Streak and lifetime practice time.
	streak, err := e.progress.UpdateStreak(ctx)
	if err != nil {
		e.metrics.RecordStoreError(ctx, store.KeyProgress)
		persistErrs = append(persistErrs, err)
	}
	if err := e.progress.AddPracticeTime(ctx, timeTaken); err != nil {
		e.metrics.RecordStoreError(ctx, store.KeyProgress)
		persistErrs = append(persistErrs, err)
	}

	// Achievements derived from today's stats.
	if unlocked, err := e.checkAchievements(ctx, streak); err == nil {
		result.NewAchievements = unlocked
	} else {
		persistErrs = append(persistErrs, err)
	}

	// A fully completed session records its video as done.
	if p := session.Progress; p.TotalSegments > 0 && p.CompletedSegments == p.TotalSegments {
		if err := e.progress.RecordCompletedVideo(ctx, session.VideoPath, p.Accuracy); err != nil {
			persistErrs = append(persistErrs, err)
		}
	}

	return result, errors.Join(persistErrs...)
}

// segmentCompleted reports whether the segment already reached completion in
// the active session.
func (e *Engine) segmentCompleted(index int) bool {
	session := e.sessions.Current()
	if session == nil {
		return false
	}
	sp := session.SegmentsData[fmt.Sprint(index)]
	return sp != nil && sp.Completed
}

// checkAchievements evaluates the achievement rules against today's stats
// and persists any newly unlocked ones, returning just the new unlocks.
func (e *Engine) checkAchievements(ctx context.Context, streak int) ([]stats.Achievement, error) {
	cs, err := e.daily.CurrentStats(ctx, streak)
	if err != nil {
		return nil, err
	}
	unlocked := stats.Unlocked(cs)
	if len(unlocked) == 0 {
		return nil, nil
	}

	existing, err := e.daily.Achievements(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	var fresh []stats.Achievement
	names := make([]string, 0, len(unlocked))
	for _, a := range unlocked {
		names = append(names, a.ID)
		if !have[a.ID] {
			fresh = append(fresh, a)
		}
	}
	if err := e.daily.SetAchievements(ctx, names); err != nil {
		e.metrics.RecordStoreError(ctx, store.KeyStatistics)
		return nil, err
	}
	return fresh, nil
}

// DifficultSegments surfaces the segments of the active session the user
// struggles with, hardest first.
func (e *Engine) DifficultSegments() []practice.DifficultSegment {
	return e.sessions.DifficultSegments()
}

// Recommendations derives practice nudges for the active session.
func (e *Engine) Recommendations() []practice.Recommendation {
	return e.sessions.Recommendations()
}

// SessionStatistics returns the detailed snapshot of the active session.
func (e *Engine) SessionStatistics() practice.SessionStatistics {
	return e.sessions.Statistics()
}

// CurrentStats returns today's aggregate statistics with the live streak.
func (e *Engine) CurrentStats(ctx context.Context) (stats.CurrentStats, error) {
	streak, err := e.progress.Streak(ctx)
	if err != nil {
		return stats.CurrentStats{}, err
	}
	return e.daily.CurrentStats(ctx, streak)
}

// PracticeSummary returns the lifetime practice overview.
func (e *Engine) PracticeSummary(ctx context.Context) (stats.PracticeSummary, error) {
	return e.progress.Summary(ctx)
}

// Achievements returns the persisted unlocked achievement names.
func (e *Engine) Achievements(ctx context.Context) ([]string, error) {
	return e.daily.Achievements(ctx)
}

// AddWordNote saves a word to the active session's video notes.
func (e *Engine) AddWordNote(ctx context.Context, word string) error {
	session := e.sessions.Current()
	if session == nil {
		return practice.ErrNoActiveSession
	}
	return e.notes.AddWord(ctx, session.VideoPath, word)
}

// AddSegmentNote saves the current segment's text to the active session's
// video notes.
func (e *Engine) AddSegmentNote(ctx context.Context) error {
	session := e.sessions.Current()
	if session == nil {
		return practice.ErrNoActiveSession
	}
	seg, err := e.Segment()
	if err != nil {
		return err
	}
	return e.notes.AddSegment(ctx, session.VideoPath, seg.Text)
}

// ExportNotes renders the active session's notes as markdown and clears them.
func (e *Engine) ExportNotes(ctx context.Context) (string, error) {
	session := e.sessions.Current()
	if session == nil {
		return "", practice.ErrNoActiveSession
	}
	return e.notes.Export(ctx, session.VideoPath)
}

// StoreChecker returns a readiness check that probes the backing store.
// A store that has never been written is still healthy.
func (e *Engine) StoreChecker() health.Checker {
	return health.Checker{
		Name: "store",
		Check: func(ctx context.Context) error {
			var probe struct{}
			err := e.st.Load(ctx, store.KeySessions, &probe)
			if err == nil || errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		},
	}
}
