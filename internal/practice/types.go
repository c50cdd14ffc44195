// Package practice owns the active transcription-practice session: recording
// scored attempts per segment, deriving session-level progress, and surfacing
// difficult segments and practice recommendations.
//
// Aggregates are always recomputed in full from the attempt history by pure
// functions rather than mutated incrementally, so a replay of the same
// history always yields the same aggregate.
package practice

import (
	"time"

	"github.com/hvngan/echoscribe/pkg/compare"
)

// Attempt is one scored submission of typed text against a segment's
// reference text. Attempts are append-only: once recorded they are never
// mutated or deleted. Two identical attempts are two valid data points —
// repeated practice is signal, not duplication.
type Attempt struct {
	// Timestamp is when the attempt was checked.
	Timestamp time.Time `json:"timestamp"`

	// Accuracy is the scoring-pass result in [0, 100].
	Accuracy float64 `json:"accuracy"`

	// TypingSpeed is words per minute, >= 0.
	TypingSpeed float64 `json:"typing_speed"`

	// TimeTaken is the elapsed typing time in seconds, >= 0.
	TimeTaken float64 `json:"time_taken"`

	// CorrectWords and TotalWords mirror the comparator result;
	// CorrectWords <= TotalWords.
	CorrectWords int `json:"correct_words"`
	TotalWords   int `json:"total_words"`

	// Errors lists positional mismatches in reference order.
	Errors []compare.WordError `json:"errors,omitempty"`
}

// SegmentProgress is the per-segment aggregate over an append-only attempt
// history. Derived fields satisfy:
//
//	BestAccuracy == max(a.Accuracy for a in Attempts)
//	len(TypingSpeeds) == len(Attempts)
type SegmentProgress struct {
	Attempts     []Attempt `json:"attempts"`
	BestAccuracy float64   `json:"best_accuracy"`
	AverageTime  float64   `json:"average_time"`
	TypingSpeeds []float64 `json:"typing_speeds"`

	// Completed is set once BestAccuracy reaches the completion threshold
	// and never reverts.
	Completed bool `json:"completed"`
}

// Progress is the session-level derived summary.
type Progress struct {
	TotalSegments     int     `json:"total_segments"`
	CompletedSegments int     `json:"completed_segments"`
	CurrentSegment    int     `json:"current_segment"`
	Accuracy          float64 `json:"accuracy"`
	TypingSpeed       float64 `json:"typing_speed"`
	TotalTime         float64 `json:"total_time"`
}

// Session is one practice run over one video and subtitle pair.
type Session struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	VideoPath    string    `json:"video_path"`
	SubtitlePath string    `json:"subtitle_path"`
	CreatedDate  time.Time `json:"created_date"`
	LastAccessed time.Time `json:"last_accessed"`
	Progress     Progress  `json:"progress"`

	// SegmentsData maps the segment index (as a string key, matching the
	// persisted JSON shape) to its progress record.
	SegmentsData map[string]*SegmentProgress `json:"segments_data"`
}

// sessionsDocument is the wholesale shape of the sessions store document.
type sessionsDocument struct {
	Sessions []*Session `json:"sessions"`
}

// SessionStatistics is a detailed snapshot of the active session.
type SessionStatistics struct {
	TotalSegments     int     `json:"total_segments"`
	CompletedSegments int     `json:"completed_segments"`
	TotalAttempts     int     `json:"total_attempts"`
	AverageAccuracy   float64 `json:"average_accuracy"`
	AverageSpeed      float64 `json:"average_speed"`
	TotalTime         float64 `json:"total_time"`
}
