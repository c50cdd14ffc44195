package practice

import (
	"fmt"
	"sort"
	"strconv"
)

// Difficulty thresholds. A segment is difficult when any one condition holds.
const (
	difficultAttempts      = 3    // more than this many attempts
	difficultAccuracy      = 80.0 // best accuracy below this
	difficultAverageTime   = 60.0 // seconds
	accuracyTarget         = 90.0 // session accuracy nudge threshold
	slowSegmentAverageTime = 45.0 // seconds
)

// DifficultSegment identifies a segment the learner is struggling with.
type DifficultSegment struct {
	SegmentIndex int     `json:"segment_id"`
	Attempts     int     `json:"attempts"`
	BestAccuracy float64 `json:"best_accuracy"`
	AverageTime  float64 `json:"average_time"`
}

// RecommendationType labels a practice nudge.
type RecommendationType string

const (
	RecommendReview   RecommendationType = "review"
	RecommendAccuracy RecommendationType = "accuracy"
	RecommendSpeed    RecommendationType = "speed"
)

// Recommendation is one human-readable practice nudge.
type Recommendation struct {
	Type    RecommendationType `json:"type"`
	Message string             `json:"message"`

	// Segments lists the affected segment indices for review nudges.
	Segments []int `json:"segments,omitempty"`

	// Target is the goal value for accuracy nudges.
	Target float64 `json:"target,omitempty"`
}

// DifficultSegments returns the active session's struggling segments, hardest
// first (ascending best accuracy). A segment qualifies when it has more than
// three attempts, a best accuracy under 80, or an average time over a minute.
// Returns an empty slice when no session is active or nothing qualifies.
func (m *Manager) DifficultSegments() []DifficultSegment {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}

	var difficult []DifficultSegment
	for key, sp := range m.current.SegmentsData {
		if len(sp.Attempts) <= difficultAttempts &&
			sp.BestAccuracy >= difficultAccuracy &&
			sp.AverageTime <= difficultAverageTime {
			continue
		}
		idx, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		difficult = append(difficult, DifficultSegment{
			SegmentIndex: idx,
			Attempts:     len(sp.Attempts),
			BestAccuracy: sp.BestAccuracy,
			AverageTime:  sp.AverageTime,
		})
	}

	sort.Slice(difficult, func(i, j int) bool {
		return difficult[i].BestAccuracy < difficult[j].BestAccuracy
	})
	return difficult
}

// Recommendations derives practice nudges from the active session. An empty
// result means nothing needs attention — it is not an error.
func (m *Manager) Recommendations() []Recommendation {
	difficult := m.DifficultSegments()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}

	var recs []Recommendation

	if len(difficult) > 0 {
		segments := make([]int, len(difficult))
		for i, d := range difficult {
			segments[i] = d.SegmentIndex
		}
		recs = append(recs, Recommendation{
			Type:     RecommendReview,
			Message:  fmt.Sprintf("Review %d difficult segments", len(difficult)),
			Segments: segments,
		})
	}

	if m.current.Progress.Accuracy < accuracyTarget {
		recs = append(recs, Recommendation{
			Type:    RecommendAccuracy,
			Message: "Focus on accuracy improvement",
			Target:  accuracyTarget,
		})
	}

	slow := 0
	for _, sp := range m.current.SegmentsData {
		if sp.AverageTime > slowSegmentAverageTime {
			slow++
		}
	}
	if slow > 0 {
		recs = append(recs, Recommendation{
			Type:    RecommendSpeed,
			Message: fmt.Sprintf("Practice typing speed on %d slow segments", slow),
		})
	}

	return recs
}
