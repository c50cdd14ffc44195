// Package navigator tracks the learner's position within a loaded segment
// list and computes each segment's effective playback window.
//
// The navigator is a pure state holder: moving to a different segment is
// expected to make the calling layer seek the external player and persist the
// new index, but none of those side effects happen here.
package navigator

import (
	"errors"
	"fmt"

	"github.com/hvngan/echoscribe/pkg/subtitle"
)

// ErrNoSegments is returned by [Navigator.Load] when the segment list is
// empty, and by other methods before a successful Load.
var ErrNoSegments = errors.New("navigator: no segments loaded")

// ErrAtFirstSegment signals that Previous was called at index 1. It is an
// advisory boundary signal, not a failure; the navigator state is unchanged.
var ErrAtFirstSegment = errors.New("navigator: already at first segment")

// ErrAtLastSegment signals that Next was called at the last index. It is an
// advisory boundary signal, not a failure; the navigator state is unchanged.
var ErrAtLastSegment = errors.New("navigator: already at last segment")

// Window is the playback span used for a segment, in milliseconds.
type Window struct {
	Start int64
	End   int64
}

// Navigator holds the current 1-based segment index over an immutable segment
// list. The zero value is unloaded; call [Navigator.Load] first. A Navigator
// is not safe for concurrent use — the engine serialises access.
type Navigator struct {
	segments []subtitle.Segment
	current  int
}

// Load replaces the segment list wholesale and resets the position to the
// first segment. Returns [ErrNoSegments] when segments is empty, leaving any
// previously loaded list in place.
func (n *Navigator) Load(segments []subtitle.Segment) error {
	if len(segments) == 0 {
		return ErrNoSegments
	}
	n.segments = segments
	n.current = 1
	return nil
}

// Len returns the number of loaded segments.
func (n *Navigator) Len() int {
	return len(n.segments)
}

// Current returns the 1-based index of the current segment, or 0 when
// unloaded.
func (n *Navigator) Current() int {
	return n.current
}

// Segment returns the current segment. Returns [ErrNoSegments] when unloaded.
func (n *Navigator) Segment() (subtitle.Segment, error) {
	if n.current == 0 {
		return subtitle.Segment{}, ErrNoSegments
	}
	return n.segments[n.current-1], nil
}

// Next advances to the following segment. At the last segment it is a no-op
// and returns the advisory [ErrAtLastSegment].
func (n *Navigator) Next() error {
	if n.current == 0 {
		return ErrNoSegments
	}
	if n.current >= len(n.segments) {
		return ErrAtLastSegment
	}
	n.current++
	return nil
}

// Previous moves back one segment. At the first segment it is a no-op and
// returns the advisory [ErrAtFirstSegment].
func (n *Navigator) Previous() error {
	if n.current == 0 {
		return ErrNoSegments
	}
	if n.current <= 1 {
		return ErrAtFirstSegment
	}
	n.current--
	return nil
}

// JumpTo moves directly to the 1-based index i, used when resuming a session
// at its persisted position.
func (n *Navigator) JumpTo(i int) error {
	if len(n.segments) == 0 {
		return ErrNoSegments
	}
	if i < 1 || i > len(n.segments) {
		return fmt.Errorf("navigator: index %d out of range [1, %d]", i, len(n.segments))
	}
	n.current = i
	return nil
}

// EffectiveWindow returns the playback window for the 1-based index i. The
// window's end is extended to the next segment's start when one exists, so
// playback runs right up to the next cue's onset; the last segment uses its
// own end time.
func (n *Navigator) EffectiveWindow(i int) (Window, error) {
	if len(n.segments) == 0 {
		return Window{}, ErrNoSegments
	}
	if i < 1 || i > len(n.segments) {
		return Window{}, fmt.Errorf("navigator: index %d out of range [1, %d]", i, len(n.segments))
	}

	seg := n.segments[i-1]
	w := Window{Start: seg.Start, End: seg.End}
	if i < len(n.segments) {
		w.End = n.segments[i].Start
	}
	return w, nil
}
