// Package subtitle provides SRT subtitle parsing and timestamp conversion for
// echoscribe.
//
// A subtitle file is read into an ordered list of [Segment] values, each one
// covering a time window of the source video together with the reference text
// a learner is expected to transcribe. Parsing is line-oriented and tolerant:
// a single malformed block never aborts the whole file — missing timestamps
// or text are zero-filled and the block is emitted as-is.
package subtitle

// Segment is one transcribable unit from a subtitle source.
//
// Start and End are millisecond offsets into the video. Index is the block
// number as it appeared in the source file; it is advisory metadata only and
// is neither validated for uniqueness nor for ordering — segment identity is
// positional.
type Segment struct {
	// Index is the 1-based block number from the source file.
	Index int `json:"index"`

	// Start is the segment's start offset in milliseconds.
	Start int64 `json:"start_time"`

	// End is the segment's end offset in milliseconds. End > Start for
	// well-formed blocks; a block with an unparseable timestamp line has
	// both fields zero.
	End int64 `json:"end_time"`

	// Text is the reference sentence. Multi-line blocks are space-joined.
	Text string `json:"text"`
}

// Duration returns the segment's own length in milliseconds. It does not
// account for the extended playback window — see the navigator package for
// the effective window rule.
func (s Segment) Duration() int64 {
	return s.End - s.Start
}
