package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// timestampDelimiter separates the start and end times on an SRT cue line.
const timestampDelimiter = "-->"

// ParseFile reads the SRT file at path and returns its segments in source
// order. The returned error is non-nil only when the file cannot be opened or
// read — individual malformed blocks are absorbed (see [ParseReader]).
func ParseFile(path string) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("subtitle: open %q: %w", path, err)
	}
	defer f.Close()

	segments, err := ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("subtitle: parse %q: %w", path, err)
	}
	return segments, nil
}

// ParseReader parses SRT-format text from r.
//
// Parsing is line-oriented and tolerant:
//
//   - a numeric-only line starts a new block (flushing the previous one);
//   - a line containing "-->" sets the block's start and end times;
//   - any other non-blank line is appended, space-joined, to the block text;
//   - a blank line is a separator only.
//
// The last open block is flushed at end of input. A malformed timestamp line
// leaves both time fields zero and a warning in the log; the block is still
// emitted so that one bad cue never loses the rest of the file. The only
// error condition is a failed read from r.
func ParseReader(r io.Reader) ([]Segment, error) {
	var (
		segments []Segment
		current  *Segment
		text     []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(text, " ")
		segments = append(segments, *current)
		current = nil
		text = nil
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		switch {
		case line == "":
			// Separator between blocks; the next numeric line flushes.

		case isNumeric(line):
			flush()
			idx, _ := strconv.Atoi(line)
			current = &Segment{Index: idx}

		case strings.Contains(line, timestampDelimiter):
			if current == nil {
				// Cue line without a preceding index; open an anonymous block.
				current = &Segment{}
			}
			start, end, err := parseCueTimes(line)
			if err != nil {
				slog.Warn("skipping malformed cue times", "line", line, "err", err)
				break
			}
			current.Start = start
			current.End = end

		default:
			if current == nil {
				current = &Segment{}
			}
			text = append(text, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("subtitle: read input: %w", err)
	}

	flush()
	return segments, nil
}

// parseCueTimes splits an SRT cue line ("start --> end") and converts both
// timestamps to milliseconds.
func parseCueTimes(line string) (start, end int64, err error) {
	parts := strings.SplitN(line, timestampDelimiter, 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadTimestamp, line)
	}
	start, err = ToMilliseconds(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err = ToMilliseconds(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// isNumeric reports whether line consists solely of ASCII digits.
func isNumeric(line string) bool {
	if line == "" {
		return false
	}
	for _, r := range line {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
