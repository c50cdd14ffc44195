package subtitle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadTimestamp is returned by [ToMilliseconds] when the input does not
// match the HH:MM:SS,mmm form. Callers on non-critical paths may substitute
// zero, but must never let a zeroed value reorder segments.
var ErrBadTimestamp = errors.New("subtitle: malformed timestamp")

// ToMilliseconds converts an SRT timestamp of the form "HH:MM:SS,mmm"
// (comma as decimal separator) into a millisecond offset.
//
// The round-trip property ToTimestamp(ToMilliseconds(x)) == x holds for every
// well-formed x with zero-padded fields.
func ToMilliseconds(timestamp string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(timestamp), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadTimestamp, timestamp)
	}

	secParts := strings.Split(parts[2], ",")
	if len(secParts) != 2 {
		return 0, fmt.Errorf("%w: %q: missing millisecond separator", ErrBadTimestamp, timestamp)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: hours: %v", ErrBadTimestamp, timestamp, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: minutes: %v", ErrBadTimestamp, timestamp, err)
	}
	seconds, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: seconds: %v", ErrBadTimestamp, timestamp, err)
	}
	millis, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: milliseconds: %v", ErrBadTimestamp, timestamp, err)
	}

	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("%w: %q: field out of range", ErrBadTimestamp, timestamp)
	}

	total := (int64(hours)*3600+int64(minutes)*60+int64(seconds))*1000 + int64(millis)
	return total, nil
}

// ToTimestamp converts a millisecond offset into the fixed-width SRT form
// "HH:MM:SS,mmm". Negative offsets are clamped to zero.
func ToTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	ms %= 3_600_000
	minutes := ms / 60_000
	ms %= 60_000
	seconds := ms / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
