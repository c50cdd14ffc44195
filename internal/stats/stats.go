// Package stats rolls attempt results up into per-day statistics and
// long-running progress state (practice streak, total time, completed
// videos). Both aggregates are persisted as JSON documents through a
// [store.Store]; recomputation always happens in memory first, so a
// failed persist never corrupts the aggregate and the caller may retry
// the write without replaying attempts.
package stats

import "time"

// dateKey is the calendar-day key format used throughout the package.
const dateKey = "2006-01-02"

type settings struct {
	clock func() time.Time
}

// Option configures an [Aggregator] or [Tracker].
type Option func(*settings)

// WithClock overrides the time source. Useful in tests.
func WithClock(clock func() time.Time) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

func newSettings(opts []Option) settings {
	s := settings{clock: time.Now}
	for _, o := range opts {
		o(&s)
	}
	return s
}

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
