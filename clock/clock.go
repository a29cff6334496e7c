// Package clock provides the monotonic time source used by the reactor,
// its timer wheel, and everything timed that sits on top of it (Sequence,
// WebSocket close timeouts, HTTP request timeouts). It is never backed by
// wall-clock time so it stays unaffected by system clock adjustments.
package clock

import "time"

// TimePoint is an opaque monotonic instant. Only differences between two
// TimePoints (via DurationMs) or comparisons with Now() are meaningful;
// it must never be formatted or persisted as wall-clock time.
type TimePoint struct {
	t time.Time
}

// Now returns the current monotonic instant.
func Now() TimePoint {
	return TimePoint{t: time.Now()}
}

// AddMs returns tp advanced by n milliseconds (n may be negative).
func AddMs(tp TimePoint, n int64) TimePoint {
	return TimePoint{t: tp.t.Add(time.Duration(n) * time.Millisecond)}
}

// DurationMs returns (b - a) in milliseconds, signed.
func DurationMs(a, b TimePoint) int64 {
	return b.t.Sub(a.t).Milliseconds()
}

// Before reports whether a occurs strictly before b.
func (a TimePoint) Before(b TimePoint) bool {
	return a.t.Before(b.t)
}

// After reports whether a occurs strictly after b.
func (a TimePoint) After(b TimePoint) bool {
	return a.t.After(b.t)
}

// IsZero reports whether tp is the zero TimePoint.
func (tp TimePoint) IsZero() bool {
	return tp.t.IsZero()
}

// Max is a TimePoint that compares after every other TimePoint obtainable
// from Now(), used by the timer wheel to seed a "no next expiry" scan.
var Max = TimePoint{t: time.Unix(1<<62, 0)}
