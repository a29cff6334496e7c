package reactor

import "github.com/kestrel-io/reactorcore/clock"

// TimerId is a monotonic identifier for an entry in the timer wheel.
type TimerId uint32

// timerEntry is a level-triggered expiry record (spec §3, §4.5). Timers do
// not fire callbacks: the Reactor only flips Expired, and applications poll
// it each iteration. A repeating timer re-arms to now+interval — not
// prev_expiry+interval — only after the application calls Reset, which is
// intentional to prevent catch-up bursts after a long stall.
type timerEntry struct {
	id       TimerId
	expiry   clock.TimePoint
	interval int64 // milliseconds; 0 means one-shot
	repeat   bool
	expired  bool
}

// timerWheel is embedded in the Reactor and scanned linearly once per tick,
// matching spec §4.4 step 1 ("scan all timers").
type timerWheel struct {
	nextID TimerId
	timers map[TimerId]*timerEntry
}

func newTimerWheel() *timerWheel {
	return &timerWheel{
		nextID: 1,
		timers: make(map[TimerId]*timerEntry),
	}
}

func (w *timerWheel) create(now clock.TimePoint, ms int64, repeat bool) TimerId {
	id := w.nextID
	w.nextID++
	w.timers[id] = &timerEntry{
		id:       id,
		expiry:   clock.AddMs(now, ms),
		interval: ms,
		repeat:   repeat,
	}
	return id
}

// tick marks every active timer whose expiry has passed as expired.
// Expiry is level-triggered: once set, it stays true until Reset or Destroy.
func (w *timerWheel) tick(now clock.TimePoint) {
	for _, t := range w.timers {
		if !t.expired && !now.Before(t.expiry) {
			t.expired = true
		}
	}
}

// isExpired returns false for an unknown id (spec §4.5: no-op by design).
func (w *timerWheel) isExpired(id TimerId) bool {
	t, ok := w.timers[id]
	if !ok {
		return false
	}
	return t.expired
}

// reset clears the expired flag; for repeating timers it also schedules the
// next expiry as now+interval (never prev_expiry+interval).
func (w *timerWheel) reset(now clock.TimePoint, id TimerId) {
	t, ok := w.timers[id]
	if !ok {
		return
	}
	t.expired = false
	if t.repeat {
		t.expiry = clock.AddMs(now, t.interval)
	}
}

// destroy removes a timer. Idempotent.
func (w *timerWheel) destroy(id TimerId) {
	delete(w.timers, id)
}

// nextExpiryMs returns the number of milliseconds until the earliest
// not-yet-expired timer fires, or -1 if there are none. Used to bound the
// Reactor's poll timeout so an armed timer is never missed by a long block.
func (w *timerWheel) nextExpiryMs(now clock.TimePoint) int64 {
	next := clock.Max
	found := false
	for _, t := range w.timers {
		if !t.expired && t.expiry.Before(next) {
			next = t.expiry
			found = true
		}
	}
	if !found {
		return -1
	}
	d := clock.DurationMs(now, next)
	if d < 0 {
		d = 0
	}
	return d
}
