package reactor

import (
	"testing"

	"github.com/kestrel-io/reactorcore/clock"
)

func TestOneShotTimerExpiresAfterDelay(t *testing.T) {
	w := newTimerWheel()
	now := clock.Now()
	id := w.create(now, 100, false)

	w.tick(now)
	if w.isExpired(id) {
		t.Error("timer should not be expired immediately")
	}

	w.tick(clock.AddMs(now, 150))
	if !w.isExpired(id) {
		t.Error("timer should be expired after 150ms for a 100ms one-shot")
	}

	w.reset(clock.AddMs(now, 150), id)
	if w.isExpired(id) {
		t.Error("reset should clear the expired flag")
	}
}

func TestRepeatingTimerRearmsOnlyAfterReset(t *testing.T) {
	w := newTimerWheel()
	now := clock.Now()
	id := w.create(now, 50, true)

	t1 := clock.AddMs(now, 60)
	w.tick(t1)
	if !w.isExpired(id) {
		t.Fatal("repeating timer should have expired at t+60ms")
	}

	// Without reset, the flag stays level-triggered true across further ticks.
	w.tick(clock.AddMs(now, 70))
	if !w.isExpired(id) {
		t.Error("expired flag should remain set until reset, per level-triggered model")
	}

	w.reset(t1, id)
	if w.isExpired(id) {
		t.Error("reset should clear expired flag")
	}

	// Re-arm point is t1+interval, not the original expiry+interval.
	entry := w.timers[id]
	want := clock.AddMs(t1, 50)
	if entry.expiry != want {
		t.Error("repeating timer should re-arm to reset-time + interval, not catch up from original expiry")
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	w := newTimerWheel()
	id := w.create(clock.Now(), 10, false)
	w.destroy(id)
	w.destroy(id)
	if w.isExpired(id) {
		t.Error("destroyed/unknown timer should report not expired")
	}
}

func TestUnknownTimerIdIsNoOp(t *testing.T) {
	w := newTimerWheel()
	if w.isExpired(999) {
		t.Error("unknown timer id should report false")
	}
	w.reset(clock.Now(), 999) // must not panic
}

func TestNextExpiryMsPicksEarliest(t *testing.T) {
	w := newTimerWheel()
	now := clock.Now()
	w.create(now, 200, false)
	idSoon := w.create(now, 50, false)

	next := w.nextExpiryMs(now)
	if next < 0 || next > 50 {
		t.Errorf("nextExpiryMs = %d, want close to 50 (earliest timer)", next)
	}

	w.timers[idSoon].expired = true
	next = w.nextExpiryMs(now)
	if next < 150 {
		t.Errorf("nextExpiryMs should skip already-expired timers, got %d", next)
	}
}
