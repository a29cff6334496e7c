// Package sequence implements the cooperative task chain of the
// networking core (spec §4.11), grounded on original_source/sequence.cpp
// and sequence.hpp. Because this Reactor's timers are level-triggered
// rather than callback-driven (spec §4.5), Sequence does not receive a
// callback when its timer fires — the owning event loop must call Tick
// once per reactor iteration to advance it.
package sequence

import (
	"github.com/kestrel-io/reactorcore/clock"
	"github.com/kestrel-io/reactorcore/reactor"
)

type stepKind int

const (
	stepCallback stepKind = iota
	stepWait
	stepWaitCondition
)

type step struct {
	kind      stepKind
	fn        func()
	delayMs   int64 // Callback/Wait: the wait duration; WaitCondition: poll_ms
	predicate func() bool
	timeoutMs int64 // WaitCondition only
}

// Sequence is an ordered list of steps driven by one Reactor's timer API
// (spec §4.11). It holds at most one outstanding timer id at a time.
type Sequence struct {
	r     *reactor.Reactor
	steps []step
	index int

	running bool
	paused  bool

	timerID reactor.TimerId

	// stepStartTime anchors a WaitCondition step's timeout_ms measurement;
	// it is set once when the step begins and not touched by intermediate
	// re-polls or by pause/resume (matching original_source/sequence.cpp,
	// which does not adjust task_start_time across a pause either).
	stepStartTime clock.TimePoint

	// tickArmTime/armedMs describe the currently outstanding timer, so
	// Pause can compute "remaining = total - elapsed" (spec §4.11).
	tickArmTime clock.TimePoint
	armedMs     int64
	remainingMs int64
}

// New constructs an empty Sequence bound to r.
func New(r *reactor.Reactor) *Sequence {
	return &Sequence{r: r}
}

// AddCallback appends a step that waits delayMs (a one-shot timer), then
// invokes f and advances.
func (s *Sequence) AddCallback(f func(), delayMs int64) {
	s.steps = append(s.steps, step{kind: stepCallback, fn: f, delayMs: delayMs})
}

// AddWait appends a step that waits periodMs, then advances.
func (s *Sequence) AddWait(periodMs int64) {
	s.steps = append(s.steps, step{kind: stepWait, delayMs: periodMs})
}

// AddWaitCondition appends a step that, after pollMs, evaluates pred;
// advances if true, otherwise reschedules every pollMs until timeoutMs
// has elapsed since the step began, at which point it advances anyway
// (spec §4.11: timeout is best-effort progress, not an error).
func (s *Sequence) AddWaitCondition(pred func() bool, pollMs, timeoutMs int64) {
	s.steps = append(s.steps, step{
		kind:      stepWaitCondition,
		predicate: pred,
		delayMs:   pollMs,
		timeoutMs: timeoutMs,
	})
}

// ClearTasks removes all steps and cancels any outstanding timer.
func (s *Sequence) ClearTasks() {
	s.cancelTimer()
	s.steps = nil
	s.index = 0
}

// Start begins execution from the first step. A no-op if already running
// or if no steps have been added.
func (s *Sequence) Start() {
	if s.running || len(s.steps) == 0 {
		return
	}
	s.running = true
	s.paused = false
	s.index = 0
	s.beginStep()
}

// Stop halts execution and cancels any outstanding timer. The step index
// is not reset, matching original_source/sequence.cpp's stop().
func (s *Sequence) Stop() {
	s.running = false
	s.paused = false
	s.remainingMs = 0
	s.cancelTimer()
}

// Pause freezes progress, computing the remaining time to the current
// step's next tick as total - elapsed and storing it for Resume.
func (s *Sequence) Pause() {
	if !s.running || s.paused {
		return
	}
	s.paused = true
	if s.timerID == 0 {
		return
	}
	elapsed := clock.DurationMs(s.tickArmTime, clock.Now())
	remaining := s.armedMs - elapsed
	if remaining < 0 {
		remaining = 0
	}
	s.remainingMs = remaining
	s.cancelTimer()
}

// Resume re-arms the current step's timer with the remainder stored by
// Pause.
func (s *Sequence) Resume() {
	if !s.running || !s.paused {
		return
	}
	s.paused = false
	s.scheduleTimer(s.remainingMs)
	s.remainingMs = 0
}

// Tick advances the sequence if its outstanding timer has expired. The
// owning event loop must call this once per reactor iteration.
func (s *Sequence) Tick() {
	if !s.running || s.paused || s.timerID == 0 {
		return
	}
	if !s.r.IsTimerExpired(s.timerID) {
		return
	}
	s.cancelTimer()

	cur := s.steps[s.index]
	switch cur.kind {
	case stepCallback:
		if cur.fn != nil {
			cur.fn()
		}
		s.advance()
	case stepWait:
		s.advance()
	case stepWaitCondition:
		if cur.predicate != nil && cur.predicate() {
			s.advance()
			return
		}
		elapsed := clock.DurationMs(s.stepStartTime, clock.Now())
		if elapsed >= cur.timeoutMs {
			s.advance()
			return
		}
		s.scheduleTimer(cur.delayMs)
	}
}

func (s *Sequence) advance() {
	s.index++
	if s.index >= len(s.steps) {
		s.running = false
		return
	}
	s.beginStep()
}

func (s *Sequence) beginStep() {
	s.stepStartTime = clock.Now()
	s.scheduleTimer(s.steps[s.index].delayMs)
}

func (s *Sequence) scheduleTimer(delayMs int64) {
	s.tickArmTime = clock.Now()
	s.armedMs = delayMs
	s.timerID = s.r.CreateTimer(delayMs, false)
}

func (s *Sequence) cancelTimer() {
	if s.timerID == 0 {
		return
	}
	s.r.DestroyTimer(s.timerID)
	s.timerID = 0
}
