package led

import (
	"math"
	"time"
)

// never is the deadline of a static action; the scheduler never reaches it.
const never = time.Duration(math.MaxInt64)

// Timings holds the phase lengths shared by all blink actions.
// Every blink has the same on phase and differs only in the off phase.
type Timings struct {
	On       time.Duration
	OffAngry time.Duration
	OffSlow  time.Duration
	OffOnce  time.Duration
}

// DefaultTimings returns the firmware phase lengths.
func DefaultTimings() Timings {
	return Timings{
		On:       100 * time.Millisecond,
		OffAngry: 100 * time.Millisecond,
		OffSlow:  1900 * time.Millisecond,
		OffOnce:  400 * time.Millisecond,
	}
}

func (t Timings) off(a Action) time.Duration {
	switch a {
	case ActionBlinkAngry:
		return t.OffAngry
	case ActionBlinkSlow:
		return t.OffSlow
	default:
		return t.OffOnce
	}
}

// Phases returns the on and off lengths of a blink action, zero for static ones.
func (t Timings) Phases(a Action) (on, off time.Duration) {
	if !a.Blinks() {
		return 0, 0
	}
	return t.On, t.off(a)
}

type repeatState uint8

const (
	repeatsInfinite repeatState = iota
	repeatsRemaining
	repeatsExhausted
)

// repeats separates "run until superseded" from "ran out". Externally both read
// as a negative count and both are skipped once a newer action is queued.
type repeats struct {
	state repeatState
	n     int
}

func newRepeats(n int) repeats {
	if n < 0 {
		return repeats{state: repeatsInfinite}
	}
	return repeats{state: repeatsRemaining, n: n}
}

// skippable reports whether a newer queued action may replace this one.
func (r repeats) skippable() bool {
	return r.state != repeatsRemaining
}

// count returns the counter as the public API sees it.
func (r repeats) count() int {
	if r.state == repeatsRemaining {
		return r.n
	}
	return Forever
}

// completeCycle accounts for one finished on+off cycle.
func (r repeats) completeCycle() (repeats, bool) {
	if r.state != repeatsRemaining {
		return r, false
	}
	if r.n == 0 {
		return repeats{state: repeatsExhausted}, true
	}
	return repeats{state: repeatsRemaining, n: r.n - 1}, false
}

// transition is the outcome of evaluating one action at one instant.
type transition struct {
	on        bool // logical output, true = lit
	phase     int
	deadline  time.Duration
	repeats   repeats
	exhausted bool
	malformed bool
}

// advance evaluates action in the given phase at virtual time now.
// It touches neither the queue nor the lock.
func (t Timings) advance(action Action, phase int, reps repeats, now time.Duration) transition {
	switch {
	case action == ActionOff:
		return transition{deadline: never, repeats: reps}
	case action == ActionOn:
		return transition{on: true, deadline: never, repeats: reps}
	case action.Blinks() && phase == 0:
		return transition{on: true, phase: 1, deadline: now + t.On, repeats: reps}
	case action.Blinks():
		next, exhausted := reps.completeCycle()
		return transition{
			deadline:  now + t.off(action),
			repeats:   next,
			exhausted: exhausted,
		}
	default:
		return transition{malformed: true, repeats: reps}
	}
}
