package sim

import (
	"github.com/bcolloran/system-solver/dynamo"
)

// Event is one detected discrete event: the refined event time, the state
// immediately before the impulse map, and the state immediately after.
type Event struct {
	Kind   string
	Index  int
	Time   float64
	Before dynamo.State
	After  dynamo.State
}

// Trajectory is the time-indexed output of a single simulation run.
// It is produced by exactly one (model, params) pair and never mutated
// after Run returns.
type Trajectory struct {
	Times  []float64
	States []dynamo.State
	Events []Event
}

func (tr *Trajectory) Duration() float64 {
	if len(tr.Times) == 0 {
		return 0
	}
	return tr.Times[len(tr.Times)-1]
}

// At linearly interpolates the state at time t between recorded samples.
// Times outside the simulated horizon clamp to the first/last sample.
func (tr *Trajectory) At(t float64) dynamo.State {
	n := len(tr.Times)
	if n == 0 {
		return nil
	}
	if t <= tr.Times[0] {
		return tr.States[0].Clone()
	}
	if t >= tr.Times[n-1] {
		return tr.States[n-1].Clone()
	}

	// Binary search for the bracketing interval.
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if tr.Times[mid] <= t {
			lo = mid
		} else {
			hi = mid
		}
	}

	t0, t1 := tr.Times[lo], tr.Times[hi]
	frac := 0.0
	if t1 > t0 {
		frac = (t - t0) / (t1 - t0)
	}
	x0, x1 := tr.States[lo], tr.States[hi]
	out := make(dynamo.State, len(x0))
	for i := range out {
		out[i] = x0[i] + frac*(x1[i]-x0[i])
	}
	return out
}

// EventsOf returns the events of one kind in time order.
func (tr *Trajectory) EventsOf(kind string) []Event {
	var evs []Event
	for _, e := range tr.Events {
		if e.Kind == kind {
			evs = append(evs, e)
		}
	}
	return evs
}

// Event returns the idx-th event of the given kind (0-based).
func (tr *Trajectory) Event(kind string, idx int) (Event, bool) {
	evs := tr.EventsOf(kind)
	if idx < 0 || idx >= len(evs) {
		return Event{}, false
	}
	return evs[idx], true
}
