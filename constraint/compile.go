package constraint

import (
	"fmt"
	"math"
	"strings"

	"github.com/bcolloran/system-solver/dynamo"
	"github.com/bcolloran/system-solver/sim"
)

// unmetPenalty is the residual reported when an event constraint finds
// fewer events than it references. It is deliberately large relative to
// typical targets so the optimizer is pushed toward regions where the
// event occurs at all.
const unmetPenalty = 1e3

// Residual is a compiled constraint: a named, weighted function of a
// trajectory. Met reports false when the constraint could not be evaluated
// as declared (unmet event); the returned value is then a penalty.
type Residual struct {
	Name   string
	Group  string
	Weight float64
	Eval   func(tr *sim.Trajectory) (value float64, met bool)
}

// Compile turns declared constraints into residual functions, validating
// every observable reference against the model schema. Any configuration
// mistake aborts compilation; nothing is simulated yet.
func Compile(model dynamo.Model, constraints []Constraint) ([]Residual, error) {
	if len(constraints) == 0 {
		return nil, &dynamo.ConfigError{Field: "constraints", Detail: "no constraints declared", Wrapped: dynamo.ErrEmptySchema}
	}

	states := model.States()
	residuals := make([]Residual, 0, len(constraints))

	for i, c := range constraints {
		weight := c.Weight
		if weight == 0 {
			weight = 1
		}
		if weight < 0 || math.IsNaN(weight) {
			return nil, &dynamo.ConfigError{
				Field:   c.Label(),
				Detail:  fmt.Sprintf("weight %g", c.Weight),
				Wrapped: dynamo.ErrNonPositiveWeight,
			}
		}
		if math.IsNaN(c.Target) || math.IsInf(c.Target, 0) {
			return nil, &dynamo.ConfigError{Field: c.Label(), Detail: "target is not finite", Wrapped: dynamo.ErrMalformedBounds}
		}

		var eval func(tr *sim.Trajectory) (float64, bool)
		var err error

		switch c.Kind {
		case PointInTime:
			eval, err = compilePointInTime(states, c)
		case AtEvent:
			eval, err = compileAtEvent(states, c)
		case Settling:
			eval, err = compileSettling(states, c)
		default:
			err = &dynamo.ConfigError{
				Field:   c.Label(),
				Detail:  fmt.Sprintf("unknown constraint kind %q (index %d)", c.Kind, i),
				Wrapped: dynamo.ErrUnknownState,
			}
		}
		if err != nil {
			return nil, err
		}

		residuals = append(residuals, Residual{
			Name:   c.Label(),
			Group:  c.Group,
			Weight: weight,
			Eval:   eval,
		})
	}

	return residuals, nil
}

func stateIndexOrErr(states []dynamo.StateSpec, name, label string) (int, error) {
	idx, ok := dynamo.StateIndex(states, name)
	if !ok {
		return -1, &dynamo.ConfigError{Field: label, Detail: fmt.Sprintf("observable %q", name), Wrapped: dynamo.ErrUnknownState}
	}
	return idx, nil
}

func compilePointInTime(states []dynamo.StateSpec, c Constraint) (func(tr *sim.Trajectory) (float64, bool), error) {
	idx, err := stateIndexOrErr(states, c.Observable, c.Label())
	if err != nil {
		return nil, err
	}
	if c.Time < 0 || math.IsNaN(c.Time) {
		return nil, &dynamo.ConfigError{Field: c.Label(), Detail: fmt.Sprintf("time %g", c.Time), Wrapped: dynamo.ErrMalformedBounds}
	}
	target := c.Target
	t := c.Time
	return func(tr *sim.Trajectory) (float64, bool) {
		return tr.At(t)[idx] - target, true
	}, nil
}

func compileAtEvent(states []dynamo.StateSpec, c Constraint) (func(tr *sim.Trajectory) (float64, bool), error) {
	if c.Event == "" {
		return nil, &dynamo.ConfigError{Field: c.Label(), Detail: "event kind is empty", Wrapped: dynamo.ErrUnknownState}
	}
	if c.Occurrence < 0 {
		return nil, &dynamo.ConfigError{Field: c.Label(), Detail: fmt.Sprintf("occurrence %d", c.Occurrence), Wrapped: dynamo.ErrMalformedBounds}
	}

	read, err := compileEventObservable(states, c)
	if err != nil {
		return nil, err
	}

	kind, occ, target := c.Event, c.Occurrence, c.Target
	return func(tr *sim.Trajectory) (float64, bool) {
		ev, ok := tr.Event(kind, occ)
		if !ok {
			return unmetPenalty * (1 + math.Abs(target)), false
		}
		return read(ev) - target, true
	}, nil
}

// compileEventObservable resolves the event observable forms:
// a plain state name reads the post-event state, "pre:<state>" the
// pre-event state, "restitution:<state>" the ratio -post/pre, and
// "time" the refined event time.
func compileEventObservable(states []dynamo.StateSpec, c Constraint) (func(ev sim.Event) float64, error) {
	obs := c.Observable
	switch {
	case obs == "time":
		return func(ev sim.Event) float64 { return ev.Time }, nil

	case strings.HasPrefix(obs, "pre:"):
		idx, err := stateIndexOrErr(states, strings.TrimPrefix(obs, "pre:"), c.Label())
		if err != nil {
			return nil, err
		}
		return func(ev sim.Event) float64 { return ev.Before[idx] }, nil

	case strings.HasPrefix(obs, "restitution:"):
		idx, err := stateIndexOrErr(states, strings.TrimPrefix(obs, "restitution:"), c.Label())
		if err != nil {
			return nil, err
		}
		return func(ev sim.Event) float64 {
			pre := ev.Before[idx]
			if pre == 0 {
				return 0
			}
			return -ev.After[idx] / pre
		}, nil

	default:
		idx, err := stateIndexOrErr(states, obs, c.Label())
		if err != nil {
			return nil, err
		}
		return func(ev sim.Event) float64 { return ev.After[idx] }, nil
	}
}

// compileSettling builds a smooth residual for "settled by time After":
// the RMS excess of |observable| over Epsilon across all samples at or
// past the deadline. The hinge keeps the residual sub-differentiable and
// nonzero whenever settling is violated, instead of a flat boolean.
func compileSettling(states []dynamo.StateSpec, c Constraint) (func(tr *sim.Trajectory) (float64, bool), error) {
	idx, err := stateIndexOrErr(states, c.Observable, c.Label())
	if err != nil {
		return nil, err
	}
	if c.Epsilon <= 0 || math.IsNaN(c.Epsilon) {
		return nil, &dynamo.ConfigError{Field: c.Label(), Detail: fmt.Sprintf("epsilon %g", c.Epsilon), Wrapped: dynamo.ErrMalformedBounds}
	}
	if c.After < 0 || math.IsNaN(c.After) {
		return nil, &dynamo.ConfigError{Field: c.Label(), Detail: fmt.Sprintf("after %g", c.After), Wrapped: dynamo.ErrMalformedBounds}
	}

	eps, after := c.Epsilon, c.After
	return func(tr *sim.Trajectory) (float64, bool) {
		var sum float64
		var n int
		for i, t := range tr.Times {
			if t < after {
				continue
			}
			excess := math.Abs(tr.States[i][idx]) - eps
			if excess > 0 {
				sum += excess * excess
			}
			n++
		}
		if n == 0 {
			// Deadline past the simulated horizon: nothing observed.
			return unmetPenalty, false
		}
		return math.Sqrt(sum / float64(n)), true
	}, nil
}
