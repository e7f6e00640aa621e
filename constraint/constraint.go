// Package constraint declares designer-facing constraints on simulated
// motion and compiles them into residual functions over trajectories.
//
// Constraints come in three closed variants:
//
//   - [PointInTime]: a state component at time t equals a target value
//   - [AtEvent]: an observable of the Nth event of a kind equals a target
//   - [Settling]: a state component stays within a threshold past a deadline
//
// Compilation validates every reference against the model schema and fails
// fast on unknown names or malformed weights; evaluation of a compiled
// residual never fails the run, it degrades to a penalty plus a diagnostic
// flag (e.g. when fewer events occurred than the constraint expects).
package constraint

import "fmt"

type Kind string

const (
	PointInTime Kind = "point_in_time"
	AtEvent     Kind = "at_event"
	Settling    Kind = "settling"
)

// Constraint is one declared "given param": a target on a trajectory
// observable. Weight scales the squared residual in the total loss; zero
// means the default weight of 1. Group is a reporting label only and never
// affects the total.
type Constraint struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`

	// Observable names a state variable. Event constraints additionally
	// accept "time", "pre:<state>" and "restitution:<state>".
	Observable string `yaml:"observable"`

	Target    float64 `yaml:"target"`
	Weight    float64 `yaml:"weight"`
	Tolerance float64 `yaml:"tolerance"`
	Group     string  `yaml:"group"`

	// PointInTime.
	Time float64 `yaml:"time"`

	// AtEvent: the Nth (0-based) event of the named kind.
	Event      string `yaml:"event"`
	Occurrence int    `yaml:"occurrence"`

	// Settling: |observable| must stay at or below Epsilon for all
	// times from After to the end of the horizon.
	Epsilon float64 `yaml:"epsilon"`
	After   float64 `yaml:"after"`
}

// Label returns the declared name, or a generated one describing the
// constraint.
func (c Constraint) Label() string {
	if c.Name != "" {
		return c.Name
	}
	switch c.Kind {
	case PointInTime:
		return fmt.Sprintf("%s@t=%g", c.Observable, c.Time)
	case AtEvent:
		return fmt.Sprintf("%s@%s[%d]", c.Observable, c.Event, c.Occurrence)
	case Settling:
		return fmt.Sprintf("settle(%s)<=%g@t=%g", c.Observable, c.Epsilon, c.After)
	}
	return string(c.Kind)
}
