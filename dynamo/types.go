package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Input is the external input vector (e.g. throttle) sampled at time t.
type Input []float64

// Params is a candidate assignment of derived parameters, ordered as
// declared by the model schema.
type Params []float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	copy(c, p)
	return c
}

func (p Params) IsValid() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// InputFunc samples the external input schedule at time t. A nil InputFunc
// means the model receives a nil input vector.
type InputFunc func(t float64) Input

// Model is a parametric dynamics model. Derivative must be a pure function
// of its arguments: the same (x, u, p, t) always yields the same result.
type Model interface {
	Derivative(x State, u Input, p Params, t float64) State
	States() []StateSpec
	Params() []ParamSpec
}

// Integrator advances a model state by one fixed step.
type Integrator interface {
	Step(m Model, x State, u Input, p Params, t, dt float64) State
}

// Detector declares a discrete event through a continuous indicator.
// An event occurs when Indicator crosses zero from positive to negative;
// Apply maps the pre-event state to the post-event state (e.g. reflecting
// velocity through a restitution coefficient).
type Detector interface {
	Kind() string
	Indicator(x State, p Params, t float64) float64
	Apply(x State, p Params) State
}

// EventSource is implemented by models whose trajectories contain discrete
// events (collisions, contacts). The simulator tracks each declared
// detector independently.
type EventSource interface {
	Detectors() []Detector
}
