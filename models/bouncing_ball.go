// Package models provides built-in demo models used by the test suite and
// the syssolve CLI. Each model declares its full schema so constraints can
// be validated against it.
package models

import (
	"github.com/bcolloran/system-solver/dynamo"
)

const DefaultMass = 1.0

// BouncingBall is a point mass falling under gravity with linear drag,
// bouncing on the ground plane with a restitution coefficient. The bounce
// is a discrete event located by root finding on the height indicator.
type BouncingBall struct {
	Mass float64
}

func NewBouncingBall() *BouncingBall {
	return &BouncingBall{Mass: DefaultMass}
}

func (b *BouncingBall) States() []dynamo.StateSpec {
	return []dynamo.StateSpec{
		{Name: "y", Unit: "m"},
		{Name: "vy", Unit: "m/s"},
	}
}

func (b *BouncingBall) Params() []dynamo.ParamSpec {
	return []dynamo.ParamSpec{
		{Name: "gravity", Unit: "m/s^2", Default: 9.8, Min: 0.1, Max: 100},
		{Name: "restitution", Unit: "", Default: 0.5, Min: 0.01, Max: 1},
		{Name: "drag", Unit: "1/s", Default: 0, Min: 0, Max: 10},
	}
}

func (b *BouncingBall) Derivative(x dynamo.State, u dynamo.Input, p dynamo.Params, t float64) dynamo.State {
	g, drag := p[0], p[2]
	vy := x[1]
	return dynamo.State{vy, -g - drag*vy/b.Mass}
}

func (b *BouncingBall) Detectors() []dynamo.Detector {
	return []dynamo.Detector{&bounceDetector{}}
}

// bounceDetector fires when the ball's height crosses zero from above while
// moving downward; the impulse map reflects vertical velocity through the
// restitution coefficient.
type bounceDetector struct{}

func (d *bounceDetector) Kind() string { return "bounce" }

func (d *bounceDetector) Indicator(x dynamo.State, p dynamo.Params, t float64) float64 {
	return x[0]
}

func (d *bounceDetector) Apply(x dynamo.State, p dynamo.Params) dynamo.State {
	e := p[1]
	return dynamo.State{0, -e * x[1]}
}
