package models

import "github.com/bcolloran/system-solver/dynamo"

// PlanarThrust is a point mass driven along one axis by a throttle-scaled
// thrust force against linear drag. Designers specify the asymptotic max
// speed and the time to reach 95% of it; the solver recovers the thrust
// and drag parameters behind them.
//
// With full throttle the closed forms are
//
//	v_max    = thrust / drag
//	t_95pct  = 3 * mass / drag
//
// which makes the model a convenient identifiability fixture: a lone
// max-speed constraint pins only the thrust/drag ratio.
type PlanarThrust struct {
	Mass float64
}

func NewPlanarThrust() *PlanarThrust {
	return &PlanarThrust{Mass: DefaultMass}
}

func (m *PlanarThrust) States() []dynamo.StateSpec {
	return []dynamo.StateSpec{
		{Name: "x", Unit: "m"},
		{Name: "vx", Unit: "m/s"},
	}
}

func (m *PlanarThrust) Params() []dynamo.ParamSpec {
	return []dynamo.ParamSpec{
		{Name: "thrust", Unit: "N", Default: 100, Min: 1e-2, Max: 1e4},
		{Name: "drag", Unit: "N*s/m", Default: 10, Min: 1e-3, Max: 1e3},
	}
}

func (m *PlanarThrust) Derivative(x dynamo.State, u dynamo.Input, p dynamo.Params, t float64) dynamo.State {
	throttle := 1.0
	if len(u) > 0 {
		throttle = u[0]
	}
	thrust, drag := p[0], p[1]
	vx := x[1]
	return dynamo.State{vx, (throttle*thrust - drag*vx) / m.Mass}
}
