package models

import "github.com/bcolloran/system-solver/dynamo"

// SpringDamper is a damped harmonic oscillator with stiffness and damping
// as derived parameters. It is the canonical settling-behavior model: the
// solver tunes damping until the speed stays below a threshold past a
// target time.
type SpringDamper struct {
	Mass float64
}

func NewSpringDamper() *SpringDamper {
	return &SpringDamper{Mass: DefaultMass}
}

func (s *SpringDamper) States() []dynamo.StateSpec {
	return []dynamo.StateSpec{
		{Name: "x", Unit: "m"},
		{Name: "v", Unit: "m/s"},
	}
}

func (s *SpringDamper) Params() []dynamo.ParamSpec {
	return []dynamo.ParamSpec{
		{Name: "stiffness", Unit: "N/m", Default: 10, Min: 1e-3, Max: 1e4},
		{Name: "damping", Unit: "N*s/m", Default: 0.5, Min: 1e-4, Max: 100},
	}
}

func (s *SpringDamper) Derivative(x dynamo.State, u dynamo.Input, p dynamo.Params, t float64) dynamo.State {
	k, c := p[0], p[1]
	pos, vel := x[0], x[1]
	return dynamo.State{vel, (-k*pos - c*vel) / s.Mass}
}
