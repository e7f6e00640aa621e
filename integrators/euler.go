package integrators

import "github.com/bcolloran/system-solver/dynamo"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(m dynamo.Model, x dynamo.State, u dynamo.Input, p dynamo.Params, t, dt float64) dynamo.State {
	dx := m.Derivative(x, u, p, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
