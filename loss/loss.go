// Package loss scores a trajectory against compiled residuals, producing a
// single scalar total while retaining every per-constraint component for
// reporting. The total is the weighted sum of squared residuals; grouping
// is a display concern and never changes the total.
package loss

import (
	"github.com/bcolloran/system-solver/constraint"
	"github.com/bcolloran/system-solver/sim"
)

// Component is one scored constraint.
type Component struct {
	Name     string
	Group    string
	Weight   float64
	Residual float64
	Loss     float64
	Met      bool
}

// Breakdown holds the per-component scores and their total.
type Breakdown struct {
	Components []Component
	Total      float64
}

// Compose evaluates every residual against the trajectory. Components
// appear in declaration order regardless of grouping.
func Compose(residuals []constraint.Residual, tr *sim.Trajectory) Breakdown {
	b := Breakdown{Components: make([]Component, 0, len(residuals))}
	for _, r := range residuals {
		val, met := r.Eval(tr)
		l := r.Weight * val * val
		b.Components = append(b.Components, Component{
			Name:     r.Name,
			Group:    r.Group,
			Weight:   r.Weight,
			Residual: val,
			Loss:     l,
			Met:      met,
		})
		b.Total += l
	}
	return b
}

// Residuals returns the raw residual values in declaration order.
func (b Breakdown) Residuals() []float64 {
	out := make([]float64, len(b.Components))
	for i, c := range b.Components {
		out[i] = c.Residual
	}
	return out
}

// Groups returns the subtotal of each reporting group. Ungrouped
// components subtotal under the empty key.
func (b Breakdown) Groups() map[string]float64 {
	groups := make(map[string]float64)
	for _, c := range b.Components {
		groups[c.Group] += c.Loss
	}
	return groups
}

// Unmet lists the names of components whose constraints could not be
// evaluated as declared (e.g. an event that never occurred).
func (b Breakdown) Unmet() []string {
	var names []string
	for _, c := range b.Components {
		if !c.Met {
			names = append(names, c.Name)
		}
	}
	return names
}
