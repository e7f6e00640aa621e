package models

import (
	"sort"

	"github.com/bcolloran/system-solver/dynamo"
)

var builders = map[string]func() dynamo.Model{
	"bouncing_ball": func() dynamo.Model { return NewBouncingBall() },
	"spring_damper": func() dynamo.Model { return NewSpringDamper() },
	"planar_thrust": func() dynamo.Model { return NewPlanarThrust() },
}

// Get builds a fresh instance of a named model.
func Get(name string) (dynamo.Model, bool) {
	b, ok := builders[name]
	if !ok {
		return nil, false
	}
	return b(), true
}

// Names lists the registered model names, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
