package config

import (
	"math"

	"github.com/bcolloran/system-solver/constraint"
)

var Presets = map[string]map[string]*Scenario{
	"bouncing_ball": {
		"rubber": {
			Model: "bouncing_ball", Dt: 0.0001, Duration: 1.5,
			InitState: []float64{1, 0},
			Restarts:  DefaultRestarts, Seed: DefaultSeed,
			Constraints: []constraint.Constraint{
				{Kind: constraint.AtEvent, Event: "bounce", Occurrence: 0, Observable: "time", Target: math.Sqrt(2 / 9.8)},
				{Kind: constraint.AtEvent, Event: "bounce", Occurrence: 0, Observable: "pre:vy", Target: -math.Sqrt(2 * 9.8)},
				{Kind: constraint.AtEvent, Event: "bounce", Occurrence: 0, Observable: "restitution:vy", Target: 0.8},
			},
		},
		"dead": {
			Model: "bouncing_ball", Dt: 0.0001, Duration: 1.5,
			InitState: []float64{1, 0},
			Restarts:  DefaultRestarts, Seed: DefaultSeed,
			Constraints: []constraint.Constraint{
				{Kind: constraint.AtEvent, Event: "bounce", Occurrence: 0, Observable: "time", Target: math.Sqrt(2 / 9.8)},
				{Kind: constraint.AtEvent, Event: "bounce", Occurrence: 0, Observable: "restitution:vy", Target: 0.1},
			},
		},
	},
	"spring_damper": {
		"settle": {
			Model: "spring_damper", Dt: 0.001, Duration: 4,
			InitState: []float64{1, 0},
			Restarts:  DefaultRestarts, Seed: DefaultSeed,
			Constraints: []constraint.Constraint{
				{Kind: constraint.Settling, Observable: "v", Epsilon: 0.05, After: 1.5},
			},
		},
	},
	"planar_thrust": {
		"top_speed": {
			Model: "planar_thrust", Dt: 0.001, Duration: 2.5,
			InitState: []float64{0, 0},
			Restarts:  DefaultRestarts, Seed: DefaultSeed,
			Constraints: []constraint.Constraint{
				{Kind: constraint.PointInTime, Observable: "vx", Time: 0.5, Target: 20 * (1 - math.Exp(-1))},
				{Kind: constraint.PointInTime, Observable: "vx", Time: 2.0, Target: 20 * (1 - math.Exp(-4))},
			},
		},
	},
}

func GetPreset(model, preset string) *Scenario {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	sc, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return sc
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
