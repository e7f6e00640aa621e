package dynamo

import (
	"fmt"
	"math"
)

// StateSpec declares one named state variable.
type StateSpec struct {
	Name string
	Unit string
}

// ParamSpec declares one derived parameter: its unit, initial guess, and
// hard bounds. Default must lie within [Min, Max].
type ParamSpec struct {
	Name    string
	Unit    string
	Default float64
	Min     float64
	Max     float64
}

// Defaults returns the declared initial guess for every parameter.
func Defaults(specs []ParamSpec) Params {
	p := make(Params, len(specs))
	for i, s := range specs {
		p[i] = s.Default
	}
	return p
}

// Clamp projects p onto the declared bounds, returning a new vector.
func Clamp(specs []ParamSpec, p Params) Params {
	c := p.Clone()
	for i, s := range specs {
		if i >= len(c) {
			break
		}
		c[i] = math.Min(math.Max(c[i], s.Min), s.Max)
	}
	return c
}

// InBounds reports whether every component of p satisfies its declared bounds.
func InBounds(specs []ParamSpec, p Params) bool {
	for i, s := range specs {
		if i >= len(p) {
			return false
		}
		if p[i] < s.Min || p[i] > s.Max {
			return false
		}
	}
	return true
}

// ParamIndex returns the position of the named parameter in the schema.
func ParamIndex(specs []ParamSpec, name string) (int, bool) {
	for i, s := range specs {
		if s.Name == name {
			return i, true
		}
	}
	return -1, false
}

// StateIndex returns the position of the named state variable.
func StateIndex(specs []StateSpec, name string) (int, bool) {
	for i, s := range specs {
		if s.Name == name {
			return i, true
		}
	}
	return -1, false
}

// ParamNames returns schema names in declaration order.
func ParamNames(specs []ParamSpec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// NamedParams pairs a parameter vector with its schema names.
func NamedParams(specs []ParamSpec, p Params) map[string]float64 {
	m := make(map[string]float64, len(specs))
	for i, s := range specs {
		if i < len(p) {
			m[s.Name] = p[i]
		}
	}
	return m
}

// ValidateModel checks the declared schema: unique names, finite ordered
// bounds, defaults within bounds. Schema mistakes are configuration errors
// and abort the run before any simulation happens.
func ValidateModel(m Model) error {
	states := m.States()
	if len(states) == 0 {
		return &ConfigError{Field: "states", Detail: "model declares no state variables", Wrapped: ErrEmptySchema}
	}
	seen := make(map[string]bool, len(states))
	for _, s := range states {
		if s.Name == "" {
			return &ConfigError{Field: "states", Detail: "state variable with empty name", Wrapped: ErrEmptySchema}
		}
		if seen[s.Name] {
			return &ConfigError{Field: s.Name, Detail: "duplicate state variable name", Wrapped: ErrDuplicateName}
		}
		seen[s.Name] = true
	}

	params := m.Params()
	if len(params) == 0 {
		return &ConfigError{Field: "params", Detail: "model declares no derived parameters", Wrapped: ErrEmptySchema}
	}
	seen = make(map[string]bool, len(params))
	for _, p := range params {
		if p.Name == "" {
			return &ConfigError{Field: "params", Detail: "parameter with empty name", Wrapped: ErrEmptySchema}
		}
		if seen[p.Name] {
			return &ConfigError{Field: p.Name, Detail: "duplicate parameter name", Wrapped: ErrDuplicateName}
		}
		seen[p.Name] = true

		if math.IsNaN(p.Min) || math.IsNaN(p.Max) ||
			math.IsInf(p.Min, 0) || math.IsInf(p.Max, 0) || p.Min >= p.Max {
			return &ConfigError{
				Field:   p.Name,
				Detail:  fmt.Sprintf("bounds [%g, %g] are malformed", p.Min, p.Max),
				Wrapped: ErrMalformedBounds,
			}
		}
		if p.Default < p.Min || p.Default > p.Max || math.IsNaN(p.Default) {
			return &ConfigError{
				Field:   p.Name,
				Detail:  fmt.Sprintf("default %g outside bounds [%g, %g]", p.Default, p.Min, p.Max),
				Wrapped: ErrMalformedBounds,
			}
		}
	}
	return nil
}
