package dynamo

import (
	"errors"
	"math"
	"testing"
)

type fakeModel struct {
	states []StateSpec
	params []ParamSpec
}

func (m *fakeModel) States() []StateSpec { return m.states }
func (m *fakeModel) Params() []ParamSpec { return m.params }
func (m *fakeModel) Derivative(x State, u Input, p Params, t float64) State {
	return State{0}
}

func validModel() *fakeModel {
	return &fakeModel{
		states: []StateSpec{{Name: "y", Unit: "m"}, {Name: "vy", Unit: "m/s"}},
		params: []ParamSpec{
			{Name: "gravity", Default: 9.8, Min: 0.1, Max: 100},
			{Name: "restitution", Default: 0.5, Min: 0, Max: 1},
		},
	}
}

func TestValidateModel(t *testing.T) {
	if err := ValidateModel(validModel()); err != nil {
		t.Fatalf("valid model rejected: %v", err)
	}
}

func TestValidateModelErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *fakeModel)
		want   error
	}{
		{"no states", func(m *fakeModel) { m.states = nil }, ErrEmptySchema},
		{"no params", func(m *fakeModel) { m.params = nil }, ErrEmptySchema},
		{"duplicate state", func(m *fakeModel) { m.states[1].Name = "y" }, ErrDuplicateName},
		{"duplicate param", func(m *fakeModel) { m.params[1].Name = "gravity" }, ErrDuplicateName},
		{"inverted bounds", func(m *fakeModel) { m.params[0].Min = 200 }, ErrMalformedBounds},
		{"infinite lower bound", func(m *fakeModel) { m.params[0].Min = math.Inf(-1) }, ErrMalformedBounds},
		{"infinite upper bound", func(m *fakeModel) { m.params[0].Max = math.Inf(1) }, ErrMalformedBounds},
		{
			"unbounded both sides",
			func(m *fakeModel) { m.params[0].Min, m.params[0].Max = math.Inf(-1), math.Inf(1) },
			ErrMalformedBounds,
		},
		{"default outside bounds", func(m *fakeModel) { m.params[0].Default = 1000 }, ErrMalformedBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModel()
			tt.mutate(m)
			err := ValidateModel(m)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClampAndInBounds(t *testing.T) {
	specs := validModel().params

	p := Clamp(specs, Params{1000, -5})
	if p[0] != 100 || p[1] != 0 {
		t.Errorf("clamp failed: %v", p)
	}
	if !InBounds(specs, p) {
		t.Error("clamped vector should be in bounds")
	}
	if InBounds(specs, Params{1000, 0.5}) {
		t.Error("out-of-bounds vector reported in bounds")
	}
}

func TestNamedParams(t *testing.T) {
	specs := validModel().params
	m := NamedParams(specs, Params{9.8, 0.8})
	if m["gravity"] != 9.8 || m["restitution"] != 0.8 {
		t.Errorf("unexpected map: %v", m)
	}

	idx, ok := ParamIndex(specs, "restitution")
	if !ok || idx != 1 {
		t.Errorf("ParamIndex restitution = %d, %v", idx, ok)
	}
	if _, ok := ParamIndex(specs, "nope"); ok {
		t.Error("unknown param found")
	}
}

func TestDefaults(t *testing.T) {
	specs := validModel().params
	d := Defaults(specs)
	if d[0] != 9.8 || d[1] != 0.5 {
		t.Errorf("unexpected defaults: %v", d)
	}
}
