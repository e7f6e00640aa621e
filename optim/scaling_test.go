package optim

import (
	"math"
	"testing"

	"github.com/bcolloran/system-solver/dynamo"
)

func TestScalerRoundTrip(t *testing.T) {
	specs := []dynamo.ParamSpec{
		{Name: "gravity", Default: 9.8, Min: 0.1, Max: 100},
		{Name: "drag", Default: 1, Min: 0, Max: 10},
	}
	s := NewScaler(specs, dynamo.Params{9.8, 1})

	tests := []dynamo.Params{
		{9.8, 1},
		{0.5, 0.001},
		{50, 9},
	}
	for _, p := range tests {
		got := s.ToModel(s.ToOpt(p))
		for i := range p {
			if math.Abs(got[i]-p[i]) > 1e-9*math.Max(1, math.Abs(p[i])) {
				t.Errorf("round trip of %v: param %d came back %.10f", p, i, got[i])
			}
		}
	}
}

func TestScalerPriorMapsToZero(t *testing.T) {
	specs := []dynamo.ParamSpec{{Name: "k", Default: 10, Min: 1e-3, Max: 1e4}}
	s := NewScaler(specs, dynamo.Params{10})

	x := s.ToOpt(dynamo.Params{10})
	if math.Abs(x[0]) > 1e-12 {
		t.Errorf("prior should map to 0, got %.6e", x[0])
	}
}

func TestScalerMultiplicativeStepsAreAdditive(t *testing.T) {
	specs := []dynamo.ParamSpec{{Name: "k", Default: 1, Min: 0, Max: 1e6}}
	s := NewScaler(specs, dynamo.Params{1})

	x1 := s.ToOpt(dynamo.Params{10})[0]
	x2 := s.ToOpt(dynamo.Params{100})[0]
	if math.Abs((x2-x1)-x1) > 1e-9 {
		t.Errorf("decade steps should be equal: %.6f vs %.6f", x1, x2-x1)
	}
}

func TestScalerClampsToBounds(t *testing.T) {
	specs := []dynamo.ParamSpec{{Name: "e", Default: 0.5, Min: 0.01, Max: 1}}
	s := NewScaler(specs, dynamo.Params{0.5})

	hi := s.ToModel([]float64{50})
	if hi[0] != 1 {
		t.Errorf("large optimizer value should clamp to max, got %.6f", hi[0])
	}
	lo := s.ToModel([]float64{-50})
	if lo[0] < 0.01 {
		t.Errorf("large negative value should clamp to min, got %.6f", lo[0])
	}
}

func TestScalerPriorAtLowerBound(t *testing.T) {
	// A prior sitting on the lower bound would collapse the log link;
	// the scaler nudges it inward instead.
	specs := []dynamo.ParamSpec{{Name: "drag", Default: 0, Min: 0, Max: 10}}
	s := NewScaler(specs, dynamo.Params{0})

	x := s.ToOpt(dynamo.Params{1})
	if math.IsInf(x[0], 0) || math.IsNaN(x[0]) {
		t.Fatalf("non-finite optimizer value %v", x[0])
	}
	back := s.ToModel(x)
	if math.Abs(back[0]-1) > 1e-9 {
		t.Errorf("round trip through nudged prior gave %.8f, want 1", back[0])
	}
}
