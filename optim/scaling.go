package optim

import (
	"math"

	"github.com/bcolloran/system-solver/dynamo"
)

// Scaler maps parameters between the bounded model space and an
// unconstrained optimizer space through a log link centered on the prior:
// a model value near the prior sits near zero in optimizer space, and
// multiplicative changes in model space are additive steps in optimizer
// space. This keeps parameters spanning several orders of magnitude on a
// comparable footing for the scalar-loss polish.
type Scaler struct {
	specs  []dynamo.ParamSpec
	priors []float64
	lb     []float64
}

func NewScaler(specs []dynamo.ParamSpec, priors dynamo.Params) *Scaler {
	s := &Scaler{
		specs:  specs,
		priors: make([]float64, len(specs)),
		lb:     make([]float64, len(specs)),
	}
	for i, spec := range specs {
		prior := spec.Default
		if i < len(priors) {
			prior = priors[i]
		}
		lb := spec.Min
		if prior <= lb {
			prior = lb + 0.01*(spec.Max-spec.Min)
		}
		s.priors[i] = prior
		s.lb[i] = lb
	}
	return s
}

// ToOpt maps a model-space vector into optimizer space.
func (s *Scaler) ToOpt(p dynamo.Params) []float64 {
	out := make([]float64, len(s.specs))
	for i := range s.specs {
		v := math.Max(p[i], s.lb[i]+1e-12*(1+math.Abs(s.lb[i])))
		out[i] = math.Log((v - s.lb[i]) / (s.priors[i] - s.lb[i]))
	}
	return out
}

// ToModel maps an optimizer-space vector back, clamped to the declared
// bounds so candidates always stay feasible.
func (s *Scaler) ToModel(x []float64) dynamo.Params {
	out := make(dynamo.Params, len(s.specs))
	for i, spec := range s.specs {
		v := math.Exp(x[i])*(s.priors[i]-s.lb[i]) + s.lb[i]
		out[i] = math.Min(math.Max(v, spec.Min), spec.Max)
	}
	return out
}
