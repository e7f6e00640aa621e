package optim

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/bcolloran/system-solver/dynamo"
)

// DefaultFDStep is the relative finite-difference step for Jacobian probes.
const DefaultFDStep = 1e-6

// Jacobian computes the matrix of partial derivatives of the weighted
// residual vector with respect to each parameter, by central finite
// differences. One goroutine runs per parameter; each probe simulation is
// independent and side-effect-free, and columns are written by index so
// assembly order never depends on scheduling.
//
// Probe points are clamped to the declared bounds: a central difference
// when both sides have room, a one-sided difference at a bound, and a
// shortened central difference when the bound interval is narrower than
// the nominal step. Probes never leave [Min, Max].
func Jacobian(ctx context.Context, pr *Problem, p dynamo.Params, rel float64) (*mat.Dense, []float64, error) {
	if rel <= 0 {
		rel = DefaultFDStep
	}

	base, err := pr.Eval(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	baseW := pr.weighted(base)

	m, n := len(base), pr.Dim()
	jac := mat.NewDense(m, n, nil)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for j := 0; j < n; j++ {
		wg.Add(1)
		go func(col int) {
			defer wg.Done()

			spec := pr.Specs[col]
			h := rel * math.Max(math.Abs(p[col]), 1)

			lo := math.Max(p[col]-h, spec.Min)
			hi := math.Min(p[col]+h, spec.Max)

			switch {
			case lo < p[col] && hi > p[col]:
				fwd, berr := probe(ctx, pr, p, col, hi)
				if berr != nil {
					errs[col] = berr
					return
				}
				bwd, berr := probe(ctx, pr, p, col, lo)
				if berr != nil {
					errs[col] = berr
					return
				}
				for i := 0; i < m; i++ {
					jac.Set(i, col, (fwd[i]-bwd[i])/(hi-lo))
				}
			case hi > p[col]:
				fwd, berr := probe(ctx, pr, p, col, hi)
				if berr != nil {
					errs[col] = berr
					return
				}
				for i := 0; i < m; i++ {
					jac.Set(i, col, (fwd[i]-baseW[i])/(hi-p[col]))
				}
			case lo < p[col]:
				bwd, berr := probe(ctx, pr, p, col, lo)
				if berr != nil {
					errs[col] = berr
					return
				}
				for i := 0; i < m; i++ {
					jac.Set(i, col, (baseW[i]-bwd[i])/(p[col]-lo))
				}
			}
		}(j)
	}
	wg.Wait()

	for _, e := range errs {
		if e != nil {
			return nil, nil, e
		}
	}
	return jac, baseW, nil
}

func probe(ctx context.Context, pr *Problem, p dynamo.Params, col int, val float64) ([]float64, error) {
	pp := p.Clone()
	pp[col] = val
	res, err := pr.Eval(ctx, pp)
	if err != nil {
		return nil, err
	}
	return pr.weighted(res), nil
}
