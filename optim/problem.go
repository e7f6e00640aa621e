// Package optim searches derived-parameter space to minimize the weighted
// squared-residual loss, subject to the declared bounds. The primary method
// is a damped Gauss-Newton (Levenberg-Marquardt) iteration with a
// finite-difference Jacobian, wrapped in deterministic multi-start restarts
// and finished with an L-BFGS polish of the scalar loss.
package optim

import (
	"context"
	"math"

	"github.com/bcolloran/system-solver/dynamo"
)

// Problem is the residual system handed to the optimizer: the parameter
// schema (bounds and initial guesses), the residual weights, and the
// evaluation function running a simulation and scoring the constraints.
// Eval must be safe for concurrent calls.
type Problem struct {
	Specs   []dynamo.ParamSpec
	Weights []float64
	Eval    func(ctx context.Context, p dynamo.Params) ([]float64, error)
}

func (pr *Problem) Dim() int { return len(pr.Specs) }

// Loss is the weighted sum of squared residuals at p.
func (pr *Problem) Loss(ctx context.Context, p dynamo.Params) (float64, error) {
	res, err := pr.Eval(ctx, p)
	if err != nil {
		return math.Inf(1), err
	}
	return pr.lossOf(res), nil
}

func (pr *Problem) lossOf(res []float64) float64 {
	total := 0.0
	for i, r := range res {
		w := 1.0
		if i < len(pr.Weights) {
			w = pr.Weights[i]
		}
		total += w * r * r
	}
	return total
}

// weighted scales each residual by sqrt(w) so that the plain L2 norm of
// the scaled vector equals the weighted loss.
func (pr *Problem) weighted(res []float64) []float64 {
	out := make([]float64, len(res))
	for i, r := range res {
		w := 1.0
		if i < len(pr.Weights) {
			w = pr.Weights[i]
		}
		out[i] = math.Sqrt(w) * r
	}
	return out
}
