package optim

import (
	"context"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/bcolloran/system-solver/dynamo"
)

// Polish refines an estimate with L-BFGS on the scalar loss, run in
// log-scaled optimizer space so step sizes are comparable across
// parameters of different magnitudes. Gradients are finite-difference
// approximations supplied by the minimizer.
//
// Polish never returns an error: an optimizer failure is downgraded to a
// report keeping the input estimate, with the failure in Message, since a
// failed refinement still leaves a usable answer.
func Polish(ctx context.Context, pr *Problem, p dynamo.Params, cfg Config) *Report {
	scaler := NewScaler(pr.Specs, p)

	inLoss, err := pr.Loss(ctx, p)
	if err != nil {
		return &Report{Params: p.Clone(), Loss: math.Inf(1), Status: StatusFailed, Message: err.Error()}
	}

	objective := optimize.Problem{
		Func: func(x []float64) float64 {
			select {
			case <-ctx.Done():
				return math.Inf(1)
			default:
			}
			l, evalErr := pr.Loss(ctx, scaler.ToModel(x))
			if evalErr != nil {
				return math.Inf(1)
			}
			return l
		},
	}

	settings := &optimize.Settings{
		MajorIterations: cfg.MaxIterations,
		Runtime:         cfg.TimeBudget,
		Converger: &optimize.FunctionConverge{
			Relative:   cfg.RelTol,
			Iterations: cfg.StallIterations,
		},
	}

	result, err := optimize.Minimize(objective, scaler.ToOpt(p), settings, &optimize.LBFGS{})
	if err != nil || result == nil {
		msg := "lbfgs polish failed"
		if err != nil {
			msg = err.Error()
		}
		return &Report{Params: p.Clone(), Loss: inLoss, Status: StatusFailed, Message: msg}
	}

	polished := scaler.ToModel(result.X)
	outLoss, err := pr.Loss(ctx, polished)
	if err != nil || outLoss >= inLoss {
		// Keep the input estimate when the polish did not help.
		return &Report{Params: p.Clone(), Loss: inLoss, Status: StatusConverged}
	}

	return &Report{
		Params:     polished,
		Loss:       outLoss,
		Iterations: result.MajorIterations,
		Status:     StatusConverged,
	}
}
