package optim

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/bcolloran/system-solver/dynamo"
)

// Status describes how a minimization run ended. Only StatusFailed means
// no usable estimate was produced; every other status carries a best-effort
// parameter vector.
type Status string

const (
	StatusConverged     Status = "converged"
	StatusMaxIterations Status = "max_iterations"
	StatusTimeBudget    Status = "time_budget"
	StatusCanceled      Status = "canceled"
	StatusFailed        Status = "failed"
)

type Config struct {
	MaxIterations   int
	TimeBudget      time.Duration
	RelTol          float64
	StallIterations int
	FDStep          float64
	InitLambda      float64

	// OnIteration, when set, observes each accepted iteration. It may be
	// called from whichever goroutine runs the minimization.
	OnIteration func(iter int, loss float64)
}

func DefaultConfig() Config {
	return Config{
		MaxIterations:   60,
		TimeBudget:      2 * time.Second,
		RelTol:          1e-8,
		StallIterations: 3,
		FDStep:          DefaultFDStep,
		InitLambda:      1e-3,
	}
}

// Report is the outcome of one minimization run.
type Report struct {
	Params     dynamo.Params
	Loss       float64
	Iterations int
	Status     Status
	Message    string
	History    []float64
}

func (r *Report) Converged() bool { return r.Status == StatusConverged }

// LevenbergMarquardt is a damped Gauss-Newton iteration over the weighted
// residual system, projecting every trial step onto the declared bounds.
// Each call to Minimize is independent; the struct holds configuration only.
type LevenbergMarquardt struct {
	cfg Config
}

func NewLevenbergMarquardt(cfg Config) *LevenbergMarquardt {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	if cfg.RelTol <= 0 {
		cfg.RelTol = DefaultConfig().RelTol
	}
	if cfg.StallIterations <= 0 {
		cfg.StallIterations = DefaultConfig().StallIterations
	}
	if cfg.InitLambda <= 0 {
		cfg.InitLambda = DefaultConfig().InitLambda
	}
	return &LevenbergMarquardt{cfg: cfg}
}

// Minimize runs the iteration from p0 (clamped to bounds). Numerical
// trouble is reported through Report.Status, not an error; the returned
// error is reserved for evaluation failures at the starting point.
func (lm *LevenbergMarquardt) Minimize(ctx context.Context, pr *Problem, p0 dynamo.Params) (*Report, error) {
	start := time.Now()
	p := dynamo.Clamp(pr.Specs, p0)

	jac, rw, err := Jacobian(ctx, pr, p, lm.cfg.FDStep)
	if err != nil {
		return nil, err
	}
	currLoss := sumSquares(rw)

	rep := &Report{
		Params:  p.Clone(),
		Loss:    currLoss,
		Status:  StatusMaxIterations,
		History: []float64{currLoss},
	}

	lambda := lm.cfg.InitLambda
	stall := 0

	for iter := 0; iter < lm.cfg.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			rep.Status = StatusCanceled
			rep.Message = ctx.Err().Error()
			return rep, nil
		default:
		}
		if lm.cfg.TimeBudget > 0 && time.Since(start) > lm.cfg.TimeBudget {
			rep.Status = StatusTimeBudget
			return rep, nil
		}

		improved := false
		for try := 0; try < 8; try++ {
			step, ok := solveDamped(jac, rw, lambda)
			if !ok {
				lambda *= 10
				continue
			}

			trial := p.Clone()
			for i := range trial {
				trial[i] += step[i]
			}
			trial = dynamo.Clamp(pr.Specs, trial)

			trialRes, evalErr := pr.Eval(ctx, trial)
			if evalErr != nil {
				lambda *= 10
				continue
			}
			trialLoss := pr.lossOf(trialRes)

			if trialLoss < currLoss {
				relImprove := (currLoss - trialLoss) / math.Max(currLoss, 1e-300)

				p = trial
				currLoss = trialLoss
				lambda = math.Max(lambda/3, 1e-12)
				improved = true

				if relImprove < lm.cfg.RelTol {
					stall++
				} else {
					stall = 0
				}
				break
			}
			lambda *= 4
		}

		rep.Iterations = iter + 1
		rep.History = append(rep.History, currLoss)
		rep.Params = p.Clone()
		rep.Loss = currLoss

		if lm.cfg.OnIteration != nil {
			lm.cfg.OnIteration(iter+1, currLoss)
		}

		if !improved {
			stall++
		}
		if stall >= lm.cfg.StallIterations || currLoss == 0 {
			rep.Status = StatusConverged
			return rep, nil
		}

		jac, rw, err = Jacobian(ctx, pr, p, lm.cfg.FDStep)
		if err != nil {
			rep.Status = StatusFailed
			rep.Message = err.Error()
			return rep, nil
		}
	}

	return rep, nil
}

// solveDamped solves (JᵀJ + λ·diag(JᵀJ)) δ = -Jᵀr for the LM step.
func solveDamped(jac *mat.Dense, rw []float64, lambda float64) ([]float64, bool) {
	_, n := jac.Dims()

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := jtj.At(i, j)
			if i == j {
				d := v
				if d == 0 {
					d = 1e-12
				}
				v += lambda * d
			}
			sym.SetSym(i, j, v)
		}
	}

	rVec := mat.NewVecDense(len(rw), append([]float64(nil), rw...))
	var g mat.VecDense
	g.MulVec(jac.T(), rVec)

	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return nil, false
	}
	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, &g); err != nil {
		return nil, false
	}

	step := make([]float64, n)
	for i := range step {
		step[i] = -delta.AtVec(i)
		if math.IsNaN(step[i]) || math.IsInf(step[i], 0) {
			return nil, false
		}
	}
	return step, true
}

func sumSquares(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return s
}
