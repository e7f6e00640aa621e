// Package solver wires the full identification pipeline together: compile
// the declared constraints against the model schema, search derived-param
// space with multi-start Levenberg-Marquardt, polish the best estimate,
// and attach an identifiability diagnosis to the result.
//
// Each Solve call owns its model, constraints, and optimizer state, so
// repeated and concurrent invocations are independent and reproducible.
// Configuration mistakes return an error before any simulation runs;
// numerical trouble never aborts a solve, it lands in Result.Status and
// Result.Diagnostics.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/bcolloran/system-solver/analysis"
	"github.com/bcolloran/system-solver/constraint"
	"github.com/bcolloran/system-solver/dynamo"
	"github.com/bcolloran/system-solver/integrators"
	"github.com/bcolloran/system-solver/loss"
	"github.com/bcolloran/system-solver/optim"
	"github.com/bcolloran/system-solver/sim"
)

// Progress is one observed optimizer step, for live display.
type Progress struct {
	Restart   int
	Iteration int
	Loss      float64
}

type Options struct {
	Sim      sim.Config
	Optim    optim.Config
	Restarts int
	Seed     int64
	Workers  int
	// Polish disables the final L-BFGS refinement when set to false via
	// SkipPolish (the refinement is on by default).
	SkipPolish bool
	Identify   analysis.Options

	// NewIntegrator builds one integrator per simulation; integrators
	// carry scratch buffers and must not be shared across goroutines.
	// Defaults to RK4.
	NewIntegrator func() dynamo.Integrator

	// InitialGuess overrides schema defaults by parameter name.
	InitialGuess map[string]float64

	// OnProgress observes accepted optimizer iterations; may be called
	// concurrently from restart goroutines.
	OnProgress func(Progress)
}

func DefaultOptions() Options {
	return Options{
		Sim:      sim.DefaultConfig(),
		Optim:    optim.DefaultConfig(),
		Restarts: 4,
		Seed:     1,
		Identify: analysis.DefaultOptions(),
	}
}

// Problem is one complete solve request.
type Problem struct {
	Model        dynamo.Model
	InitialState dynamo.State
	Constraints  []constraint.Constraint
	Options      Options
}

// Solve runs the full pipeline. The returned error is non-nil only for
// configuration mistakes; see Result.Status for numerical outcomes.
func (prob *Problem) Solve(ctx context.Context) (*Result, error) {
	start := time.Now()

	if err := dynamo.ValidateModel(prob.Model); err != nil {
		return nil, err
	}
	specs := prob.Model.Params()

	if len(prob.InitialState) != len(prob.Model.States()) {
		return nil, &dynamo.ConfigError{
			Field:   "initial_state",
			Detail:  fmt.Sprintf("length %d, model declares %d", len(prob.InitialState), len(prob.Model.States())),
			Wrapped: dynamo.ErrDimensionMismatch,
		}
	}

	residuals, err := constraint.Compile(prob.Model, prob.Constraints)
	if err != nil {
		return nil, err
	}

	opts := prob.Options
	if opts.Restarts < 1 {
		opts.Restarts = 1
	}
	if opts.Sim.Dt <= 0 {
		opts.Sim = sim.DefaultConfig()
	}
	if opts.NewIntegrator == nil {
		opts.NewIntegrator = func() dynamo.Integrator { return integrators.NewRK4() }
	}

	guess, err := initialGuess(specs, opts.InitialGuess)
	if err != nil {
		return nil, err
	}

	weights := make([]float64, len(residuals))
	for i, r := range residuals {
		weights[i] = r.Weight
	}

	x0 := prob.InitialState.Clone()
	simCfg := opts.Sim

	optProb := &optim.Problem{
		Specs:   specs,
		Weights: weights,
		Eval: func(ctx context.Context, p dynamo.Params) ([]float64, error) {
			s := sim.New(prob.Model, opts.NewIntegrator())
			tr, runErr := s.Run(ctx, x0, p, simCfg)
			if runErr != nil {
				return nil, runErr
			}
			return loss.Compose(residuals, tr).Residuals(), nil
		},
	}

	// Probe the initial guess once: a model that cannot be simulated at
	// its own defaults is a configuration error, not a numerical one.
	if _, err := optProb.Eval(ctx, guess); err != nil {
		if cfgErr, ok := err.(*dynamo.ConfigError); ok {
			return nil, cfgErr
		}
		return nil, &dynamo.ConfigError{
			Field:   "model",
			Detail:  err.Error(),
			Wrapped: dynamo.ErrNonFiniteDerivative,
		}
	}

	ms := &optim.MultiStart{
		Restarts: opts.Restarts,
		Seed:     opts.Seed,
		Workers:  opts.Workers,
		LM:       opts.Optim,
	}
	if opts.OnProgress != nil {
		ms.OnProgress = func(restart, iter int, l float64) {
			opts.OnProgress(Progress{Restart: restart, Iteration: iter, Loss: l})
		}
	}

	best, restarts, err := ms.Run(ctx, optProb, guess)
	if best == nil {
		return nil, fmt.Errorf("solver: no restart produced a usable estimate: %w", err)
	}

	result := &Result{
		Status:   best.Status,
		Restarts: restarts,
		History:  best.History,
	}

	if !opts.SkipPolish {
		polished := optim.Polish(ctx, optProb, best.Params, opts.Optim)
		if polished.Status == optim.StatusFailed {
			result.addDiagnostic("polish: %s", polished.Message)
		} else if polished.Loss < best.Loss {
			best = &optim.Report{
				Params:     polished.Params,
				Loss:       polished.Loss,
				Iterations: best.Iterations + polished.Iterations,
				Status:     best.Status,
				History:    append(best.History, polished.Loss),
			}
			result.History = best.History
		}
	}

	result.Params = best.Params
	result.NamedParams = dynamo.NamedParams(specs, best.Params)
	result.Loss = best.Loss
	result.Iterations = best.Iterations
	result.Converged = best.Status == optim.StatusConverged

	if !result.Converged {
		result.addDiagnostic("optimizer did not converge: %s", best.Status)
	}

	// Score the final point for the per-component breakdown.
	s := sim.New(prob.Model, opts.NewIntegrator())
	if tr, runErr := s.Run(ctx, x0, best.Params, simCfg); runErr == nil {
		result.Breakdown = loss.Compose(residuals, tr)
		for _, name := range result.Breakdown.Unmet() {
			result.addDiagnostic("unmet event constraint: %s", name)
		}
	} else {
		result.addDiagnostic("final trajectory failed: %v", runErr)
	}

	// Identifiability at the solution.
	jac, _, jacErr := optim.Jacobian(ctx, optProb, best.Params, opts.Optim.FDStep)
	if jacErr != nil {
		result.addDiagnostic("identifiability: jacobian failed: %v", jacErr)
	} else if rep, idErr := analysis.Identifiability(jac, specs, opts.Identify); idErr != nil {
		result.addDiagnostic("identifiability: %v", idErr)
	} else {
		result.Identifiability = rep
		if rep.IllConditioned {
			result.addDiagnostic("ill-conditioned sensitivity (condition number %.3g)", rep.ConditionNumber)
		}
		for _, dir := range rep.Weak {
			result.addDiagnostic("poorly identified combination: %s", dir.Describe())
		}
	}

	result.Runtime = time.Since(start)
	return result, nil
}

func initialGuess(specs []dynamo.ParamSpec, overrides map[string]float64) (dynamo.Params, error) {
	guess := dynamo.Defaults(specs)
	for name, val := range overrides {
		idx, ok := dynamo.ParamIndex(specs, name)
		if !ok {
			return nil, &dynamo.ConfigError{Field: "initial_guess", Detail: name, Wrapped: dynamo.ErrUnknownParam}
		}
		guess[idx] = val
	}
	return dynamo.Clamp(specs, guess), nil
}
