package optim

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/bcolloran/system-solver/dynamo"
)

// ErrAllRestartsFailed is returned by MultiStart.Run when no restart
// produced a usable estimate.
var ErrAllRestartsFailed = errors.New("optim: every restart failed")

// MultiStart runs independent Levenberg-Marquardt minimizations from
// perturbed initial guesses to escape local minima. Restart k draws its
// start point from a rand source seeded with Seed+k, so the set of starts
// is fixed by configuration alone, and the best result is reduced in
// restart-index order regardless of which goroutine finishes first.
type MultiStart struct {
	Restarts int
	Seed     int64
	Workers  int
	LM       Config

	// OnProgress observes accepted iterations across restarts; it may be
	// called concurrently from restart goroutines.
	OnProgress func(restart, iter int, loss float64)
}

func NewMultiStart(restarts int, seed int64, lm Config) *MultiStart {
	if restarts < 1 {
		restarts = 1
	}
	return &MultiStart{Restarts: restarts, Seed: seed, LM: lm}
}

// StartPoints returns the initial guesses: p0 first, then seeded uniform
// draws within the declared bounds.
func (ms *MultiStart) StartPoints(specs []dynamo.ParamSpec, p0 dynamo.Params) []dynamo.Params {
	points := make([]dynamo.Params, ms.Restarts)
	points[0] = dynamo.Clamp(specs, p0)
	for k := 1; k < ms.Restarts; k++ {
		rng := rand.New(rand.NewSource(ms.Seed + int64(k)))
		p := make(dynamo.Params, len(specs))
		for i, spec := range specs {
			p[i] = spec.Min + rng.Float64()*(spec.Max-spec.Min)
		}
		points[k] = p
	}
	return points
}

// Run minimizes from every start point and returns the best report plus
// all per-restart reports in start order. When no restart produced a
// usable estimate the returned best is nil and the error is non-nil:
// the first evaluation error, or ErrAllRestartsFailed when every restart
// ended in StatusFailed without surfacing one.
func (ms *MultiStart) Run(ctx context.Context, pr *Problem, p0 dynamo.Params) (*Report, []*Report, error) {
	points := ms.StartPoints(pr.Specs, p0)

	workers := ms.Workers
	if workers <= 0 {
		workers = len(points)
	}
	sem := make(chan struct{}, workers)

	reports := make([]*Report, len(points))
	errs := make([]error, len(points))

	var wg sync.WaitGroup
	for k, start := range points {
		wg.Add(1)
		go func(idx int, p dynamo.Params) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cfg := ms.LM
			if ms.OnProgress != nil {
				cfg.OnIteration = func(iter int, l float64) {
					ms.OnProgress(idx, iter, l)
				}
			}
			lm := NewLevenbergMarquardt(cfg)
			reports[idx], errs[idx] = lm.Minimize(ctx, pr, p)
		}(k, start)
	}
	wg.Wait()

	// Fixed-order reduction: lowest loss wins, earliest restart breaks ties.
	var best *Report
	var firstErr error
	for k, rep := range reports {
		if errs[k] != nil {
			if firstErr == nil {
				firstErr = errs[k]
			}
			continue
		}
		if rep.Status == StatusFailed {
			continue
		}
		if best == nil || rep.Loss < best.Loss {
			best = rep
		}
	}
	if best == nil {
		if firstErr == nil {
			firstErr = ErrAllRestartsFailed
		}
		return nil, reports, firstErr
	}
	return best, reports, nil
}
