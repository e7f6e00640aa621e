// Package analysis diagnoses how well the given constraints pin down each
// derived parameter. At the solver's final point it takes the SVD of the
// residual Jacobian: singular values far below the largest mark directions
// in parameter space along which the loss is nearly flat, i.e. parameter
// combinations the constraints do not determine.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/bcolloran/system-solver/dynamo"
)

type Options struct {
	// RelThreshold flags singular values below RelThreshold * max(sv).
	RelThreshold float64
	// CoeffCutoff is the minimum |component| of a flagged direction for a
	// parameter to be named in it.
	CoeffCutoff float64
}

func DefaultOptions() Options {
	return Options{RelThreshold: 1e-3, CoeffCutoff: 0.3}
}

// Direction is a unit direction in parameter space along which the
// residuals are (nearly) insensitive. Params lists the parameters with a
// significant component, with their coefficients.
type Direction struct {
	SingularValue float64
	Vector        []float64
	Params        []string
	Coeffs        map[string]float64
}

// Describe renders the direction as a signed combination, e.g.
// "0.71*thrust - 0.71*drag".
func (d Direction) Describe() string {
	var parts []string
	for _, name := range d.Params {
		c := d.Coeffs[name]
		if len(parts) == 0 {
			parts = append(parts, fmt.Sprintf("%.2f*%s", c, name))
			continue
		}
		if c >= 0 {
			parts = append(parts, fmt.Sprintf("+ %.2f*%s", c, name))
		} else {
			parts = append(parts, fmt.Sprintf("- %.2f*%s", -c, name))
		}
	}
	return strings.Join(parts, " ")
}

// Report is the identifiability diagnostic attached to a solver result.
type Report struct {
	ParamNames      []string
	SingularValues  []float64
	ConditionNumber float64
	IllConditioned  bool
	// Weak holds the flagged near-null directions, weakest first.
	Weak []Direction
	// WeakParams lists every parameter appearing in a flagged direction.
	WeakParams []string
}

// Identifiable reports whether no direction was flagged.
func (r *Report) Identifiable() bool { return len(r.Weak) == 0 }

// Identifiability analyzes the residual Jacobian at the solution point.
// A full SVD is used so that with fewer residuals than parameters the
// exact null directions are reported too (their singular value is zero).
func Identifiability(jac *mat.Dense, specs []dynamo.ParamSpec, opts Options) (*Report, error) {
	if opts.RelThreshold <= 0 {
		opts.RelThreshold = DefaultOptions().RelThreshold
	}
	if opts.CoeffCutoff <= 0 {
		opts.CoeffCutoff = DefaultOptions().CoeffCutoff
	}

	m, n := jac.Dims()
	if n != len(specs) {
		return nil, &dynamo.ConfigError{
			Field:   "jacobian",
			Detail:  fmt.Sprintf("%d columns, %d parameters", n, len(specs)),
			Wrapped: dynamo.ErrDimensionMismatch,
		}
	}

	var svd mat.SVD
	if !svd.Factorize(jac, mat.SVDFullV) {
		return nil, fmt.Errorf("analysis: SVD of %dx%d jacobian failed", m, n)
	}

	sv := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)

	names := dynamo.ParamNames(specs)
	rep := &Report{ParamNames: names, SingularValues: sv}

	maxSV := 0.0
	for _, s := range sv {
		maxSV = math.Max(maxSV, s)
	}
	minSV := math.Inf(1)
	for _, s := range sv {
		minSV = math.Min(minSV, s)
	}
	if n > len(sv) {
		// Underdetermined: implicit zero singular values.
		minSV = 0
	}
	if minSV > 0 {
		rep.ConditionNumber = maxSV / minSV
	} else {
		rep.ConditionNumber = math.Inf(1)
	}
	rep.IllConditioned = math.IsInf(rep.ConditionNumber, 1) || rep.ConditionNumber > 1/opts.RelThreshold

	threshold := opts.RelThreshold * maxSV
	weakSet := make(map[string]bool)

	for col := 0; col < n; col++ {
		s := 0.0
		if col < len(sv) {
			s = sv[col]
		}
		if maxSV > 0 && s >= threshold {
			continue
		}

		dir := Direction{
			SingularValue: s,
			Vector:        make([]float64, n),
			Coeffs:        make(map[string]float64),
		}
		for i := 0; i < n; i++ {
			dir.Vector[i] = v.At(i, col)
		}
		for i, c := range dir.Vector {
			if math.Abs(c) >= opts.CoeffCutoff {
				dir.Params = append(dir.Params, names[i])
				dir.Coeffs[names[i]] = c
				weakSet[names[i]] = true
			}
		}
		rep.Weak = append(rep.Weak, dir)
	}

	sort.Slice(rep.Weak, func(i, j int) bool {
		return rep.Weak[i].SingularValue < rep.Weak[j].SingularValue
	})
	for name := range weakSet {
		rep.WeakParams = append(rep.WeakParams, name)
	}
	sort.Strings(rep.WeakParams)

	return rep, nil
}
