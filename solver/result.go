package solver

import (
	"fmt"
	"time"

	"github.com/bcolloran/system-solver/analysis"
	"github.com/bcolloran/system-solver/dynamo"
	"github.com/bcolloran/system-solver/loss"
	"github.com/bcolloran/system-solver/optim"
)

// Result is the immutable outcome of one solve: the best derived-parameter
// estimate found, how it scores against every constraint, whether the
// search converged, and how trustworthy each parameter is. A Result is
// always best-effort: even a non-converged run carries the best estimate
// seen, with the trouble described in Diagnostics.
type Result struct {
	Params      dynamo.Params
	NamedParams map[string]float64
	Loss        float64

	Breakdown loss.Breakdown

	Status     optim.Status
	Converged  bool
	Iterations int
	Runtime    time.Duration

	// History is the loss after each accepted iteration of the winning
	// restart (plus the polish, when it improved the estimate).
	History []float64

	// Restarts holds the per-restart reports in start order.
	Restarts []*optim.Report

	Identifiability *analysis.Report

	// Diagnostics carries soft failures: non-convergence, unmet event
	// constraints, ill-conditioning, flagged parameter combinations.
	Diagnostics []string
}

func (r *Result) addDiagnostic(format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, fmt.Sprintf(format, args...))
}

// Param returns the solved value of a named parameter.
func (r *Result) Param(name string) (float64, bool) {
	v, ok := r.NamedParams[name]
	return v, ok
}
