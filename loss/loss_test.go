package loss

import (
	"math"
	"testing"

	"github.com/bcolloran/system-solver/constraint"
	"github.com/bcolloran/system-solver/sim"
)

func constResidual(name, group string, weight, value float64) constraint.Residual {
	return constraint.Residual{
		Name:   name,
		Group:  group,
		Weight: weight,
		Eval:   func(tr *sim.Trajectory) (float64, bool) { return value, true },
	}
}

func TestTotalIsWeightedSumOfSquares(t *testing.T) {
	residuals := []constraint.Residual{
		constResidual("a", "", 1, 2),
		constResidual("b", "", 3, -1),
		constResidual("c", "", 0.5, 4),
	}

	b := Compose(residuals, &sim.Trajectory{})

	want := 1*4.0 + 3*1.0 + 0.5*16.0
	if math.Abs(b.Total-want) > 1e-12 {
		t.Errorf("total %.6f, want %.6f", b.Total, want)
	}
	if len(b.Components) != 3 {
		t.Fatalf("expected 3 components, got %d", len(b.Components))
	}
	if b.Components[1].Loss != 3 {
		t.Errorf("component b loss %.4f, want 3", b.Components[1].Loss)
	}
}

func TestTotalNonNegativeAndZeroIffAllZero(t *testing.T) {
	zero := Compose([]constraint.Residual{
		constResidual("a", "", 2, 0),
		constResidual("b", "", 5, 0),
	}, &sim.Trajectory{})
	if zero.Total != 0 {
		t.Errorf("all-zero residuals should give total 0, got %g", zero.Total)
	}

	nonzero := Compose([]constraint.Residual{
		constResidual("a", "", 2, 0),
		constResidual("b", "", 5, 1e-8),
	}, &sim.Trajectory{})
	if nonzero.Total <= 0 {
		t.Errorf("nonzero residual should give positive total, got %g", nonzero.Total)
	}
}

func TestGroupingNeverChangesTotal(t *testing.T) {
	flat := []constraint.Residual{
		constResidual("a", "", 1, 1),
		constResidual("b", "", 2, 2),
		constResidual("c", "", 3, 3),
	}
	grouped := []constraint.Residual{
		constResidual("a", "jump", 1, 1),
		constResidual("b", "jump", 2, 2),
		constResidual("c", "landing", 3, 3),
	}

	bf := Compose(flat, &sim.Trajectory{})
	bg := Compose(grouped, &sim.Trajectory{})

	if bf.Total != bg.Total {
		t.Errorf("grouping changed total: %.6f vs %.6f", bf.Total, bg.Total)
	}

	groups := bg.Groups()
	if math.Abs(groups["jump"]+groups["landing"]-bg.Total) > 1e-12 {
		t.Errorf("group subtotals %.6f + %.6f do not sum to total %.6f",
			groups["jump"], groups["landing"], bg.Total)
	}
}

func TestUnmet(t *testing.T) {
	residuals := []constraint.Residual{
		constResidual("ok", "", 1, 0),
		{
			Name:   "missing-event",
			Weight: 1,
			Eval:   func(tr *sim.Trajectory) (float64, bool) { return 1000, false },
		},
	}

	b := Compose(residuals, &sim.Trajectory{})
	unmet := b.Unmet()
	if len(unmet) != 1 || unmet[0] != "missing-event" {
		t.Errorf("unexpected unmet list: %v", unmet)
	}
}

func TestResidualsOrder(t *testing.T) {
	residuals := []constraint.Residual{
		constResidual("a", "", 1, 1),
		constResidual("b", "", 1, 2),
		constResidual("c", "", 1, 3),
	}
	got := Compose(residuals, &sim.Trajectory{}).Residuals()
	for i, want := range []float64{1, 2, 3} {
		if got[i] != want {
			t.Errorf("residual %d = %g, want %g", i, got[i], want)
		}
	}
}
