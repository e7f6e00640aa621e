package sim

import (
	"context"
	"math"
	"testing"

	"github.com/bcolloran/system-solver/dynamo"
	"github.com/bcolloran/system-solver/integrators"
	"github.com/bcolloran/system-solver/models"
)

func dropBall(t *testing.T, p dynamo.Params, duration float64) *Trajectory {
	t.Helper()
	s := New(models.NewBouncingBall(), integrators.NewRK4())
	cfg := DefaultConfig()
	cfg.Dt = 1e-4
	cfg.Duration = duration

	tr, err := s.Run(context.Background(), dynamo.State{1, 0}, p, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return tr
}

func TestBounceTimeMatchesAnalytic(t *testing.T) {
	// Free fall from h=1 under g=9.8 with no drag: impact at sqrt(2h/g).
	tr := dropBall(t, dynamo.Params{9.8, 0.8, 0}, 1.0)

	ev, ok := tr.Event("bounce", 0)
	if !ok {
		t.Fatal("no bounce detected")
	}

	want := math.Sqrt(2 * 1.0 / 9.8)
	if math.Abs(ev.Time-want) > 1e-6 {
		t.Errorf("bounce time %.8f, want %.8f", ev.Time, want)
	}
}

func TestBounceRestitutionRatio(t *testing.T) {
	tr := dropBall(t, dynamo.Params{9.8, 0.8, 0}, 1.0)

	ev, ok := tr.Event("bounce", 0)
	if !ok {
		t.Fatal("no bounce detected")
	}

	if ev.Before[1] >= 0 {
		t.Fatalf("impact velocity should be downward, got %g", ev.Before[1])
	}
	ratio := -ev.After[1] / ev.Before[1]
	if math.Abs(ratio-0.8) > 1e-9 {
		t.Errorf("restitution ratio %.6f, want 0.8", ratio)
	}

	wantImpact := -math.Sqrt(2 * 9.8)
	if math.Abs(ev.Before[1]-wantImpact) > 1e-4 {
		t.Errorf("impact velocity %.6f, want %.6f", ev.Before[1], wantImpact)
	}
}

func TestMultipleBounces(t *testing.T) {
	tr := dropBall(t, dynamo.Params{9.8, 0.5, 0}, 2.0)

	evs := tr.EventsOf("bounce")
	if len(evs) < 2 {
		t.Fatalf("expected at least 2 bounces, got %d", len(evs))
	}
	for i := 1; i < len(evs); i++ {
		if evs[i].Time <= evs[i-1].Time {
			t.Errorf("bounce %d at %.4f not after bounce %d at %.4f", i, evs[i].Time, i-1, evs[i-1].Time)
		}
		if evs[i].Index != i {
			t.Errorf("bounce %d has index %d", i, evs[i].Index)
		}
	}

	// Each rebound is slower than the previous impact.
	for _, ev := range evs {
		if math.Abs(ev.After[1]) >= math.Abs(ev.Before[1]) {
			t.Errorf("rebound speed %.4f not below impact speed %.4f", ev.After[1], ev.Before[1])
		}
	}
}

// rampModel descends at constant speed and marks two altitude crossings,
// so a coarse step can contain both events.
type rampModel struct{}

func (m *rampModel) States() []dynamo.StateSpec { return []dynamo.StateSpec{{Name: "x"}} }
func (m *rampModel) Params() []dynamo.ParamSpec {
	return []dynamo.ParamSpec{{Name: "speed", Default: 1, Min: 0.1, Max: 10}}
}
func (m *rampModel) Derivative(x dynamo.State, u dynamo.Input, p dynamo.Params, t float64) dynamo.State {
	return dynamo.State{-p[0]}
}
func (m *rampModel) Detectors() []dynamo.Detector {
	return []dynamo.Detector{
		&altitudeMark{kind: "half", level: 0.5},
		&altitudeMark{kind: "low", level: 0.4},
	}
}

type altitudeMark struct {
	kind  string
	level float64
}

func (a *altitudeMark) Kind() string { return a.kind }
func (a *altitudeMark) Indicator(x dynamo.State, p dynamo.Params, t float64) float64 {
	return x[0] - a.level
}
func (a *altitudeMark) Apply(x dynamo.State, p dynamo.Params) dynamo.State { return x.Clone() }

func TestTwoDetectorsWithinOneStep(t *testing.T) {
	s := New(&rampModel{}, integrators.NewEuler())
	cfg := DefaultConfig()
	cfg.Dt = 1.0
	cfg.Duration = 1.0

	tr, err := s.Run(context.Background(), dynamo.State{1}, dynamo.Params{1}, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// x(t) = 1 - t crosses 0.5 at t=0.5 and 0.4 at t=0.6, both inside the
	// single step; the continuation after the first event must still catch
	// the second detector.
	if len(tr.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(tr.Events))
	}
	half, ok := tr.Event("half", 0)
	if !ok {
		t.Fatal("half crossing not detected")
	}
	low, ok := tr.Event("low", 0)
	if !ok {
		t.Fatal("low crossing not detected")
	}
	if math.Abs(half.Time-0.5) > 1e-6 {
		t.Errorf("half crossing at %.8f, want 0.5", half.Time)
	}
	if math.Abs(low.Time-0.6) > 1e-6 {
		t.Errorf("low crossing at %.8f, want 0.6", low.Time)
	}
	if low.Time <= half.Time {
		t.Errorf("crossings out of order: %.6f before %.6f", low.Time, half.Time)
	}
}

func TestEventMissing(t *testing.T) {
	// Short horizon: the ball never reaches the ground.
	tr := dropBall(t, dynamo.Params{9.8, 0.8, 0}, 0.05)

	if _, ok := tr.Event("bounce", 0); ok {
		t.Error("unexpected bounce within 0.05s")
	}
	if _, ok := tr.Event("bounce", -1); ok {
		t.Error("negative occurrence should not resolve")
	}
}
