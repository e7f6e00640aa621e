package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bcolloran/system-solver/constraint"
)

func TestDefaultScenario(t *testing.T) {
	sc := DefaultScenario()

	if sc.Model != "bouncing_ball" {
		t.Errorf("expected model bouncing_ball, got %s", sc.Model)
	}
	if sc.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if sc.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if sc.Restarts < 1 {
		t.Error("restarts should be at least 1")
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	sc := GetPreset("bouncing_ball", "rubber")
	if sc == nil {
		t.Fatal("missing preset")
	}

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := Save(path, sc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Model != sc.Model {
		t.Errorf("model %s, want %s", loaded.Model, sc.Model)
	}
	if len(loaded.Constraints) != len(sc.Constraints) {
		t.Fatalf("constraints %d, want %d", len(loaded.Constraints), len(sc.Constraints))
	}
	if loaded.Constraints[0].Kind != constraint.AtEvent {
		t.Errorf("kind %s, want %s", loaded.Constraints[0].Kind, constraint.AtEvent)
	}
	if loaded.Constraints[2].Target != 0.8 {
		t.Errorf("target %g, want 0.8", loaded.Constraints[2].Target)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	data := []byte("model: spring_damper\nconstraints:\n  - kind: settling\n    observable: v\n    epsilon: 0.05\n    after: 1.5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Dt != DefaultDt {
		t.Errorf("dt %g, want default %g", sc.Dt, DefaultDt)
	}
	if sc.Restarts != DefaultRestarts {
		t.Errorf("restarts %d, want default %d", sc.Restarts, DefaultRestarts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProblem(t *testing.T) {
	sc := GetPreset("planar_thrust", "top_speed")
	prob, err := sc.Problem()
	if err != nil {
		t.Fatalf("problem failed: %v", err)
	}
	if len(prob.InitialState) != 2 {
		t.Errorf("initial state length %d, want 2", len(prob.InitialState))
	}
	if prob.Options.Sim.Dt != sc.Dt {
		t.Errorf("dt %g, want %g", prob.Options.Sim.Dt, sc.Dt)
	}
	if len(prob.Constraints) != 2 {
		t.Errorf("constraints %d, want 2", len(prob.Constraints))
	}
}

func TestProblemUnknownModel(t *testing.T) {
	sc := DefaultScenario()
	sc.Model = "warp_drive"
	if _, err := sc.Problem(); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestProblemZeroInitState(t *testing.T) {
	sc := DefaultScenario()
	sc.InitState = nil
	sc.Constraints = []constraint.Constraint{
		{Kind: constraint.PointInTime, Observable: "y", Time: 1, Target: 0},
	}

	prob, err := sc.Problem()
	if err != nil {
		t.Fatalf("problem failed: %v", err)
	}
	if len(prob.InitialState) != 2 {
		t.Errorf("default initial state length %d, want model dimension 2", len(prob.InitialState))
	}
}

func TestPresets(t *testing.T) {
	if GetPreset("bouncing_ball", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "rubber") != nil {
		t.Error("expected nil for nonexistent model")
	}
	if len(ListPresets("bouncing_ball")) == 0 {
		t.Error("expected presets for bouncing_ball")
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent model")
	}

	// Every preset must resolve against the registry.
	for model, presets := range Presets {
		for name, sc := range presets {
			if _, err := sc.Problem(); err != nil {
				t.Errorf("preset %s/%s does not resolve: %v", model, name, err)
			}
		}
	}
}
