package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bcolloran/system-solver/constraint"
	"github.com/bcolloran/system-solver/dynamo"
	"github.com/bcolloran/system-solver/models"
	"github.com/bcolloran/system-solver/solver"
)

const (
	DefaultDt       = 0.001
	DefaultDuration = 10.0
	DefaultRestarts = 4
	DefaultSeed     = 1
)

// Scenario is the YAML shape of one solve request: a model, the motion the
// designer wants, and search settings.
type Scenario struct {
	Model     string    `yaml:"model"`
	InitState []float64 `yaml:"init_state"`

	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`

	Restarts   int   `yaml:"restarts"`
	Seed       int64 `yaml:"seed"`
	Workers    int   `yaml:"workers"`
	SkipPolish bool  `yaml:"skip_polish"`

	InitialGuess map[string]float64 `yaml:"initial_guess"`

	Constraints []constraint.Constraint `yaml:"constraints"`
}

func DefaultScenario() *Scenario {
	return &Scenario{
		Model:    "bouncing_ball",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Restarts: DefaultRestarts,
		Seed:     DefaultSeed,
	}
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := DefaultScenario()
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Problem resolves the scenario into a solve request against the model
// registry. A missing init_state defaults to the zero state.
func (sc *Scenario) Problem() (*solver.Problem, error) {
	model, ok := models.Get(sc.Model)
	if !ok {
		return nil, fmt.Errorf("unknown model: %s (available: %v)", sc.Model, models.Names())
	}

	initState := dynamo.State(sc.InitState)
	if initState == nil {
		initState = make(dynamo.State, len(model.States()))
	}

	opts := solver.DefaultOptions()
	if sc.Dt > 0 {
		opts.Sim.Dt = sc.Dt
	}
	if sc.Duration > 0 {
		opts.Sim.Duration = sc.Duration
	}
	if sc.Restarts > 0 {
		opts.Restarts = sc.Restarts
	}
	opts.Seed = sc.Seed
	opts.Workers = sc.Workers
	opts.SkipPolish = sc.SkipPolish
	opts.InitialGuess = sc.InitialGuess

	return &solver.Problem{
		Model:        model,
		InitialState: initState,
		Constraints:  sc.Constraints,
		Options:      opts,
	}, nil
}
