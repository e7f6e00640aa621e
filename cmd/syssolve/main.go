package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/bcolloran/system-solver/dynamo"
	"github.com/bcolloran/system-solver/integrators"
	"github.com/bcolloran/system-solver/internal/config"
	"github.com/bcolloran/system-solver/internal/report"
	"github.com/bcolloran/system-solver/internal/tui"
	"github.com/bcolloran/system-solver/models"
	"github.com/bcolloran/system-solver/sim"
	"github.com/bcolloran/system-solver/solver"
)

var (
	configFile string
	preset     string
	dt         float64
	duration   float64
	restarts   int
	seed       int64
	workers    int
	noPolish   bool
	live       bool
	plot       bool
	guesses    []string
	params     []string
	initState  []float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "syssolve",
		Short: "identify low-level simulation parameters from designer constraints",
	}

	solveCmd := &cobra.Command{
		Use:   "solve [model]",
		Short: "solve a scenario for its derived parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSolve,
	}
	solveCmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "use a preset scenario")
	solveCmd.Flags().Float64Var(&dt, "dt", 0, "timestep override")
	solveCmd.Flags().Float64Var(&duration, "time", 0, "horizon override")
	solveCmd.Flags().IntVar(&restarts, "restarts", 0, "restart count override")
	solveCmd.Flags().Int64Var(&seed, "seed", 0, "restart seed override")
	solveCmd.Flags().IntVar(&workers, "workers", 0, "parallel restart limit")
	solveCmd.Flags().BoolVar(&noPolish, "no-polish", false, "skip the final refinement")
	solveCmd.Flags().BoolVar(&live, "live", false, "show live optimizer progress")
	solveCmd.Flags().BoolVar(&plot, "plot", false, "plot loss history after solving")
	solveCmd.Flags().StringSliceVar(&guesses, "guess", nil, "initial guess override, name=value")

	simulateCmd := &cobra.Command{
		Use:   "simulate [model]",
		Short: "simulate a model at given parameter values",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Float64Var(&dt, "dt", 0.001, "timestep")
	simulateCmd.Flags().Float64Var(&duration, "time", 10.0, "duration")
	simulateCmd.Flags().StringSliceVar(&params, "param", nil, "parameter override, name=value")
	simulateCmd.Flags().Float64SliceVar(&initState, "state", nil, "initial state")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list preset scenarios for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range names {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a starter scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := config.GetPreset("bouncing_ball", "rubber")
			if err := config.Save(args[0], sc); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list registered models and their schemas",
		RunE:  listModels,
	}

	rootCmd.AddCommand(solveCmd, simulateCmd, presetsCmd, initCmd, modelsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadScenario(args []string) (*config.Scenario, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	if len(args) == 1 && preset != "" {
		sc := config.GetPreset(args[0], preset)
		if sc == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(args[0]))
		}
		return sc, nil
	}
	return nil, fmt.Errorf("need --config, or a model argument with --preset")
}

func runSolve(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(args)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("dt") {
		sc.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		sc.Duration = duration
	}
	if cmd.Flags().Changed("restarts") {
		sc.Restarts = restarts
	}
	if cmd.Flags().Changed("seed") {
		sc.Seed = seed
	}
	if cmd.Flags().Changed("workers") {
		sc.Workers = workers
	}
	if noPolish {
		sc.SkipPolish = true
	}
	if len(guesses) > 0 {
		overrides, err := parseAssignments(guesses)
		if err != nil {
			return err
		}
		if sc.InitialGuess == nil {
			sc.InitialGuess = map[string]float64{}
		}
		for name, val := range overrides {
			sc.InitialGuess[name] = val
		}
	}

	prob, err := sc.Problem()
	if err != nil {
		return err
	}

	var res *solver.Result
	if live {
		res, err = tui.RunSolve(context.Background(), prob, sc.Model)
	} else {
		res, err = prob.Solve(context.Background())
	}
	if err != nil {
		return err
	}

	fmt.Println(report.Render(res))

	if plot {
		if graph := report.PlotHistory(res.History); graph != "" {
			fmt.Println(graph)
		}
	}
	return nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	model, ok := models.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown model: %s (available: %v)", args[0], models.Names())
	}

	specs := model.Params()
	p := dynamo.Defaults(specs)
	if len(params) > 0 {
		overrides, err := parseAssignments(params)
		if err != nil {
			return err
		}
		for name, val := range overrides {
			idx, ok := dynamo.ParamIndex(specs, name)
			if !ok {
				return fmt.Errorf("unknown parameter: %s", name)
			}
			p[idx] = val
		}
	}

	x0 := dynamo.State(initState)
	if x0 == nil {
		x0 = make(dynamo.State, len(model.States()))
	}

	cfg := sim.DefaultConfig()
	cfg.Dt = dt
	cfg.Duration = duration

	s := sim.New(model, integrators.NewRK4())
	tr, err := s.Run(context.Background(), x0, p, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("model: %s\n", args[0])
	fmt.Printf("samples: %d\n\n", len(tr.Times))

	for i, spec := range model.States() {
		data := make([]float64, len(tr.States))
		for j := range tr.States {
			data[j] = tr.States[j][i]
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s vs time", spec.Name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if len(tr.Events) > 0 {
		fmt.Println("events:")
		for _, ev := range tr.Events {
			fmt.Printf("  %s[%d] at t=%.6f\n", ev.Kind, ev.Index, ev.Time)
		}
	}
	return nil
}

func listModels(cmd *cobra.Command, args []string) error {
	for _, name := range models.Names() {
		model, _ := models.Get(name)
		fmt.Println(name)
		for _, s := range model.States() {
			fmt.Printf("  state %s", s.Name)
			if s.Unit != "" {
				fmt.Printf(" [%s]", s.Unit)
			}
			fmt.Println()
		}
		for _, p := range model.Params() {
			fmt.Printf("  param %s default=%g bounds=[%g, %g]\n", p.Name, p.Default, p.Min, p.Max)
		}
		fmt.Println()
	}
	return nil
}

func parseAssignments(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("expected name=value, got %q", pair)
		}
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value in %q: %w", pair, err)
		}
		out[name] = val
	}
	return out, nil
}
