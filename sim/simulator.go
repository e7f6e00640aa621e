// Package sim integrates a parametric model forward in time, producing a
// Trajectory with discrete events located by root finding on each detector's
// continuous indicator. Runs are deterministic: identical inputs yield
// identical trajectories.
package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/bcolloran/system-solver/dynamo"
)

type Config struct {
	Dt            float64
	Duration      float64
	EventTimeTol  float64
	MaxEvents     int
	ValidateState bool
	Input         dynamo.InputFunc
}

func DefaultConfig() Config {
	return Config{
		Dt:            1e-3,
		Duration:      10.0,
		EventTimeTol:  1e-9,
		MaxEvents:     256,
		ValidateState: true,
	}
}

// Simulator runs one model with one integrator. Not safe for concurrent
// use; parallel probes must each construct their own Simulator.
type Simulator struct {
	model     dynamo.Model
	integ     dynamo.Integrator
	detectors []dynamo.Detector
}

func New(model dynamo.Model, integ dynamo.Integrator) *Simulator {
	s := &Simulator{model: model, integ: integ}
	if src, ok := model.(dynamo.EventSource); ok {
		s.detectors = src.Detectors()
	}
	return s
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.EventTimeTol <= 0 {
		return fmt.Errorf("event time tolerance must be positive, got %g", cfg.EventTimeTol)
	}
	return nil
}

// Run integrates from x0 under params p for the configured horizon.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, p dynamo.Params, cfg Config) (*Trajectory, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != len(s.model.States()) {
		return nil, &dynamo.ConfigError{
			Field:   "x0",
			Detail:  fmt.Sprintf("state length %d, model declares %d", len(x0), len(s.model.States())),
			Wrapped: dynamo.ErrDimensionMismatch,
		}
	}
	if len(p) != len(s.model.Params()) {
		return nil, &dynamo.ConfigError{
			Field:   "params",
			Detail:  fmt.Sprintf("param length %d, model declares %d", len(p), len(s.model.Params())),
			Wrapped: dynamo.ErrDimensionMismatch,
		}
	}

	var u0 dynamo.Input
	if cfg.Input != nil {
		u0 = cfg.Input(0)
	}
	if d0 := s.model.Derivative(x0, u0, p, 0); !dynamo.State(d0).IsValid() {
		return nil, &dynamo.ConfigError{
			Field:   "model",
			Detail:  "derivative at initial state is not finite",
			Wrapped: dynamo.ErrNonFiniteDerivative,
		}
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	tr := &Trajectory{
		Times:  make([]float64, 0, steps+1),
		States: make([]dynamo.State, 0, steps+1),
	}

	counts := make(map[string]int, len(s.detectors))

	x := x0.Clone()
	t := 0.0
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, x.Clone())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return tr, ctx.Err()
		default:
		}

		var u dynamo.Input
		if cfg.Input != nil {
			u = cfg.Input(t)
		}

		next := s.integ.Step(s.model, x, u, p, t, cfg.Dt)

		if len(s.detectors) > 0 && len(tr.Events) < cfg.MaxEvents {
			if refined, ok := s.locateEvent(tr, x, next, u, p, t, cfg, counts); ok {
				next = refined
			}
		}

		x = next
		t = float64(i+1) * cfg.Dt

		if cfg.ValidateState && !x.IsValid() {
			return tr, &SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}
		}

		tr.Times = append(tr.Times, t)
		tr.States = append(tr.States, x.Clone())
	}

	return tr, nil
}

// locateEvent checks every detector for an indicator sign change across the
// step [t, t+dt]. The first triggering detector in declaration order is
// refined by bisection on the substep length, its impulse map applied, and
// integration resumed from the post-event state. The continuation is then
// re-scanned so that later crossings inside the same step, by this or any
// remaining detector, are located too.
func (s *Simulator) locateEvent(
	tr *Trajectory,
	x, next dynamo.State,
	u dynamo.Input,
	p dynamo.Params,
	t float64,
	cfg Config,
	counts map[string]int,
) (dynamo.State, bool) {
	stepEnd := t + cfg.Dt
	segX, segT := x, t
	segNext := next
	handled := false

	for len(tr.Events) < cfg.MaxEvents {
		triggered := false
		for _, d := range s.detectors {
			before := d.Indicator(segX, p, segT)
			after := d.Indicator(segNext, p, stepEnd)
			if before <= 0 || after > 0 {
				continue
			}

			// Bisect on substep length h: the event lies where the indicator
			// of the state integrated h past segT crosses zero.
			lo, hi := 0.0, stepEnd-segT
			xPre := segNext
			for hi-lo > cfg.EventTimeTol {
				mid := 0.5 * (lo + hi)
				xm := s.integ.Step(s.model, segX, u, p, segT, mid)
				if d.Indicator(xm, p, segT+mid) > 0 {
					lo = mid
				} else {
					hi = mid
					xPre = xm
				}
			}

			te := segT + hi
			xPost := d.Apply(xPre, p)

			idx := counts[d.Kind()]
			counts[d.Kind()] = idx + 1

			tr.Events = append(tr.Events, Event{
				Kind:   d.Kind(),
				Index:  idx,
				Time:   te,
				Before: xPre.Clone(),
				After:  xPost.Clone(),
			})

			// Resume integration from the post-event state to the step
			// boundary; the next pass scans the remaining interval.
			segX, segT = xPost, te
			if rem := stepEnd - te; rem > 0 {
				segNext = s.integ.Step(s.model, xPost, u, p, te, rem)
			} else {
				segNext = xPost.Clone()
			}
			handled = true
			triggered = true
			break
		}
		if !triggered {
			break
		}
	}

	if !handled {
		return nil, false
	}
	return segNext, true
}
