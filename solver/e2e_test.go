package solver_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bcolloran/system-solver/constraint"
	"github.com/bcolloran/system-solver/dynamo"
	"github.com/bcolloran/system-solver/models"
	"github.com/bcolloran/system-solver/sim"
	"github.com/bcolloran/system-solver/solver"
)

var _ = Describe("end-to-end identification", func() {
	Describe("bouncing ball", func() {
		// Truth: gravity 9.8, restitution 0.8, no drag, dropped from 1m.
		impactTime := math.Sqrt(2 * 1.0 / 9.8)
		impactSpeed := math.Sqrt(2 * 9.8)

		var prob solver.Problem

		BeforeEach(func() {
			cfg := sim.DefaultConfig()
			cfg.Dt = 1e-4
			cfg.Duration = 1.5

			opts := solver.DefaultOptions()
			opts.Sim = cfg
			opts.Restarts = 2
			opts.Seed = 5

			prob = solver.Problem{
				Model:        models.NewBouncingBall(),
				InitialState: dynamo.State{1, 0},
				Constraints: []constraint.Constraint{
					{Kind: constraint.AtEvent, Event: "bounce", Occurrence: 0, Observable: "time", Target: impactTime},
					{Kind: constraint.AtEvent, Event: "bounce", Occurrence: 0, Observable: "pre:vy", Target: -impactSpeed},
					{Kind: constraint.AtEvent, Event: "bounce", Occurrence: 0, Observable: "restitution:vy", Target: 0.8},
				},
				Options: opts,
			}
		})

		It("recovers gravity and restitution from bounce constraints", func() {
			res, err := prob.Solve(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged).To(BeTrue(), "status %s, diagnostics %v", res.Status, res.Diagnostics)

			gravity, ok := res.Param("gravity")
			Expect(ok).To(BeTrue())
			Expect(gravity).To(BeNumerically("~", 9.8, 0.05))

			restitution, _ := res.Param("restitution")
			Expect(restitution).To(BeNumerically("~", 0.8, 1e-3))

			Expect(res.Breakdown.Unmet()).To(BeEmpty())
			Expect(res.Loss).To(BeNumerically("<", 1e-6))
		})

		It("scores every constraint in the breakdown", func() {
			res, err := prob.Solve(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Breakdown.Components).To(HaveLen(3))

			total := 0.0
			for _, c := range res.Breakdown.Components {
				total += c.Loss
			}
			Expect(total).To(BeNumerically("~", res.Breakdown.Total, 1e-12))
		})
	})

	Describe("under-constrained thrust model", func() {
		It("flags the thrust/drag degeneracy from a lone max-speed constraint", func() {
			// One sample deep in the plateau sees only thrust/drag, so the
			// two parameters cannot be separated.
			cfg := sim.DefaultConfig()
			cfg.Duration = 5

			opts := solver.DefaultOptions()
			opts.Sim = cfg
			opts.Restarts = 1
			opts.SkipPolish = true

			prob := solver.Problem{
				Model:        models.NewPlanarThrust(),
				InitialState: dynamo.State{0, 0},
				Constraints: []constraint.Constraint{
					{Kind: constraint.PointInTime, Observable: "vx", Time: 4.5, Target: 20},
				},
				Options: opts,
			}

			res, err := prob.Solve(context.Background())
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Identifiability).NotTo(BeNil())
			Expect(res.Identifiability.Identifiable()).To(BeFalse())
			Expect(res.Identifiability.WeakParams).NotTo(BeEmpty())
			Expect(res.Diagnostics).To(ContainElement(ContainSubstring("poorly identified")))

			// The constrained ratio is still recovered.
			thrust, _ := res.Param("thrust")
			drag, _ := res.Param("drag")
			Expect(thrust / drag).To(BeNumerically("~", 20, 0.1))
		})
	})
})
