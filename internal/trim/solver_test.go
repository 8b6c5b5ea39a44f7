package trim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/flyer/internal/models"
	"github.com/san-kum/flyer/internal/trim"
)

var optimum = [3]float64{0.05, 0.1, 0.6}

func bowl(target trim.Target) trim.CostFunc {
	return func(c [3]float64) float64 {
		var s float64
		for i := range c {
			d := c[i] - optimum[i]
			s += d * d
		}
		return s
	}
}

var cruise = trim.Target{Altitude: 1000, Airspeed: 50}

var _ = Describe("Solver", func() {
	var cfg trim.Config

	BeforeEach(func() {
		cfg = trim.DefaultConfig()
		cfg.Swarm.Seed = 7
	})

	Describe("with an analytic cost", func() {
		It("finds the minimum inside the box", func() {
			s := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(bowl))
			res, err := s.Trim(context.Background(), cruise, 200)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(trim.Converged))
			Expect(res.Pitch()).To(BeNumerically("~", optimum[0], 1e-2))
			Expect(res.Elevator()).To(BeNumerically("~", optimum[1], 1e-2))
			Expect(res.Throttle()).To(BeNumerically("~", optimum[2], 1e-2))
		})

		It("never returns a cost worse than the initial swarm", func() {
			s := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(bowl))
			res, err := s.Trim(context.Background(), cruise, 3)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.InitialCosts).To(HaveLen(cfg.Swarm.Particles))
			for _, c := range res.InitialCosts {
				Expect(res.Cost).To(BeNumerically("<=", c))
			}
		})

		It("keeps the control inside the bounds", func() {
			far := func(trim.Target) trim.CostFunc {
				return func(c [3]float64) float64 { return math.Abs(c[0]-5) + math.Abs(c[1]+5) + math.Abs(c[2]-5) }
			}
			s := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(far))
			res, err := s.Trim(context.Background(), cruise, 50)

			Expect(err).NotTo(HaveOccurred())
			for i := range res.Control {
				Expect(res.Control[i]).To(BeNumerically(">=", cfg.Bounds.Lo[i]))
				Expect(res.Control[i]).To(BeNumerically("<=", cfg.Bounds.Hi[i]))
			}
		})

		It("is deterministic for a fixed seed", func() {
			a, errA := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(bowl)).Trim(context.Background(), cruise, 20)
			cfg.Swarm.Workers = 4
			b, errB := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(bowl)).Trim(context.Background(), cruise, 20)

			Expect(errA).NotTo(HaveOccurred())
			Expect(errB).NotTo(HaveOccurred())
			Expect(b.Control).To(Equal(a.Control))
			Expect(b.Cost).To(Equal(a.Cost))
			Expect(b.History).To(Equal(a.History))
		})

		It("reports MaxIterations when the budget runs out", func() {
			cfg.Swarm.Tolerance = 0
			cfg.Swarm.StallIterations = 0
			s := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(bowl))
			res, err := s.Trim(context.Background(), cruise, 4)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(trim.MaxIterations))
			Expect(res.Iterations).To(Equal(4))
			Expect(res.History).To(HaveLen(5))
		})

		It("calls the observer once per generation", func() {
			cfg.Swarm.Tolerance = 0
			cfg.Swarm.StallIterations = 0
			var seen []int
			obs := func(i int, c [3]float64, cost float64) { seen = append(seen, i) }

			s := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(bowl), trim.WithObserver(obs))
			_, err := s.Trim(context.Background(), cruise, 3)

			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(Equal([]int{1, 2, 3}))
		})
	})

	Describe("aborting", func() {
		It("rejects inverted bounds", func() {
			cfg.Bounds.Lo[trim.Throttle] = 1
			cfg.Bounds.Hi[trim.Throttle] = 0
			s := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(bowl))
			res, err := s.Trim(context.Background(), cruise, 10)

			Expect(err).To(MatchError(trim.ErrInvalidBounds))
			var abort *trim.AbortError
			Expect(errors.As(err, &abort)).To(BeTrue())
			Expect(abort.Result).To(Equal(res))
			Expect(res.Status).To(Equal(trim.Aborted))
		})

		It("rejects a non-finite bound", func() {
			cfg.Bounds.Hi[trim.Pitch] = math.NaN()
			s := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(bowl))
			_, err := s.Trim(context.Background(), cruise, 10)

			Expect(err).To(MatchError(trim.ErrInvalidBounds))
		})

		It("rejects an invalid target", func() {
			s := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(bowl))
			res, err := s.Trim(context.Background(), trim.Target{Altitude: 100, Airspeed: 0}, 10)

			Expect(err).To(MatchError(trim.ErrInvalidTarget))
			Expect(res.Status).To(Equal(trim.Aborted))
		})

		It("keeps the best estimate when the cost turns non-finite", func() {
			calls := 0
			flaky := func(trim.Target) trim.CostFunc {
				inner := bowl(cruise)
				return func(c [3]float64) float64 {
					calls++
					if calls > 2*cfg.Swarm.Particles {
						return math.Inf(1)
					}
					return inner(c)
				}
			}
			s := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(flaky))
			res, err := s.Trim(context.Background(), cruise, 50)

			Expect(err).To(MatchError(trim.ErrNonFiniteCost))
			Expect(res.Status).To(Equal(trim.Aborted))
			Expect(math.IsInf(res.Cost, 0)).To(BeFalse())
			Expect(res.Iterations).To(Equal(2))
			for _, c := range res.InitialCosts {
				Expect(res.Cost).To(BeNumerically("<=", c))
			}
		})

		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cfg.Swarm.Tolerance = 0
			cfg.Swarm.StallIterations = 0
			obs := func(i int, c [3]float64, cost float64) {
				if i == 2 {
					cancel()
				}
			}
			s := trim.NewSolver(nil, trim.WithConfig(cfg), trim.WithCost(bowl), trim.WithObserver(obs))
			res, err := s.Trim(ctx, cruise, 100)

			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Status).To(Equal(trim.Aborted))
			Expect(res.Iterations).To(Equal(2))
		})
	})

	Describe("with the fixed-wing engine", func() {
		BeforeEach(func() {
			cfg.Swarm.Particles = 12
			cfg.Horizon = 0.5
			cfg.Dt = 0.05
		})

		It("produces a finite trim no worse than the initial swarm", func() {
			s := trim.NewSolver(models.DefaultEngine(), trim.WithConfig(cfg))
			res, err := s.Trim(context.Background(), cruise, 8)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(BeElementOf(trim.Converged, trim.MaxIterations))
			Expect(math.IsNaN(res.Cost)).To(BeFalse())
			for _, c := range res.InitialCosts {
				Expect(res.Cost).To(BeNumerically("<=", c))
			}
		})

		It("gives the same answer across worker counts", func() {
			eng := models.DefaultEngine()
			a, errA := trim.NewSolver(eng, trim.WithConfig(cfg)).Trim(context.Background(), cruise, 4)
			cfg.Swarm.Workers = 3
			b, errB := trim.NewSolver(eng, trim.WithConfig(cfg)).Trim(context.Background(), cruise, 4)

			Expect(errA).NotTo(HaveOccurred())
			Expect(errB).NotTo(HaveOccurred())
			Expect(b.Control).To(Equal(a.Control))
			Expect(b.Cost).To(Equal(a.Cost))
		})
	})
})

var _ = Describe("EngineCost", func() {
	It("is deterministic", func() {
		cost := trim.NewEngineCost(models.DefaultEngine(), cruise, 0.5, 0.05)
		c := [3]float64{0.05, 0, 0.5}
		Expect(cost(c)).To(Equal(cost(c)))
	})

	It("penalises an idle, nose-down descent more than a mild climb attitude", func() {
		cost := trim.NewEngineCost(models.DefaultEngine(), cruise, 1.0, 0.02)
		dive := cost([3]float64{-0.2, -0.5, 0})
		level := cost([3]float64{0.02, 0, 0.5})
		Expect(dive).To(BeNumerically(">", level))
	})
})

var _ = Describe("Status", func() {
	DescribeTable("String",
		func(s trim.Status, want string) {
			Expect(s.String()).To(Equal(want))
		},
		Entry("converged", trim.Converged, "converged"),
		Entry("max iterations", trim.MaxIterations, "max_iterations"),
		Entry("aborted", trim.Aborted, "aborted"),
	)
})
