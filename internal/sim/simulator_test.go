package sim_test

import (
	"context"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/models"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/sesolver"
	"github.com/san-kum/modsim/internal/sim"
	"github.com/san-kum/modsim/internal/system"
)

func clock(rows int) *quantity.Series {
	s := quantity.NewSeries(rows)
	temps := make([]float64, rows)
	for i := range temps {
		temps[i] = 20
	}
	Expect(s.AddColumn("temp", temps)).To(Succeed())
	return s
}

func decayInput(integrator string) sim.SimulationInput {
	return sim.SimulationInput{
		InitialState:   quantity.Of("pool", 4),
		Parameters:     quantity.Of("timestep", 1, "decay_rate", 0.5),
		Drivers:        clock(4),
		DerivativeMods: []string{"exponential_decay"},
		Integrator:     integrator,
		Config:         dynamo.DefaultConfig(),
	}
}

var _ = Describe("Simulator", func() {
	var s *sim.Simulator

	BeforeEach(func() {
		s = sim.New(models.Default())
	})

	Describe("Simulate", func() {
		It("steps exponential decay with euler", func() {
			res, err := s.Simulate(context.Background(), decayInput("euler"))
			Expect(err).NotTo(HaveOccurred())

			pool, ok := res.Column("pool")
			Expect(ok).To(BeTrue())
			Expect(pool).To(Equal([]float64{4, 2, 1, 0.5}))
			Expect(res.Times).To(Equal([]float64{0, 1, 2, 3}))
			Expect(res.Columns).To(Equal([]string{"pool", "temp"}))
		})

		It("tracks the exact solution with rk45", func() {
			res, err := s.Simulate(context.Background(), decayInput("rk45"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Final()["pool"]).To(BeNumerically("~", 4*math.Exp(-1.5), 1e-3))
			Expect(res.Evaluations).To(BeNumerically(">", 0))
		})

		It("uses rosenbrock under auto when every module is adaptive compatible", func() {
			res, err := s.Simulate(context.Background(), decayInput("auto"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Integrator).To(Equal("auto/rosenbrock"))
			Expect(res.Final()["pool"]).To(BeNumerically("~", 4*math.Exp(-1.5), 1e-2))
		})

		It("falls back to euler under auto for step-size sensitive modules", func() {
			in := sim.SimulationInput{
				InitialState:    quantity.Of("TTc", 0),
				Parameters:      quantity.Of("timestep", 1, "tbase", 8, "stage_threshold", 1),
				Drivers:         clock(4),
				SteadyStateMods: []string{"development_stage"},
				DerivativeMods:  []string{"thermal_time"},
				Integrator:      "auto",
				Config:          dynamo.DefaultConfig(),
			}
			res, err := s.Simulate(context.Background(), in)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Integrator).To(Equal("auto/euler"))
			Expect(res.Notes).To(ContainElement(ContainSubstring("not adaptive compatible")))

			stage, _ := res.Column("stage")
			Expect(stage).To(Equal([]float64{0, 0, 1, 1}))
		})

		It("refuses rk45 for step-size sensitive modules", func() {
			in := sim.SimulationInput{
				InitialState:    quantity.Of("TTc", 0),
				Parameters:      quantity.Of("timestep", 1, "tbase", 8, "stage_threshold", 1),
				Drivers:         clock(4),
				SteadyStateMods: []string{"development_stage"},
				DerivativeMods:  []string{"thermal_time"},
				Integrator:      "rk45",
				Config:          dynamo.DefaultConfig(),
			}
			_, err := s.Simulate(context.Background(), in)
			Expect(err).To(MatchError(dynamo.ErrNotAdaptiveCompatible))
		})

		It("rejects an invalid composition before integrating", func() {
			in := decayInput("euler")
			in.Parameters = quantity.Of("decay_rate", 0.5)
			_, err := s.Simulate(context.Background(), in)
			Expect(err).To(MatchError(system.ErrInvalidInputs))
		})

		It("stops when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			res, err := s.Simulate(ctx, decayInput("euler"))
			Expect(err).To(MatchError(dynamo.ErrContextCanceled))
			Expect(res.Len()).To(Equal(2))
		})

		It("is deterministic", func() {
			a, err := s.Simulate(context.Background(), decayInput("rosenbrock"))
			Expect(err).NotTo(HaveOccurred())
			b, err := s.Simulate(context.Background(), decayInput("rosenbrock"))
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Rows).To(Equal(a.Rows))
			Expect(b.Times).To(Equal(a.Times))
		})
	})

	Describe("EvaluateDerivative", func() {
		It("returns the rate of every state quantity", func() {
			d, err := s.EvaluateDerivative(decayInput("euler"), 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.ToMap()).To(Equal(map[string]float64{"pool": -2}))
		})
	})

	Describe("RunComposition", func() {
		It("doubles x", func() {
			out, err := s.RunComposition(quantity.Of("x", 3), []string{"doubler"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.ToMap()).To(Equal(map[string]float64{"y": 6}))
		})

		It("reports misordered modules", func() {
			ok, report := s.ValidateComposition(quantity.Of("x", 1), []string{"double_p", "increment"})
			Expect(ok).To(BeFalse())
			Expect(report).To(ContainSubstring("double_p"))
		})
	})

	Describe("Solve", func() {
		solveInput := func(solver string) sim.SolveInput {
			return sim.SolveInput{
				Known:           quantity.New(),
				Unknowns:        []string{"u"},
				SteadyStateMods: []string{"cosine_fixed_point"},
				Guess:           []float64{0.5},
				Lower:           []float64{0},
				Upper:           []float64{1},
				Solver:          solver,
				Config:          sesolver.DefaultConfig(),
			}
		}

		for _, name := range sesolver.Names() {
			It("finds u = cos(u) with "+name, func() {
				out, err := s.Solve(solveInput(name))
				Expect(err).NotTo(HaveOccurred())
				Expect(out.Success).To(BeTrue(), out.Result.Message)

				u, _ := out.Unknowns.Get("u")
				Expect(u).To(BeNumerically("~", 0.739085, 1e-5))
				Expect(out.Calls).To(BeNumerically(">", 0))
			})
		}

		It("adds seeded random starts", func() {
			in := solveInput("newton_raphson_backtrack")
			in.Starts = 4
			in.Rand = rand.New(rand.NewSource(7))
			in.SortGuesses = true

			out, err := s.Solve(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Success).To(BeTrue())
			Expect(out.Result.Attempts).To(Equal(1))
		})

		It("rejects a guess of the wrong length", func() {
			in := solveInput("newton_raphson")
			in.Guess = []float64{0.1, 0.2}
			_, err := s.Solve(in)
			Expect(err).To(HaveOccurred())
		})

		It("validates the composition", func() {
			in := solveInput("newton_raphson")
			ok, report := s.ValidateSimultaneous(in)
			Expect(ok).To(BeTrue(), report)

			in.Unknowns = []string{"v"}
			ok, _ = s.ValidateSimultaneous(in)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Validate", func() {
		It("accepts a well formed system", func() {
			ok, report := s.Validate(decayInput("euler"))
			Expect(ok).To(BeTrue())
			Expect(report).To(ContainSubstring("result: valid"))
		})
	})
})
