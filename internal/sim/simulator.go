// Package sim exposes the engine's entry points: time-stepped simulation,
// single derivative evaluation, one-off module runs, simultaneous-equation
// solves and composition validation.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/integrators"
	"github.com/san-kum/modsim/internal/logging"
	"github.com/san-kum/modsim/internal/module"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/runner"
	"github.com/san-kum/modsim/internal/sesolver"
	"github.com/san-kum/modsim/internal/simeq"
	"github.com/san-kum/modsim/internal/system"
)

// Simulator binds the entry points to a module registry. It holds no run
// state, so one Simulator can serve concurrent runs.
type Simulator struct {
	reg    *module.Registry
	logger *slog.Logger
}

func New(reg *module.Registry) *Simulator {
	return &Simulator{reg: reg, logger: logging.Discard()}
}

func (s *Simulator) WithLogger(l *slog.Logger) *Simulator {
	s.logger = l
	return s
}

func (s *Simulator) Registry() *module.Registry { return s.reg }

// ctxSystem lets integrators notice cancellation between output rows.
type ctxSystem struct {
	*system.System
	ctx context.Context
}

func (c ctxSystem) Err() error { return c.ctx.Err() }

// Simulate builds a System from in and integrates it over the time range
// of its drivers.
func (s *Simulator) Simulate(ctx context.Context, in SimulationInput) (*dynamo.Result, error) {
	sys, err := system.New(in.systemInputs(), s.reg)
	if err != nil {
		return nil, err
	}
	integ, err := integrators.New(in.Integrator, in.Config)
	if err != nil {
		return nil, err
	}

	start, end := sys.TimeRange()
	s.logger.Debug("simulation started",
		"integrator", integ.Name(),
		"states", sys.StateDim(),
		"start", start,
		"end", end,
		"adaptive_compatible", sys.AdaptiveCompatible())

	res, err := integ.Integrate(ctxSystem{System: sys, ctx: ctx})
	if err != nil {
		s.logger.Warn("simulation stopped early", "integrator", integ.Name(), "error", err)
		return res, err
	}

	s.logger.Debug("simulation finished",
		"integrator", res.Integrator,
		"rows", res.Len(),
		"steps", res.StepsTaken,
		"rejected", res.Rejected,
		"evaluations", res.Evaluations)
	return res, nil
}

// EvaluateDerivative returns the derivative of every state quantity at the
// initial state and time t, without integrating.
func (s *Simulator) EvaluateDerivative(in SimulationInput, t float64) (*quantity.Map, error) {
	sys, err := system.New(in.systemInputs(), s.reg)
	if err != nil {
		return nil, err
	}
	return sys.DerivativeMap(sys.InitialState(), t), nil
}

// RunComposition evaluates mods once, in order, from known.
func (s *Simulator) RunComposition(known *quantity.Map, mods []string) (*quantity.Map, error) {
	return runner.Run(known, mods, s.reg)
}

// Solve finds the unknown quantities of a simultaneous-equation
// composition. A failed solve is not an error: it is reported through
// SolveOutput.Success with the best guess found.
func (s *Simulator) Solve(in SolveInput) (SolveOutput, error) {
	eng, err := simeq.New(simeq.Inputs{
		Known:           in.Known,
		Unknowns:        in.Unknowns,
		SteadyStateMods: in.SteadyStateMods,
	}, s.reg)
	if err != nil {
		return SolveOutput{}, err
	}
	solver, err := sesolver.New(in.Solver, in.Config)
	if err != nil {
		return SolveOutput{}, err
	}
	if len(in.Guess) != eng.Dim() {
		return SolveOutput{}, fmt.Errorf("sim: %d initial guesses for %d unknowns", len(in.Guess), eng.Dim())
	}

	lower, upper := in.Lower, in.Upper
	if lower == nil {
		lower = fill(eng.Dim(), math.Inf(-1))
	}
	if upper == nil {
		upper = fill(eng.Dim(), math.Inf(1))
	}

	guesses := [][]float64{in.Guess}
	if in.Starts > 1 {
		if in.Rand == nil {
			return SolveOutput{}, fmt.Errorf("sim: multi-start needs a random source")
		}
		guesses = sesolver.Guesses(in.Guess, lower, upper, in.Starts, in.Rand)
	}
	if in.SortGuesses {
		sesolver.SortByBadness(guesses, sesolver.ResidualBadness(eng))
	}

	res := sesolver.MultiStart(solver, eng, guesses, lower, upper)
	s.logger.Debug("solve finished",
		"solver", solver.Name(),
		"success", res.Success,
		"iterations", res.Iterations,
		"attempts", res.Attempts,
		"message", res.Message)

	out := SolveOutput{
		Success:  res.Success,
		Unknowns: quantity.New(),
		Result:   res,
	}
	for i, name := range eng.Unknowns() {
		out.Unknowns.Set(name, res.Solution[i])
	}
	out.Outputs = eng.Outputs(res.Solution)
	out.Calls = eng.Calls()
	return out, nil
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Validate reports whether in describes a valid system, with a readable
// report either way.
func (s *Simulator) Validate(in SimulationInput) (bool, string) {
	r := system.Validate(in.systemInputs(), s.reg)
	return r.Valid(), r.String()
}

// ValidateSimultaneous is Validate for a simultaneous-equation composition.
func (s *Simulator) ValidateSimultaneous(in SolveInput) (bool, string) {
	r := simeq.Validate(simeq.Inputs{
		Known:           in.Known,
		Unknowns:        in.Unknowns,
		SteadyStateMods: in.SteadyStateMods,
	}, s.reg)
	return r.Valid(), r.String()
}

// ValidateComposition is Validate for a one-off module run.
func (s *Simulator) ValidateComposition(known *quantity.Map, mods []string) (bool, string) {
	r := runner.Validate(known, mods, s.reg)
	return r.Valid(), r.String()
}
