// Package experiment turns a config.Config into engine calls. It owns the
// run's random source and logger and collects everything a caller may
// want to store or print.
package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/san-kum/modsim/internal/config"
	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/logging"
	"github.com/san-kum/modsim/internal/metrics"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/sim"
)

type Experiment struct {
	cfg        *config.Config
	registry   *Registry
	simulator  *sim.Simulator
	randSource *rand.Rand
	logger     *slog.Logger
}

// Outcome holds what a run produced. Only the fields of the run's mode
// are set.
type Outcome struct {
	Mode string

	Result  *dynamo.Result
	Sweep   []*dynamo.Result
	Metrics map[string]float64

	Solve *sim.SolveOutput

	Outputs *quantity.Map
}

func New(cfg *config.Config, reg *Registry) *Experiment {
	return &Experiment{
		cfg:        cfg,
		registry:   reg,
		simulator:  sim.New(reg.Modules()),
		randSource: rand.New(rand.NewSource(cfg.Seed)),
		logger:     logging.Discard(),
	}
}

func (e *Experiment) WithLogger(l *slog.Logger) *Experiment {
	e.logger = l
	e.simulator.WithLogger(l.With("component", "sim"))
	return e
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) SimulationInput() sim.SimulationInput {
	s := e.cfg.Simulation
	return sim.SimulationInput{
		InitialState:    s.InitialState,
		Parameters:      s.Parameters,
		Drivers:         s.TimeSeries(),
		SteadyStateMods: s.SteadyStateMods,
		DerivativeMods:  s.DerivativeMods,
		Reorder:         s.Reorder,
		Integrator:      s.Integrator,
		Config:          s.Integration,
	}
}

func (e *Experiment) SolveInput() sim.SolveInput {
	s := e.cfg.Solve
	guess, lower, upper := s.Bounds()
	return sim.SolveInput{
		Known:           s.Known,
		Unknowns:        s.UnknownNames(),
		SteadyStateMods: s.SteadyStateMods,
		Guess:           guess,
		Lower:           lower,
		Upper:           upper,
		Solver:          s.Solver,
		Config:          s.Settings,
		Starts:          s.Starts,
		Rand:            e.randSource,
		SortGuesses:     s.SortGuesses,
	}
}

// Validate checks the composition of the configured mode.
func (e *Experiment) Validate() (bool, string) {
	switch e.cfg.Mode {
	case config.ModeSolve:
		return e.simulator.ValidateSimultaneous(e.SolveInput())
	case config.ModeCompose:
		return e.simulator.ValidateComposition(e.cfg.Compose.Known, e.cfg.Compose.Modules)
	default:
		return e.simulator.Validate(e.SimulationInput())
	}
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	e.logger.Info("experiment started", "mode", e.cfg.Mode, "seed", e.cfg.Seed)

	var (
		out *Outcome
		err error
	)
	switch e.cfg.Mode {
	case config.ModeSimulate:
		out, err = e.runSimulation(ctx)
	case config.ModeSolve:
		out, err = e.runSolve()
	case config.ModeCompose:
		out, err = e.runCompose()
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", config.ErrInvalidConfig, e.cfg.Mode)
	}
	if err != nil {
		e.logger.Error("experiment failed", "mode", e.cfg.Mode, "error", err)
		return out, err
	}
	e.logger.Info("experiment finished", "mode", e.cfg.Mode)
	return out, nil
}

func (e *Experiment) runSimulation(ctx context.Context) (*Outcome, error) {
	in := e.SimulationInput()
	out := &Outcome{Mode: config.ModeSimulate}

	res, err := e.simulator.Simulate(ctx, in)
	out.Result = res
	if err != nil {
		return out, err
	}

	bounds, err := e.bounds(in)
	if err != nil {
		return out, err
	}
	out.Metrics, err = metrics.Apply(res, bounds)
	if err != nil {
		return out, err
	}

	if len(e.cfg.Simulation.Sweep) > 0 {
		e.logger.Info("parameter sweep", "runs", len(e.cfg.Simulation.Sweep))
		out.Sweep, err = e.simulator.Sweep(ctx, in, e.cfg.Simulation.Sweep)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func (e *Experiment) bounds(in sim.SimulationInput) ([]metrics.Bound, error) {
	if len(e.cfg.Metrics) == 0 {
		return e.registry.DefaultMetrics(in.InitialState.Keys()), nil
	}
	bounds := make([]metrics.Bound, 0, len(e.cfg.Metrics))
	for _, spec := range e.cfg.Metrics {
		b, err := metrics.Parse(spec)
		if err != nil {
			return nil, err
		}
		bounds = append(bounds, b)
	}
	return bounds, nil
}

func (e *Experiment) runSolve() (*Outcome, error) {
	res, err := e.simulator.Solve(e.SolveInput())
	if err != nil {
		return nil, err
	}
	if !res.Success {
		e.logger.Warn("solve did not converge", "message", res.Result.Message)
	}
	return &Outcome{Mode: config.ModeSolve, Solve: &res}, nil
}

func (e *Experiment) runCompose() (*Outcome, error) {
	outputs, err := e.simulator.RunComposition(e.cfg.Compose.Known, e.cfg.Compose.Modules)
	if err != nil {
		return nil, err
	}
	return &Outcome{Mode: config.ModeCompose, Outputs: outputs}, nil
}
