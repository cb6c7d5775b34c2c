package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/modsim/internal/dynamo"
)

// Stepper advances a state by one fixed step.
type Stepper interface {
	Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State
}

// AdaptiveStepper attempts a step of size dt and reports the error
// ratio of the attempt (accepted when <= 1) and the next step size.
type AdaptiveStepper interface {
	StepAdaptive(sys dynamo.System, x dynamo.State, t, dt float64, cfg dynamo.Config) (xNew dynamo.State, errRatio, dtNew float64, err error)
}

// Integrator runs a system over its whole time range.
type Integrator interface {
	Name() string
	// RequiresAdaptiveCompatible is true for integrators that vary the
	// step size and so reject systems with step-size sensitive modules.
	RequiresAdaptiveCompatible() bool
	Integrate(sys dynamo.System) (*dynamo.Result, error)
}

type factory func(cfg dynamo.Config) Integrator

var registry = map[string]factory{
	"euler": func(cfg dynamo.Config) Integrator { return NewFixed("euler", NewEuler(), cfg) },
	"rk4":   func(cfg dynamo.Config) Integrator { return NewFixed("rk4", NewRK4(), cfg) },
	"rk45": func(cfg dynamo.Config) Integrator {
		return NewAdaptive("rk45", NewRK45(), cfg)
	},
	"rosenbrock": func(cfg dynamo.Config) Integrator {
		return NewAdaptive("rosenbrock", NewRosenbrock(), cfg)
	},
	"auto": func(cfg dynamo.Config) Integrator { return NewAuto(cfg) },
}

// New returns the named integrator configured with cfg.
func New(name string, cfg dynamo.Config) (Integrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return f(cfg), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func observe(sys dynamo.System, res *dynamo.Result, x dynamo.State, t float64) {
	if obs, ok := sys.(dynamo.Observer); ok {
		res.Append(t, obs.Observe(x, t))
		return
	}
	res.Append(t, x.Clone())
}

func columns(sys dynamo.System) []string {
	if obs, ok := sys.(dynamo.Observer); ok {
		return obs.Columns()
	}
	cols := make([]string, sys.StateDim())
	for i := range cols {
		cols[i] = fmt.Sprintf("x%d", i)
	}
	return cols
}

// outputTimes returns start, start+h, ... up to end. The last time is
// end itself when end is within a small tolerance of a multiple of h.
func outputTimes(start, end, h float64) []float64 {
	n := int((end-start)/h + 1e-9)
	times := make([]float64, n+1)
	for i := range times {
		times[i] = start + float64(i)*h
	}
	return times
}

func checkInitial(sys dynamo.System) (dynamo.State, error) {
	x := sys.InitialState()
	if len(x) != sys.StateDim() {
		return nil, dynamo.ErrDimensionMismatch
	}
	if !x.IsValid() {
		return nil, dynamo.ErrInvalidState
	}
	return x.Clone(), nil
}

// interrupted reports cancellation for systems that carry a context.
// Integrators check it after every observed row.
func interrupted(sys dynamo.System) error {
	c, ok := sys.(interface{ Err() error })
	if !ok {
		return nil
	}
	if err := c.Err(); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrContextCanceled, err)
	}
	return nil
}
