// Package system turns a module composition into the right-hand side of
// an ODE that any integrator can drive.
//
// A System owns a quantity table holding the state, the invariant
// parameters, the interpolated drivers and every steady-state output. Each
// call to Derive writes the state into the table, runs the steady-state
// modules in order and then the derivative modules, whose contributions
// to a state quantity are summed and scaled by the timestep parameter.
package system

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modsim/internal/depgraph"
	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/jacobian"
	"github.com/san-kum/modsim/internal/module"
	"github.com/san-kum/modsim/internal/quantity"
)

// System is not safe for concurrent use.
type System struct {
	table *quantity.Table

	stateNames  []string
	stateSlots  []int
	derivSlots  []int
	driverSlots []int
	outputNames []string
	outputSlots []int
	paramNames  []string
	timestep    int

	drivers   *quantity.Series
	driverBuf []float64
	initial   dynamo.State

	steady     []*module.Instance
	derivative []*module.Instance
	adaptive   bool
	calls      int
	report     *depgraph.Report
}

// New validates in and builds the system. An invalid composition yields a
// *ValidationError.
func New(in Inputs, reg *module.Registry) (*System, error) {
	c := check(in, reg)
	if !c.report.Valid() {
		return nil, &ValidationError{Report: c.report}
	}

	t := quantity.NewTable()
	s := &System{
		table:      t,
		stateNames: in.InitialState.Keys(),
		paramNames: in.Parameters.Keys(),
		drivers:    in.Drivers,
		initial:    dynamo.State(in.InitialState.Values()),
		adaptive:   true,
		report:     c.report,
	}

	for _, name := range s.stateNames {
		s.stateSlots = append(s.stateSlots, t.Add(name))
	}
	t.SetMap(in.Parameters)
	s.timestep = t.MustSlot(TimestepName)
	for _, name := range in.Drivers.Names() {
		s.driverSlots = append(s.driverSlots, t.Add(name))
	}
	s.driverBuf = make([]float64, len(s.driverSlots))

	s.outputNames = depgraph.UniqueModuleOutputs(c.steady)
	for _, name := range s.outputNames {
		s.outputSlots = append(s.outputSlots, t.Add(name))
	}

	derivSlot := make(map[string]int, len(s.stateNames))
	for _, name := range s.stateNames {
		slot := t.AddHidden()
		derivSlot[name] = slot
		s.derivSlots = append(s.derivSlots, slot)
	}

	for _, d := range c.steady {
		inst, err := reg.Instantiate(d.Name, t, t.MustSlot, t.MustSlot)
		if err != nil {
			return nil, err
		}
		s.steady = append(s.steady, inst)
		s.adaptive = s.adaptive && d.AdaptiveCompatible
	}
	for _, d := range c.derivative {
		inst, err := reg.Instantiate(d.Name, t, t.MustSlot, func(name string) int { return derivSlot[name] })
		if err != nil {
			return nil, err
		}
		s.derivative = append(s.derivative, inst)
		s.adaptive = s.adaptive && d.AdaptiveCompatible
	}
	return s, nil
}

// update brings every steady-state output in line with x at time t.
func (s *System) update(x []float64, t float64) {
	for i, slot := range s.stateSlots {
		s.table.Set(slot, x[i])
	}
	s.drivers.Interpolate(t, s.driverBuf)
	for i, slot := range s.driverSlots {
		s.table.Set(slot, s.driverBuf[i])
	}
	for _, inst := range s.steady {
		inst.Run()
	}
}

// Derive returns dx/dt at (x, t) in the order of the initial state.
func (s *System) Derive(x dynamo.State, t float64) dynamo.State {
	s.calls++
	s.update(x, t)

	for _, slot := range s.derivSlots {
		s.table.Set(slot, 0)
	}
	for _, inst := range s.derivative {
		inst.Accumulate()
	}

	step := s.table.Get(s.timestep)
	out := make(dynamo.State, len(s.derivSlots))
	for i, slot := range s.derivSlots {
		out[i] = s.table.Get(slot) * step
	}
	return out
}

// Evaluate makes a System usable as a [jacobian.Func].
func (s *System) Evaluate(x []float64, t float64) []float64 {
	return s.Derive(x, t)
}

// Jacobian returns df/dx and df/dt at (x, t) by forward differences. A
// nil f0 is evaluated here.
func (s *System) Jacobian(x dynamo.State, t float64, f0 dynamo.State) (*mat.Dense, dynamo.State) {
	if f0 == nil {
		f0 = s.Derive(x, t)
	}
	_, end := s.TimeRange()
	return jacobian.Jacobian(s, x, t, f0), jacobian.TimeDerivative(s, x, t, end, f0)
}

func (s *System) StateDim() int { return len(s.stateNames) }

func (s *System) InitialState() dynamo.State { return s.initial.Clone() }

// TimeRange spans the rows of the drivers.
func (s *System) TimeRange() (float64, float64) {
	n := s.drivers.Len()
	if n < 1 {
		return 0, 0
	}
	return 0, float64(n - 1)
}

func (s *System) AdaptiveCompatible() bool { return s.adaptive }

// Calls counts Derive calls.
func (s *System) Calls() int { return s.calls }

func (s *System) Report() *depgraph.Report { return s.report }

// Columns are the names of an observed row: state, drivers, then
// steady-state outputs.
func (s *System) Columns() []string {
	cols := append([]string(nil), s.stateNames...)
	cols = append(cols, s.drivers.Names()...)
	return append(cols, s.outputNames...)
}

// Observe returns the row for (x, t) in Columns order.
func (s *System) Observe(x dynamo.State, t float64) []float64 {
	s.update(x, t)
	row := make([]float64, 0, len(s.stateSlots)+len(s.driverSlots)+len(s.outputSlots))
	for _, slots := range [][]int{s.stateSlots, s.driverSlots, s.outputSlots} {
		for _, slot := range slots {
			row = append(row, s.table.Get(slot))
		}
	}
	return row
}

// Snapshot returns every named quantity at (x, t), parameters included.
func (s *System) Snapshot(x dynamo.State, t float64) *quantity.Map {
	row := s.Observe(x, t)
	out := quantity.New()
	for i, name := range s.Columns() {
		out.Set(name, row[i])
	}
	for _, name := range s.paramNames {
		out.Set(name, s.table.Get(s.table.MustSlot(name)))
	}
	return out
}

// DerivativeMap is Derive keyed by state name.
func (s *System) DerivativeMap(x dynamo.State, t float64) *quantity.Map {
	d := s.Derive(x, t)
	out := quantity.New()
	for i, name := range s.stateNames {
		out.Set(name, d[i])
	}
	return out
}

var (
	_ dynamo.JacobianSystem = (*System)(nil)
	_ dynamo.Observer       = (*System)(nil)
	_ jacobian.Func         = (*System)(nil)
)
