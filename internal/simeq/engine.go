// Package simeq solves for quantities that a set of steady-state modules
// both consumes and produces.
//
// The engine treats a guess for the unknown quantities and the values the
// modules recompute from that guess as the two sides of a fixed-point
// equation. Its residual is their difference, so a root of the residual is
// a self-consistent set of quantities.
package simeq

import (
	"errors"
	"fmt"

	"github.com/san-kum/modsim/internal/depgraph"
	"github.com/san-kum/modsim/internal/module"
	"github.com/san-kum/modsim/internal/quantity"
)

// ErrInvalidInputs is wrapped by every *ValidationError.
var ErrInvalidInputs = errors.New("simeq: invalid simultaneous equation inputs")

type ValidationError struct {
	Report *depgraph.Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d problems", ErrInvalidInputs, e.Report.Count())
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInputs }

type Inputs struct {
	Known *quantity.Map
	// Unknowns must name exactly the quantities that are both an input and
	// an output of the modules. They need not be sorted: the list is taken
	// as given and fixes the order of guess, bound and residual vectors.
	// depgraph.UnknownQuantities returns them sorted by name.
	Unknowns        []string
	SteadyStateMods []string
}

// Validate checks in against reg without building anything.
func Validate(in Inputs, reg *module.Registry) *depgraph.Report {
	r, _ := check(in, reg)
	return r
}

func check(in Inputs, reg *module.Registry) (*depgraph.Report, []module.Descriptor) {
	r := depgraph.NewReport("checking the validity of the simultaneous equation inputs:")
	mods, missing := reg.Descriptors(in.SteadyStateMods)
	r.Problem("unregistered modules", missing)

	var derivative []string
	for _, m := range mods {
		if m.Derivative {
			derivative = append(derivative, m.Name)
		}
	}
	r.Problem("derivative modules", derivative)

	known := in.Known.Keys()
	defined := depgraph.DefinedQuantityNames([][]string{known}, mods)
	r.Problem("quantities defined more than once", depgraph.FindDuplicateQuantityDefinitions(defined))
	r.Problem("repeated unknown quantities", depgraph.FindDuplicateQuantityDefinitions(in.Unknowns))
	r.Problem("undefined module inputs", depgraph.FindUndefinedModuleInputs(known, mods))

	unknowns := depgraph.UnknownQuantities(mods)
	r.Problem("declared unknowns that are not unknown quantities", depgraph.Difference(in.Unknowns, unknowns))
	r.Problem("unknown quantities that are not declared", depgraph.Difference(unknowns, in.Unknowns))

	available := append(append([]string(nil), known...), in.Unknowns...)
	r.Problem("misordered modules", depgraph.FindMisorderedModules(available, mods))

	return r, mods
}

// Engine is not safe for concurrent use.
type Engine struct {
	table    *quantity.Table
	unknowns []string
	guess    []int
	computed []int

	outputNames []string
	outputSlots []int
	modules     []*module.Instance
	calls       int
}

// New validates in and builds the engine. An invalid composition yields a
// *ValidationError.
func New(in Inputs, reg *module.Registry) (*Engine, error) {
	report, mods := check(in, reg)
	if !report.Valid() {
		return nil, &ValidationError{Report: report}
	}

	t := quantity.NewTable()
	t.SetMap(in.Known)
	e := &Engine{
		table:    t,
		unknowns: append([]string(nil), in.Unknowns...),
	}

	computed := make(map[string]int, len(in.Unknowns))
	for _, name := range in.Unknowns {
		e.guess = append(e.guess, t.Add(name))
		slot := t.AddHidden()
		e.computed = append(e.computed, slot)
		computed[name] = slot
	}
	output := func(name string) int {
		if slot, ok := computed[name]; ok {
			return slot
		}
		return t.Add(name)
	}

	for _, name := range depgraph.UniqueModuleOutputs(mods) {
		e.outputNames = append(e.outputNames, name)
		e.outputSlots = append(e.outputSlots, output(name))
	}
	for _, d := range mods {
		inst, err := reg.Instantiate(d.Name, t, t.MustSlot, output)
		if err != nil {
			return nil, err
		}
		e.modules = append(e.modules, inst)
	}
	return e, nil
}

func (e *Engine) run(x []float64) {
	e.calls++
	for i, slot := range e.guess {
		e.table.Set(slot, x[i])
	}
	for _, inst := range e.modules {
		inst.Run()
	}
}

// Evaluate returns the residual recomputed - x for the guess x.
func (e *Engine) Evaluate(x []float64) []float64 {
	e.run(x)
	out := make([]float64, len(e.computed))
	for i, slot := range e.computed {
		out[i] = e.table.Get(slot) - x[i]
	}
	return out
}

// Outputs runs the modules at x and returns every module output. Unknown
// quantities take their recomputed values.
func (e *Engine) Outputs(x []float64) *quantity.Map {
	e.run(x)
	out := quantity.New()
	for i, name := range e.outputNames {
		out.Set(name, e.table.Get(e.outputSlots[i]))
	}
	return out
}

// Unknowns returns the unknown quantity names in guess order.
func (e *Engine) Unknowns() []string { return append([]string(nil), e.unknowns...) }

func (e *Engine) Dim() int { return len(e.unknowns) }

// Calls counts module evaluations.
func (e *Engine) Calls() int { return e.calls }
