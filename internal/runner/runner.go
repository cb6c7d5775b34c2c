// Package runner evaluates an ordered list of steady-state modules once,
// with no time axis, to compute derived quantities from known ones.
package runner

import (
	"errors"
	"fmt"

	"github.com/san-kum/modsim/internal/depgraph"
	"github.com/san-kum/modsim/internal/module"
	"github.com/san-kum/modsim/internal/quantity"
)

var ErrInvalidInputs = errors.New("runner: invalid module composition")

type ValidationError struct {
	Report *depgraph.Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d problems", ErrInvalidInputs, e.Report.Count())
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInputs }

// Validate checks that mods can run in the given order from known.
func Validate(known *quantity.Map, mods []string, reg *module.Registry) *depgraph.Report {
	r := depgraph.NewReport("checking the validity of the module composition:")
	descs, missing := reg.Descriptors(mods)
	r.Problem("unregistered modules", missing)

	var derivative []string
	for _, d := range descs {
		if d.Derivative {
			derivative = append(derivative, d.Name)
		}
	}
	r.Problem("derivative modules", derivative)

	names := known.Keys()
	defined := depgraph.DefinedQuantityNames([][]string{names}, descs)
	r.Problem("quantities defined more than once", depgraph.FindDuplicateQuantityDefinitions(defined))
	r.Problem("undefined module inputs", depgraph.FindUndefinedModuleInputs(names, descs))
	r.Problem("misordered modules", depgraph.FindMisorderedModules(names, descs))
	return r
}

// Run evaluates mods in order and returns their outputs only.
func Run(known *quantity.Map, mods []string, reg *module.Registry) (*quantity.Map, error) {
	if r := Validate(known, mods, reg); !r.Valid() {
		return nil, &ValidationError{Report: r}
	}

	t := quantity.NewTable()
	t.SetMap(known)

	descs, _ := reg.Descriptors(mods)
	outputs := depgraph.UniqueModuleOutputs(descs)
	for _, name := range outputs {
		t.Add(name)
	}

	for _, d := range descs {
		inst, err := reg.Instantiate(d.Name, t, t.MustSlot, t.MustSlot)
		if err != nil {
			return nil, err
		}
		inst.Run()
	}
	return t.Snapshot(outputs), nil
}
