package system

import (
	"errors"
	"fmt"

	"github.com/san-kum/modsim/internal/depgraph"
	"github.com/san-kum/modsim/internal/module"
	"github.com/san-kum/modsim/internal/quantity"
)

// TimestepName is the invariant parameter every system requires. Derivatives
// are scaled by it.
const TimestepName = "timestep"

// ErrInvalidInputs is wrapped by every *ValidationError.
var ErrInvalidInputs = errors.New("system: invalid system inputs")

// ValidationError carries the report of a rejected composition.
type ValidationError struct {
	Report *depgraph.Report
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d problems", ErrInvalidInputs, e.Report.Count())
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInputs }

// Inputs is everything a System is built from.
type Inputs struct {
	InitialState    *quantity.Map
	Parameters      *quantity.Map
	Drivers         *quantity.Series
	SteadyStateMods []string
	DerivativeMods  []string
	// Reorder puts the steady-state modules into a valid evaluation order
	// before the ordering check.
	Reorder bool
}

type checked struct {
	report     *depgraph.Report
	steady     []module.Descriptor
	derivative []module.Descriptor
}

// Validate checks in against reg without building anything.
func Validate(in Inputs, reg *module.Registry) *depgraph.Report {
	return check(in, reg).report
}

func check(in Inputs, reg *module.Registry) checked {
	r := depgraph.NewReport("checking the validity of the system inputs:")
	steady, missingSteady := reg.Descriptors(in.SteadyStateMods)
	derivative, missingDeriv := reg.Descriptors(in.DerivativeMods)
	r.Problem("unregistered modules", append(missingSteady, missingDeriv...))
	r.Problem("derivative modules in the steady-state list", kindMismatch(steady, true))
	r.Problem("steady-state modules in the derivative list", kindMismatch(derivative, false))

	stateNames := in.InitialState.Keys()
	paramNames := in.Parameters.Keys()
	driverNames := in.Drivers.Names()
	known := concat(stateNames, paramNames, driverNames)

	if in.Reorder {
		ordered, err := depgraph.EvaluationOrder(steady)
		if err == nil {
			steady = ordered
		}
	}

	defined := depgraph.DefinedQuantityNames([][]string{stateNames, paramNames, driverNames}, steady)
	r.Problem("quantities defined more than once", depgraph.FindDuplicateQuantityDefinitions(defined))
	r.Problem("undefined module inputs", depgraph.FindUndefinedModuleInputs(known, concatDesc(steady, derivative)))
	r.Problem("derivative outputs that are not state quantities", depgraph.FindUndefinedModuleOutputs(stateNames, derivative))
	r.Problem("misordered steady-state modules", depgraph.FindMisorderedModules(known, steady))
	r.Problem("cyclic steady-state dependencies", depgraph.CycleNames(depgraph.FindCycles(steady)))

	var missingParams []string
	if !in.Parameters.Has(TimestepName) {
		missingParams = append(missingParams, TimestepName)
	}
	r.Problem("required parameters that are missing", missingParams)

	r.Info("state quantities without a derivative", depgraph.Difference(stateNames, depgraph.UniqueModuleOutputs(derivative)))
	r.Info("modules that are not adaptive compatible", depgraph.FindNonAdaptiveModules(concatDesc(steady, derivative)))

	return checked{report: r, steady: steady, derivative: derivative}
}

func kindMismatch(mods []module.Descriptor, derivative bool) []string {
	var names []string
	for _, m := range mods {
		if m.Derivative == derivative {
			names = append(names, m.Name)
		}
	}
	return names
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func concatDesc(a, b []module.Descriptor) []module.Descriptor {
	out := make([]module.Descriptor, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}
