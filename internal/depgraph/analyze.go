// Package depgraph analyzes module compositions: which quantities they
// define and require, whether a list of modules is complete and correctly
// ordered, and in which order the modules can be evaluated.
//
// Every function is a pure function of module descriptors. Problems are
// returned as lists of offending names so callers can aggregate them into a
// [Report] instead of failing on the first one.
package depgraph

import (
	"sort"

	"github.com/san-kum/modsim/internal/module"
)

// DefinedQuantityNames returns every name defined by the known quantity
// lists and by the outputs of mods, in order and with repetitions.
func DefinedQuantityNames(known [][]string, mods []module.Descriptor) []string {
	var names []string
	for _, k := range known {
		names = append(names, k...)
	}
	for _, m := range mods {
		names = append(names, m.Outputs...)
	}
	return names
}

// FindDuplicateQuantityDefinitions returns each name that occurs more than
// once in names, in the order its second occurrence is seen.
func FindDuplicateQuantityDefinitions(names []string) []string {
	seen := make(map[string]int, len(names))
	var dups []string
	for _, n := range names {
		seen[n]++
		if seen[n] == 2 {
			dups = append(dups, n)
		}
	}
	return dups
}

// UniqueModuleInputs returns the inputs of mods without repetitions, in
// first-seen order.
func UniqueModuleInputs(mods []module.Descriptor) []string {
	return unique(mods, func(d module.Descriptor) []string { return d.Inputs })
}

// UniqueModuleOutputs returns the outputs of mods without repetitions, in
// first-seen order.
func UniqueModuleOutputs(mods []module.Descriptor) []string {
	return unique(mods, func(d module.Descriptor) []string { return d.Outputs })
}

func unique(mods []module.Descriptor, names func(module.Descriptor) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range mods {
		for _, n := range names(m) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func set(lists ...[]string) map[string]bool {
	s := make(map[string]bool)
	for _, l := range lists {
		for _, n := range l {
			s[n] = true
		}
	}
	return s
}

// FindUndefinedModuleInputs returns the inputs of mods that are neither in
// known nor produced by any module of mods.
func FindUndefinedModuleInputs(known []string, mods []module.Descriptor) []string {
	defined := set(known, UniqueModuleOutputs(mods))
	var missing []string
	for _, in := range UniqueModuleInputs(mods) {
		if !defined[in] {
			missing = append(missing, in)
		}
	}
	return missing
}

// FindUndefinedModuleOutputs returns the outputs of derivative modules that
// are not state quantities. A rate for a quantity with no state cannot be
// integrated.
func FindUndefinedModuleOutputs(state []string, derivative []module.Descriptor) []string {
	states := set(state)
	var missing []string
	for _, out := range UniqueModuleOutputs(derivative) {
		if !states[out] {
			missing = append(missing, out)
		}
	}
	return missing
}

// FindMisorderedModules returns the modules that consume a quantity which
// is produced somewhere in mods but is not yet available when the module
// runs: it is neither known nor an output of a strictly earlier module.
// Inputs that nothing defines are left to [FindUndefinedModuleInputs].
func FindMisorderedModules(known []string, mods []module.Descriptor) []string {
	available := set(known)
	produced := set(UniqueModuleOutputs(mods))
	var misordered []string
	for _, m := range mods {
		for _, in := range m.Inputs {
			if !available[in] && produced[in] {
				misordered = append(misordered, m.Name)
				break
			}
		}
		for _, out := range m.Outputs {
			available[out] = true
		}
	}
	return misordered
}

// UnknownQuantities returns the quantities that are both an input and an
// output of mods, sorted by name. These have to be solved for
// simultaneously.
func UnknownQuantities(mods []module.Descriptor) []string {
	outputs := set(UniqueModuleOutputs(mods))
	var unknowns []string
	for _, in := range UniqueModuleInputs(mods) {
		if outputs[in] {
			unknowns = append(unknowns, in)
		}
	}
	sort.Strings(unknowns)
	return unknowns
}

// FindNonAdaptiveModules returns the modules that are unsafe under variable
// step sizes.
func FindNonAdaptiveModules(mods []module.Descriptor) []string {
	var names []string
	for _, m := range mods {
		if !m.AdaptiveCompatible {
			names = append(names, m.Name)
		}
	}
	return names
}

// Difference returns the entries of a that are not in b, in the order of a.
func Difference(a, b []string) []string {
	in := set(b)
	var out []string
	for _, n := range a {
		if !in[n] {
			out = append(out, n)
		}
	}
	return out
}
