// Package module defines the unit of composition: a module reads a fixed,
// declared list of input quantities and writes a fixed list of outputs.
//
// Modules never see the engine's storage. An engine binds each module to
// slot indices in a [quantity.Table] it owns and calls [Instance.Run] or
// [Instance.Accumulate]; the instance gathers the input values, runs the
// module and scatters the outputs back into the table.
package module

import (
	"github.com/san-kum/modsim/internal/quantity"
)

// Descriptor is the static metadata of a module. It can be queried from a
// [Registry] without instantiating the module.
type Descriptor struct {
	Name    string   `json:"name" yaml:"name"`
	Inputs  []string `json:"inputs" yaml:"inputs"`
	Outputs []string `json:"outputs" yaml:"outputs"`
	// Derivative modules produce rates of change of state quantities.
	Derivative bool `json:"derivative" yaml:"derivative"`
	// AdaptiveCompatible is false for modules that are unsafe under
	// variable step sizes (discrete switches, step-size dependent rules).
	AdaptiveCompatible bool `json:"adaptive_compatible" yaml:"adaptive_compatible"`
}

// Module computes outputs from inputs. in and out are parallel to the
// Inputs and Outputs of the module's Descriptor.
type Module interface {
	Run(in, out []float64)
}

// Func adapts a plain function to the Module interface.
type Func func(in, out []float64)

func (f Func) Run(in, out []float64) { f(in, out) }

// Instance is a module bound to slot indices of an engine-owned table.
type Instance struct {
	desc    Descriptor
	mod     Module
	table   *quantity.Table
	inSlot  []int
	outSlot []int
	in      []float64
	out     []float64
}

// Bind resolves every input and output name of desc to a slot of t.
func Bind(desc Descriptor, m Module, t *quantity.Table, input, output func(name string) int) *Instance {
	inst := &Instance{
		desc:    desc,
		mod:     m,
		table:   t,
		inSlot:  make([]int, len(desc.Inputs)),
		outSlot: make([]int, len(desc.Outputs)),
		in:      make([]float64, len(desc.Inputs)),
		out:     make([]float64, len(desc.Outputs)),
	}
	for i, name := range desc.Inputs {
		inst.inSlot[i] = input(name)
	}
	for i, name := range desc.Outputs {
		inst.outSlot[i] = output(name)
	}
	return inst
}

func (i *Instance) Descriptor() Descriptor { return i.desc }

func (i *Instance) compute() {
	for k, s := range i.inSlot {
		i.in[k] = i.table.Get(s)
	}
	for k := range i.out {
		i.out[k] = 0
	}
	i.mod.Run(i.in, i.out)
}

// Run evaluates the module and overwrites its output slots.
func (i *Instance) Run() {
	i.compute()
	for k, s := range i.outSlot {
		i.table.Set(s, i.out[k])
	}
}

// Accumulate evaluates the module and adds its outputs to the output slots.
func (i *Instance) Accumulate() {
	i.compute()
	for k, s := range i.outSlot {
		i.table.Accumulate(s, i.out[k])
	}
}
