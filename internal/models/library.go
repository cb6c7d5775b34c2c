package models

import "github.com/san-kum/modsim/internal/module"

type definition struct {
	desc module.Descriptor
	fn   module.Func
}

func steady(name string, inputs, outputs []string, fn module.Func) definition {
	return definition{
		desc: module.Descriptor{Name: name, Inputs: inputs, Outputs: outputs, AdaptiveCompatible: true},
		fn:   fn,
	}
}

func derivative(name string, inputs, outputs []string, fn module.Func) definition {
	return definition{
		desc: module.Descriptor{Name: name, Inputs: inputs, Outputs: outputs, Derivative: true, AdaptiveCompatible: true},
		fn:   fn,
	}
}

func discrete(d definition) definition {
	d.desc.AdaptiveCompatible = false
	return d
}

func library() []definition {
	var defs []definition
	defs = append(defs, algebraModules()...)
	defs = append(defs, mechanicsModules()...)
	defs = append(defs, growthModules()...)
	defs = append(defs, leafModules()...)
	return defs
}

// Default returns a registry holding the whole built-in library.
func Default() *module.Registry {
	reg := module.NewRegistry()
	Register(reg)
	return reg
}

// Register adds the built-in library to reg.
func Register(reg *module.Registry) {
	for _, d := range library() {
		fn := d.fn
		reg.MustRegister(d.desc, func() module.Module { return fn })
	}
}
