// Package models is the built-in module library.
//
// Every module is registered under a fixed name in [Default]. Parameters a
// module needs (masses, rate constants, thresholds) are ordinary input
// quantities, so a composition supplies them as invariant parameters:
//
//	reg := models.Default()
//	sys, err := system.New(system.Inputs{
//	    InitialState:   quantity.Of("theta", 0.5, "omega", 0),
//	    Parameters:     quantity.Of("timestep", 0.01, "mass", 1, "length", 1, "damping", 0.1, "gravity", 9.81),
//	    Drivers:        quantity.NewSeries(1001),
//	    DerivativeMods: []string{"pendulum"},
//	}, reg)
//
// Modules that switch discretely between regimes are registered with
// AdaptiveCompatible set to false.
package models
