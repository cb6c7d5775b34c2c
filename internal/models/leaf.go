package models

import "math"

// Leaf temperature and transpiration depend on each other; together they
// form a two-unknown simultaneous system.
func leafModules() []definition {
	return []definition{
		steady("leaf_energy_balance",
			[]string{"air_temperature", "absorbed_radiation", "transpiration"},
			[]string{"leaf_temperature"},
			func(in, out []float64) {
				out[0] = in[0] + 0.01*in[1] - 0.5*in[2]
			}),
		steady("leaf_transpiration",
			[]string{"leaf_temperature", "conductance"},
			[]string{"transpiration"},
			func(in, out []float64) {
				out[0] = in[1] * math.Exp(0.06*(in[0]-25))
			}),
	}
}
