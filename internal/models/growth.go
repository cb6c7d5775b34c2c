package models

import "math"

// Crop-style growth processes driven by air temperature.
func growthModules() []definition {
	return []definition{
		steady("thermal_growth_rate",
			[]string{"temp", "tbase", "rate_per_degree"},
			[]string{"growth_rate"},
			func(in, out []float64) {
				out[0] = math.Max(0, in[0]-in[1]) * in[2]
			}),
		derivative("thermal_time",
			[]string{"temp", "tbase"},
			[]string{"TTc"},
			func(in, out []float64) {
				out[0] = math.Max(0, in[0]-in[1]) / 24
			}),
		derivative("logistic_growth",
			[]string{"biomass", "growth_rate", "carrying_capacity"},
			[]string{"biomass"},
			func(in, out []float64) {
				b, r, k := in[0], in[1], in[2]
				out[0] = r * b * (1 - b/k)
			}),
		derivative("biomass_senescence",
			[]string{"biomass", "senescence_rate"},
			[]string{"biomass"},
			func(in, out []float64) {
				out[0] = -in[1] * in[0]
			}),
		derivative("exponential_decay",
			[]string{"pool", "decay_rate"},
			[]string{"pool"},
			func(in, out []float64) {
				out[0] = -in[1] * in[0]
			}),
		discrete(steady("development_stage",
			[]string{"TTc", "stage_threshold"},
			[]string{"stage"},
			func(in, out []float64) {
				if in[0] >= in[1] {
					out[0] = 1
				}
			})),
	}
}
