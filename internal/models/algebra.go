package models

import "math"

// Small algebraic modules used by the algebra presets and composition checks.
func algebraModules() []definition {
	return []definition{
		steady("doubler", []string{"x"}, []string{"y"}, func(in, out []float64) {
			out[0] = 2 * in[0]
		}),
		steady("increment", []string{"x"}, []string{"p"}, func(in, out []float64) {
			out[0] = in[0] + 1
		}),
		steady("double_p", []string{"p"}, []string{"q"}, func(in, out []float64) {
			out[0] = 2 * in[0]
		}),
		// u = cos(u) has a single root near 0.739085.
		steady("cosine_fixed_point", []string{"u"}, []string{"u"}, func(in, out []float64) {
			out[0] = math.Cos(in[0])
		}),
	}
}
