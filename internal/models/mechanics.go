package models

import "math"

func mechanicsModules() []definition {
	return []definition{
		derivative("pendulum",
			[]string{"theta", "omega", "mass", "length", "damping", "gravity"},
			[]string{"theta", "omega"},
			pendulum),
		derivative("spring_mass",
			[]string{"position", "velocity", "mass", "stiffness", "damping"},
			[]string{"position", "velocity"},
			springMass),
		// External forcing is a separate process contributing to velocity.
		derivative("spring_forcing",
			[]string{"force", "mass"},
			[]string{"velocity"},
			func(in, out []float64) {
				out[0] = in[0] / in[1]
			}),
		steady("mechanical_energy",
			[]string{"position", "velocity", "mass", "stiffness"},
			[]string{"kinetic_energy", "potential_energy", "total_energy"},
			func(in, out []float64) {
				x, v, m, k := in[0], in[1], in[2], in[3]
				out[0] = 0.5 * m * v * v
				out[1] = 0.5 * k * x * x
				out[2] = out[0] + out[1]
			}),
	}
}

func pendulum(in, out []float64) {
	theta, omega := in[0], in[1]
	mass, length, damping, gravity := in[2], in[3], in[4], in[5]

	alpha := (-damping*omega - mass*gravity*length*math.Sin(theta)) / (mass * length * length)

	out[0] = omega
	out[1] = alpha
}

func springMass(in, out []float64) {
	x, v := in[0], in[1]
	mass, stiffness, damping := in[2], in[3], in[4]

	out[0] = v
	out[1] = (-stiffness*x - damping*v) / mass
}
