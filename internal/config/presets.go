package config

import (
	"sort"

	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/sesolver"
)

func bound(v float64) *float64 { return &v }

func simulation(sim SimulationConfig) *Config {
	cfg := DefaultConfig()
	if sim.Integrator == "" {
		sim.Integrator = DefaultIntegrator
	}
	if sim.Integration == (dynamo.Config{}) {
		sim.Integration = dynamo.DefaultConfig()
	}
	cfg.Simulation = sim
	return cfg
}

func solve(s SolveConfig) *Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeSolve
	if s.Solver == "" {
		s.Solver = DefaultSolver
	}
	s.Settings = sesolver.DefaultConfig()
	cfg.Solve = s
	return cfg
}

func compose(known *quantity.Map, mods ...string) *Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeCompose
	cfg.Compose = ComposeConfig{Known: known, Modules: mods}
	return cfg
}

func temperatures(values ...float64) *quantity.Series {
	s := quantity.NewSeries(len(values))
	if err := s.AddColumn("temp", values); err != nil {
		panic(err)
	}
	return s
}

// Presets are built on demand so callers may modify what they get.
var Presets = map[string]map[string]func() *Config{
	"pendulum": {
		"small": func() *Config {
			return simulation(SimulationConfig{
				InitialState:   quantity.Of("theta", 0.2, "omega", 0),
				Parameters:     quantity.Of("timestep", 0.1, "mass", 1, "length", 1, "damping", 0, "gravity", 9.81),
				DerivativeMods: []string{"pendulum"},
				Duration:       200,
			})
		},
		"large": func() *Config {
			return simulation(SimulationConfig{
				InitialState:   quantity.Of("theta", 2.5, "omega", 0),
				Parameters:     quantity.Of("timestep", 0.1, "mass", 1, "length", 1, "damping", 0.1, "gravity", 9.81),
				DerivativeMods: []string{"pendulum"},
				Duration:       300,
				Integrator:     "rk4",
			})
		},
	},
	"spring_mass": {
		"bounce": func() *Config {
			return simulation(SimulationConfig{
				InitialState:    quantity.Of("position", 2, "velocity", 0),
				Parameters:      quantity.Of("timestep", 0.05, "mass", 1, "stiffness", 4, "damping", 0.1),
				SteadyStateMods: []string{"mechanical_energy"},
				DerivativeMods:  []string{"spring_mass"},
				Duration:        400,
			})
		},
		"forced": func() *Config {
			return simulation(SimulationConfig{
				InitialState:    quantity.Of("position", 0, "velocity", 0),
				Parameters:      quantity.Of("timestep", 0.05, "mass", 1, "stiffness", 4, "damping", 0.5, "force", 1),
				SteadyStateMods: []string{"mechanical_energy"},
				DerivativeMods:  []string{"spring_mass", "spring_forcing"},
				Duration:        400,
			})
		},
	},
	"growth": {
		"season": func() *Config {
			return simulation(SimulationConfig{
				InitialState: quantity.Of("biomass", 1, "TTc", 0),
				Parameters: quantity.Of(
					"timestep", 1,
					"tbase", 8,
					"rate_per_degree", 0.01,
					"carrying_capacity", 100,
					"senescence_rate", 0.01,
					"stage_threshold", 2,
				),
				Drivers:         temperatures(12, 14, 17, 20, 23, 25, 26, 25, 22, 18, 15, 12),
				SteadyStateMods: []string{"thermal_growth_rate", "development_stage"},
				DerivativeMods:  []string{"logistic_growth", "biomass_senescence", "thermal_time"},
			})
		},
		"decay": func() *Config {
			return simulation(SimulationConfig{
				InitialState:   quantity.Of("pool", 100),
				Parameters:     quantity.Of("timestep", 1, "decay_rate", 0.1),
				DerivativeMods: []string{"exponential_decay"},
				Duration:       30,
				Integrator:     "rk45",
				Sweep: []*quantity.Map{
					quantity.Of("decay_rate", 0.05),
					quantity.Of("decay_rate", 0.2),
				},
			})
		},
	},
	"cosine": {
		"fixed_point": func() *Config {
			return solve(SolveConfig{
				Known:           quantity.New(),
				Unknowns:        []UnknownConfig{{Name: "u", Guess: 0.5, Lower: bound(0), Upper: bound(1)}},
				SteadyStateMods: []string{"cosine_fixed_point"},
			})
		},
	},
	"leaf": {
		"balance": func() *Config {
			return solve(SolveConfig{
				Known: quantity.Of("air_temperature", 25, "absorbed_radiation", 500, "conductance", 1),
				Unknowns: []UnknownConfig{
					{Name: "leaf_temperature", Guess: 25, Lower: bound(-50), Upper: bound(80)},
					{Name: "transpiration", Guess: 1, Lower: bound(0)},
				},
				SteadyStateMods: []string{"leaf_energy_balance", "leaf_transpiration"},
				Starts:          4,
				SortGuesses:     true,
			})
		},
	},
	"algebra": {
		"doubler": func() *Config {
			return compose(quantity.Of("x", 3), "doubler")
		},
		"chain": func() *Config {
			return compose(quantity.Of("x", 1), "increment", "double_p")
		},
	},
}

func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	build, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
