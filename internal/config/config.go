// Package config loads run descriptions from YAML. A run is one of three
// modes: a time-stepped simulation, a simultaneous-equation solve, or a
// single pass over a module composition.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/logging"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/sesolver"
)

const (
	ModeSimulate = "simulate"
	ModeSolve    = "solve"
	ModeCompose  = "compose"

	DefaultIntegrator = "auto"
	DefaultSolver     = "newton_raphson_backtrack"
	DefaultDuration   = 10.0
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Mode    string        `yaml:"mode"`
	Seed    int64         `yaml:"seed"`
	Logging LoggingConfig `yaml:"logging"`
	// Metrics are result summaries such as "max:theta" or
	// "stable:biomass:100"; see the metrics package.
	Metrics []string `yaml:"metrics,omitempty"`

	Simulation SimulationConfig `yaml:"simulation,omitempty"`
	Solve      SolveConfig      `yaml:"solve,omitempty"`
	Compose    ComposeConfig    `yaml:"compose,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Options converts the section into logger settings. Output goes to
// stderr.
func (l LoggingConfig) Options() logging.Config {
	cfg := logging.DefaultConfig()
	if l.Level != "" {
		cfg.Level = logging.ParseLevel(l.Level)
	}
	if l.Format != "" {
		cfg.Format = l.Format
	}
	return cfg
}

type SimulationConfig struct {
	InitialState    *quantity.Map    `yaml:"initial_state,omitempty"`
	Parameters      *quantity.Map    `yaml:"parameters,omitempty"`
	Drivers         *quantity.Series `yaml:"drivers,omitempty"`
	SteadyStateMods []string         `yaml:"steady_state_modules,omitempty"`
	DerivativeMods  []string         `yaml:"derivative_modules,omitempty"`
	Reorder         bool             `yaml:"reorder,omitempty"`

	// Duration sets the time range when there are no drivers.
	Duration    float64       `yaml:"duration,omitempty"`
	Integrator  string        `yaml:"integrator"`
	Integration dynamo.Config `yaml:"integration"`

	// Sweep lists parameter overrides; each entry is one extra run.
	Sweep []*quantity.Map `yaml:"sweep,omitempty"`
}

type UnknownConfig struct {
	Name  string   `yaml:"name"`
	Guess float64  `yaml:"guess"`
	Lower *float64 `yaml:"lower,omitempty"`
	Upper *float64 `yaml:"upper,omitempty"`
}

type SolveConfig struct {
	Known           *quantity.Map   `yaml:"known,omitempty"`
	Unknowns        []UnknownConfig `yaml:"unknowns,omitempty"`
	SteadyStateMods []string        `yaml:"steady_state_modules,omitempty"`
	Solver          string          `yaml:"solver"`
	Settings        sesolver.Config `yaml:"settings"`
	Starts          int             `yaml:"starts,omitempty"`
	SortGuesses     bool            `yaml:"sort_guesses,omitempty"`
}

type ComposeConfig struct {
	Known   *quantity.Map `yaml:"known,omitempty"`
	Modules []string      `yaml:"modules,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Mode:    ModeSimulate,
		Logging: LoggingConfig{Level: "warn", Format: "text"},
		Simulation: SimulationConfig{
			Duration:    DefaultDuration,
			Integrator:  DefaultIntegrator,
			Integration: dynamo.DefaultConfig(),
		},
		Solve: SolveConfig{
			Solver:   DefaultSolver,
			Settings: sesolver.DefaultConfig(),
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML document over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the settings of the selected mode. Composition problems
// are left to the engine, which reports them all at once.
func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}

	switch c.Mode {
	case ModeSimulate:
		if c.Simulation.Drivers.Len() == 0 {
			d := c.Simulation.Duration
			if d < 0 {
				return fmt.Errorf("%w: duration must be non-negative", ErrInvalidConfig)
			}
			if d != math.Trunc(d) {
				return fmt.Errorf("%w: duration must be a whole number of time units, got %g", ErrInvalidConfig, d)
			}
		}
		return c.Simulation.Integration.Validate()
	case ModeSolve:
		if len(c.Solve.Unknowns) == 0 {
			return fmt.Errorf("%w: solve needs at least one unknown", ErrInvalidConfig)
		}
		for _, u := range c.Solve.Unknowns {
			if u.Name == "" {
				return fmt.Errorf("%w: unknown without a name", ErrInvalidConfig)
			}
		}
		if c.Solve.Starts < 0 {
			return fmt.Errorf("%w: starts must be non-negative", ErrInvalidConfig)
		}
		return c.Solve.Settings.Validate()
	case ModeCompose:
		if len(c.Compose.Modules) == 0 {
			return fmt.Errorf("%w: compose needs at least one module", ErrInvalidConfig)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
}

// TimeSeries returns the drivers, or an empty series spanning Duration
// when there are none. Validate rejects fractional durations.
func (s *SimulationConfig) TimeSeries() *quantity.Series {
	if s.Drivers.Len() > 0 {
		return s.Drivers
	}
	return quantity.NewSeries(int(s.Duration) + 1)
}

// UnknownNames returns the unknown names in declaration order.
func (s *SolveConfig) UnknownNames() []string {
	names := make([]string, len(s.Unknowns))
	for i, u := range s.Unknowns {
		names[i] = u.Name
	}
	return names
}

// Bounds returns the guesses and bounds as parallel slices. Missing
// bounds are infinite.
func (s *SolveConfig) Bounds() (guess, lower, upper []float64) {
	n := len(s.Unknowns)
	guess, lower, upper = make([]float64, n), make([]float64, n), make([]float64, n)
	for i, u := range s.Unknowns {
		guess[i] = u.Guess
		lower[i], upper[i] = math.Inf(-1), math.Inf(1)
		if u.Lower != nil {
			lower[i] = *u.Lower
		}
		if u.Upper != nil {
			upper[i] = *u.Upper
		}
	}
	return guess, lower, upper
}
