package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// System is a right-hand side dX/dt = f(X, t) over a bounded time range.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
	InitialState() State
	TimeRange() (start, end float64)
	AdaptiveCompatible() bool
}

// JacobianSystem is a System that provides df/dX and the explicit time
// derivative df/dt. Implicit integrators use it when available. f0 is
// Derive(x, t) when the caller already has it, or nil.
type JacobianSystem interface {
	System
	Jacobian(x State, t float64, f0 State) (*mat.Dense, State)
}

// Observer turns a state into the row recorded at an output time.
// Systems that do not implement it are recorded state-only.
type Observer interface {
	Columns() []string
	Observe(x State, t float64) []float64
}

type Config struct {
	OutputStepSize   float64 `yaml:"output_step_size" json:"output_step_size"`
	AdaptiveRelTol   float64 `yaml:"adaptive_rel_tol" json:"adaptive_rel_tol"`
	AdaptiveAbsTol   float64 `yaml:"adaptive_abs_tol" json:"adaptive_abs_tol"`
	AdaptiveMaxSteps int     `yaml:"adaptive_max_steps" json:"adaptive_max_steps"`
	ValidateState    bool    `yaml:"validate_state" json:"validate_state"`
}

func DefaultConfig() Config {
	return Config{
		OutputStepSize:   1.0,
		AdaptiveRelTol:   1e-4,
		AdaptiveAbsTol:   1e-4,
		AdaptiveMaxSteps: 200,
		ValidateState:    true,
	}
}

func (c Config) Validate() error {
	if c.OutputStepSize <= 0 {
		return fmt.Errorf("%w: output step size must be positive, got %g", ErrInvalidConfig, c.OutputStepSize)
	}
	if c.AdaptiveRelTol <= 0 || c.AdaptiveAbsTol <= 0 {
		return fmt.Errorf("%w: adaptive tolerances must be positive", ErrInvalidConfig)
	}
	if c.AdaptiveMaxSteps <= 0 {
		return fmt.Errorf("%w: adaptive max steps must be positive, got %d", ErrInvalidConfig, c.AdaptiveMaxSteps)
	}
	return nil
}

// Result holds one row per output time. Rows are parallel to Columns.
type Result struct {
	Columns     []string
	Times       []float64
	Rows        [][]float64
	StepsTaken  int
	Rejected    int
	Evaluations int
	Integrator  string
	Notes       []string
}

func NewResult(columns []string, integrator string) *Result {
	return &Result{Columns: columns, Integrator: integrator}
}

func (r *Result) Append(t float64, row []float64) {
	r.Times = append(r.Times, t)
	r.Rows = append(r.Rows, row)
}

func (r *Result) Len() int { return len(r.Rows) }

// Column returns the time series of the named column.
func (r *Result) Column(name string) ([]float64, bool) {
	for c, n := range r.Columns {
		if n != name {
			continue
		}
		out := make([]float64, len(r.Rows))
		for i, row := range r.Rows {
			out[i] = row[c]
		}
		return out, true
	}
	return nil, false
}

// Final returns the last row by column name.
func (r *Result) Final() map[string]float64 {
	out := make(map[string]float64, len(r.Columns))
	if len(r.Rows) == 0 {
		return out
	}
	last := r.Rows[len(r.Rows)-1]
	for c, n := range r.Columns {
		out[n] = last[c]
	}
	return out
}

func (r *Result) Note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}
