// Package sesolver finds roots of simultaneous-equation residuals inside a
// box of lower and upper bounds.
//
// Every solver reports failure as data: a Result with Success false and a
// message. Retrying from other starting points is left to the caller, see
// [MultiStart].
package sesolver

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Residual is a vector function whose root is sought.
type Residual interface {
	Evaluate(x []float64) []float64
}

// ResidualFunc adapts a plain function to Residual.
type ResidualFunc func(x []float64) []float64

func (f ResidualFunc) Evaluate(x []float64) []float64 { return f(x) }

// zeroGuard is the magnitude below which a guess counts as zero for the
// relative tolerance.
const zeroGuard = 1e-14

type Config struct {
	AbsTol        float64 `yaml:"abs_tol" json:"abs_tol"`
	RelTol        float64 `yaml:"rel_tol" json:"rel_tol"`
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"`
	// MinStepFactor is the smallest uniform rescaling of a Newton step that
	// is accepted when the step would leave the bounds.
	MinStepFactor float64 `yaml:"min_step_factor" json:"min_step_factor"`
	// Per-coordinate tolerances override AbsTol and RelTol when set.
	AbsTols []float64 `yaml:"abs_tols,omitempty" json:"abs_tols,omitempty"`
	RelTols []float64 `yaml:"rel_tols,omitempty" json:"rel_tols,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		AbsTol:        1e-6,
		RelTol:        1e-6,
		MaxIterations: 50,
		MinStepFactor: 1e-4,
	}
}

var ErrInvalidConfig = errors.New("sesolver: invalid configuration")

func (c Config) Validate() error {
	if c.AbsTol <= 0 || c.RelTol <= 0 {
		return fmt.Errorf("%w: tolerances must be positive", ErrInvalidConfig)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidConfig, c.MaxIterations)
	}
	if c.MinStepFactor < 0 || c.MinStepFactor >= 1 {
		return fmt.Errorf("%w: min step factor must be in [0, 1), got %g", ErrInvalidConfig, c.MinStepFactor)
	}
	return nil
}

func (c Config) abs(i int) float64 {
	if i < len(c.AbsTols) {
		return c.AbsTols[i]
	}
	return c.AbsTol
}

func (c Config) rel(i int) float64 {
	if i < len(c.RelTols) {
		return c.RelTols[i]
	}
	return c.RelTol
}

// converged reports whether every coordinate meets both tolerances. The
// relative test becomes absolute for guesses indistinguishable from zero.
func (c Config) converged(f, x []float64) bool {
	for i := range f {
		af := math.Abs(f[i])
		if math.IsNaN(af) || af > c.abs(i) {
			return false
		}
		scale := math.Abs(x[i])
		if scale < zeroGuard {
			scale = 1
		}
		if af/scale > c.rel(i) {
			return false
		}
	}
	return true
}

type Result struct {
	Success    bool      `json:"success"`
	Solution   []float64 `json:"solution"`
	Residual   []float64 `json:"residual"`
	Iterations int       `json:"iterations"`
	Attempts   int       `json:"attempts,omitempty"`
	Message    string    `json:"message"`
}

// Solver is one root-finding algorithm.
type Solver interface {
	Name() string
	Solve(r Residual, guess, lower, upper []float64) Result
}

type factory func(cfg Config) Solver

var registry = map[string]factory{
	"newton_raphson_backtrack": func(cfg Config) Solver { return &NewtonBacktrack{cfg: cfg} },
	"newton_raphson":           func(cfg Config) Solver { return &Newton{cfg: cfg} },
	"fixed_point":              func(cfg Config) Solver { return &FixedPoint{cfg: cfg} },
}

// New returns the named solver configured with cfg.
func New(name string, cfg Config) (Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown se solver: %s", name)
	}
	return f(cfg), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkArgs(guess, lower, upper []float64) error {
	if len(lower) != len(guess) || len(upper) != len(guess) {
		return fmt.Errorf("bounds have %d and %d entries for %d unknowns", len(lower), len(upper), len(guess))
	}
	for i := range guess {
		if lower[i] > upper[i] {
			return fmt.Errorf("lower bound %g exceeds upper bound %g for unknown %d", lower[i], upper[i], i)
		}
		if guess[i] < lower[i] || guess[i] > upper[i] {
			return fmt.Errorf("initial guess %g for unknown %d is outside [%g, %g]", guess[i], i, lower[i], upper[i])
		}
	}
	return nil
}

func clamp(x, lower, upper []float64) {
	for i := range x {
		x[i] = math.Max(lower[i], math.Min(upper[i], x[i]))
	}
}

func inBounds(x, lower, upper []float64) bool {
	for i := range x {
		if x[i] < lower[i] || x[i] > upper[i] {
			return false
		}
	}
	return true
}

func halfSquaredNorm(f []float64) float64 {
	s := 0.0
	for _, v := range f {
		s += v * v
	}
	return 0.5 * s
}

func failure(x, f []float64, iter int, format string, args ...any) Result {
	return Result{Solution: x, Residual: f, Iterations: iter, Message: fmt.Sprintf(format, args...)}
}

func success(x, f []float64, iter int, lower, upper []float64) Result {
	if !inBounds(x, lower, upper) {
		return failure(x, f, iter, "solution found outside the bounds")
	}
	return Result{Success: true, Solution: x, Residual: f, Iterations: iter, Message: "converged"}
}

// iterate runs the shared loop: evaluate, test convergence, take a step.
// step returns the next guess and its residual, or a failure message.
func iterate(cfg Config, r Residual, guess, lower, upper []float64,
	step func(x, f []float64) (xNew, fNew []float64, msg string)) Result {
	if err := checkArgs(guess, lower, upper); err != nil {
		return failure(guess, nil, 0, "%v", err)
	}

	x := append([]float64(nil), guess...)
	f := r.Evaluate(x)
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if cfg.converged(f, x) {
			return success(x, f, iter, lower, upper)
		}
		xNew, fNew, msg := step(x, f)
		if msg != "" {
			return failure(x, f, iter+1, "%s", msg)
		}
		x, f = xNew, fNew
	}
	if cfg.converged(f, x) {
		return success(x, f, cfg.MaxIterations, lower, upper)
	}
	return failure(x, f, cfg.MaxIterations, "maximum iterations (%d) reached without convergence", cfg.MaxIterations)
}
