package sesolver

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modsim/internal/jacobian"
)

// Line search constants.
const (
	alf  = 1e-4 // sufficient decrease fraction
	tolX = 1e-7 // smallest relative step before giving up
)

// NewtonBacktrack takes Newton steps shortened by a backtracking line
// search on f = |F|^2 / 2. Steps that would leave the bounds are first
// scaled down uniformly.
type NewtonBacktrack struct {
	cfg Config
}

func (n *NewtonBacktrack) Name() string { return "newton_raphson_backtrack" }

func (n *NewtonBacktrack) Solve(r Residual, guess, lower, upper []float64) Result {
	return iterate(n.cfg, r, guess, lower, upper, func(x, f []float64) ([]float64, []float64, string) {
		jac := jacobian.Jacobian(jacobian.FuncOf(r.Evaluate), x, 0, f)
		dx, err := newtonStep(jac, f)
		if err != nil {
			return nil, nil, "singular jacobian"
		}

		factor := boundsFactor(x, dx, lower, upper)
		if factor < n.cfg.MinStepFactor {
			return nil, nil, "newton step cannot be kept inside the bounds"
		}
		for i := range dx {
			dx[i] *= factor
		}

		return lineSearch(r, x, f, jac, dx, lower, upper)
	})
}

// Newton takes full Newton steps and clamps the result to the bounds.
type Newton struct {
	cfg Config
}

func (n *Newton) Name() string { return "newton_raphson" }

func (n *Newton) Solve(r Residual, guess, lower, upper []float64) Result {
	return iterate(n.cfg, r, guess, lower, upper, func(x, f []float64) ([]float64, []float64, string) {
		jac := jacobian.Jacobian(jacobian.FuncOf(r.Evaluate), x, 0, f)
		dx, err := newtonStep(jac, f)
		if err != nil {
			return nil, nil, "singular jacobian"
		}

		xNew := make([]float64, len(x))
		for i := range x {
			xNew[i] = x[i] + dx[i]
		}
		clamp(xNew, lower, upper)
		return xNew, r.Evaluate(xNew), ""
	})
}

// newtonStep solves J dx = -F.
func newtonStep(jac *mat.Dense, f []float64) ([]float64, error) {
	neg := make([]float64, len(f))
	for i, v := range f {
		neg[i] = -v
	}
	return jacobian.Solve(jac, neg)
}

// boundsFactor is the largest factor in [0, 1] that keeps x + factor*dx
// inside the bounds. It never divides by zero: a coordinate only limits
// the factor when it moves toward the bound it would cross.
func boundsFactor(x, dx, lower, upper []float64) float64 {
	factor := 1.0
	for i := range x {
		switch {
		case dx[i] > 0 && x[i]+dx[i] > upper[i]:
			factor = math.Min(factor, (upper[i]-x[i])/dx[i])
		case dx[i] < 0 && x[i]+dx[i] < lower[i]:
			factor = math.Min(factor, (lower[i]-x[i])/dx[i])
		}
	}
	return math.Max(factor, 0)
}

// lineSearch finds a step length lambda in (0, 1] along dx that gives a
// sufficient decrease of f = |F|^2 / 2, modelling f(lambda) by a quadratic
// on the first backtrack and a cubic afterwards.
func lineSearch(r Residual, x, f []float64, jac *mat.Dense, dx, lower, upper []float64) ([]float64, []float64, string) {
	n := len(x)
	fold := halfSquaredNorm(f)

	// slope = grad(f) . dx with grad(f) = J^T F
	slope := 0.0
	for j := 0; j < n; j++ {
		g := 0.0
		for i := range f {
			g += jac.At(i, j) * f[i]
		}
		slope += g * dx[j]
	}
	if slope >= 0 {
		return nil, nil, "roundoff problem in line search"
	}

	test := 0.0
	for i := range x {
		test = math.Max(test, math.Abs(dx[i])/math.Max(math.Abs(x[i]), 1))
	}
	alamin := tolX / test

	xNew := make([]float64, n)
	alam, alam2, f2 := 1.0, 0.0, 0.0
	for {
		if alam < alamin {
			return nil, nil, "line search step below minimum, possible local minimum"
		}

		for i := range x {
			xNew[i] = x[i] + alam*dx[i]
		}
		clamp(xNew, lower, upper)
		fNew := r.Evaluate(xNew)
		fval := halfSquaredNorm(fNew)

		if math.IsNaN(fval) || math.IsInf(fval, 0) {
			alam *= 0.5
			continue
		}
		if fval <= fold+alf*alam*slope {
			return xNew, fNew, ""
		}

		var tmplam float64
		if alam == 1 {
			tmplam = -slope / (2 * (fval - fold - slope))
		} else {
			rhs1 := fval - fold - alam*slope
			rhs2 := f2 - fold - alam2*slope
			a := (rhs1/(alam*alam) - rhs2/(alam2*alam2)) / (alam - alam2)
			b := (-alam2*rhs1/(alam*alam) + alam*rhs2/(alam2*alam2)) / (alam - alam2)
			if a == 0 {
				tmplam = -slope / (2 * b)
			} else {
				disc := b*b - 3*a*slope
				switch {
				case disc < 0:
					tmplam = 0.5 * alam
				case b <= 0:
					tmplam = (-b + math.Sqrt(disc)) / (3 * a)
				default:
					tmplam = -slope / (b + math.Sqrt(disc))
				}
			}
			tmplam = math.Min(tmplam, 0.5*alam)
		}

		alam2, f2 = alam, fval
		if math.IsNaN(tmplam) {
			tmplam = 0.5 * alam
		}
		alam = math.Max(tmplam, 0.1*alam)
	}
}
