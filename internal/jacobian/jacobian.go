// Package jacobian approximates partial derivatives of vector functions by
// forward differences.
//
// Only forward differences are used. Central differences would double the
// number of function evaluations, and evaluating the modules dominates the
// cost of every solve.
package jacobian

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// EpsDeriv is the relative perturbation applied to each coordinate.
	EpsDeriv = 1e-7
	// MinStep is the perturbation used when a coordinate is zero.
	MinStep = 1e-10
)

// Func is a vector function of x and time.
type Func interface {
	Evaluate(x []float64, t float64) []float64
}

// FuncOf adapts a function without a time argument, such as a residual.
type FuncOf func(x []float64) []float64

func (f FuncOf) Evaluate(x []float64, _ float64) []float64 { return f(x) }

// Step returns the perturbation used for a coordinate with value v.
func Step(v float64) float64 {
	h := v * EpsDeriv
	if h == 0 {
		return MinStep
	}
	return h
}

// Jacobian returns J with J[i][j] = df_i/dx_j at (x, t). f0 may hold
// f(x, t) when the caller already has it; pass nil to evaluate it here.
// x is not modified.
func Jacobian(f Func, x []float64, t float64, f0 []float64) *mat.Dense {
	if f0 == nil {
		f0 = f.Evaluate(x, t)
	}
	n, m := len(f0), len(x)
	jac := mat.NewDense(max(n, 1), max(m, 1), nil)
	if n == 0 || m == 0 {
		return jac
	}

	xp := make([]float64, m)
	copy(xp, x)
	for j := 0; j < m; j++ {
		h := Step(x[j])
		xp[j] = x[j] + h
		// the representable step can differ from h
		h = xp[j] - x[j]
		fp := f.Evaluate(xp, t)
		for i := 0; i < n; i++ {
			jac.Set(i, j, (fp[i]-f0[i])/h)
		}
		xp[j] = x[j]
	}
	return jac
}

// TimeDerivative returns df/dt at (x, t). The perturbation goes forward in
// time unless that would pass tmax, in which case it goes backward.
func TimeDerivative(f Func, x []float64, t, tmax float64, f0 []float64) []float64 {
	if f0 == nil {
		f0 = f.Evaluate(x, t)
	}
	h := Step(t)
	if h < 0 {
		h = -h
	}
	if t+h > tmax {
		h = -h
	}
	fp := f.Evaluate(x, t+h)

	out := make([]float64, len(f0))
	for i := range f0 {
		out[i] = (fp[i] - f0[i]) / h
	}
	return out
}

// ErrSingular is returned by Solve when the matrix cannot be factorized.
var ErrSingular = errors.New("jacobian: singular matrix")

// Solve returns x with a x = b using an LU factorization of a. Ill
// conditioned systems are solved anyway; only exact singularity fails.
func Solve(a *mat.Dense, b []float64) ([]float64, error) {
	var lu mat.LU
	lu.Factorize(a)

	x := mat.NewVecDense(len(b), nil)
	if err := lu.SolveVecTo(x, false, mat.NewVecDense(len(b), append([]float64(nil), b...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}
	return x.RawVector().Data, nil
}
