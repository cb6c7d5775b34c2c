package jacobian_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modsim/internal/jacobian"
)

type quadratic struct{ calls int }

// f(x, t) = (x0^2 + x1, 3 x1 + t^2)
func (q *quadratic) Evaluate(x []float64, t float64) []float64 {
	q.calls++
	return []float64{x[0]*x[0] + x[1], 3*x[1] + t*t}
}

// TestJacobian compares forward differences against the analytic partials.
func TestJacobian(t *testing.T) {
	f := &quadratic{}
	x := []float64{2, 0}
	jac := jacobian.Jacobian(f, x, 1, nil)

	assert.InDelta(t, 4, jac.At(0, 0), 1e-5)
	assert.InDelta(t, 1, jac.At(0, 1), 1e-5)
	assert.InDelta(t, 0, jac.At(1, 0), 1e-5)
	assert.InDelta(t, 3, jac.At(1, 1), 1e-5)
	assert.Equal(t, []float64{2, 0}, x)
	assert.Equal(t, 3, f.calls)
}

// TestTimeDerivative goes backward at the end of the time range.
func TestTimeDerivative(t *testing.T) {
	f := &quadratic{}
	x := []float64{1, 1}

	dt := jacobian.TimeDerivative(f, x, 2, 10, nil)
	assert.InDelta(t, 0, dt[0], 1e-6)
	assert.InDelta(t, 4, dt[1], 1e-5)

	dt = jacobian.TimeDerivative(f, x, 10, 10, nil)
	assert.InDelta(t, 20, dt[1], 1e-4)
}

// TestFuncOf wraps a residual with no time dependence.
func TestFuncOf(t *testing.T) {
	f := jacobian.FuncOf(func(x []float64) []float64 { return []float64{math.Sin(x[0])} })
	jac := jacobian.Jacobian(f, []float64{0}, 0, nil)
	assert.InDelta(t, 1, jac.At(0, 0), 1e-6)
	assert.Equal(t, jacobian.MinStep, jacobian.Step(0))
}

// TestSolve solves a small system and rejects a singular one.
func TestSolve(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{2, 1, 1, 3})
	x, err := jacobian.Solve(a, []float64{3, 5})
	assert.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.8, 1.4}, x, 1e-12)

	_, err = jacobian.Solve(mat.NewDense(2, 2, []float64{1, 2, 2, 4}), []float64{1, 1})
	assert.ErrorIs(t, err, jacobian.ErrSingular)
}
