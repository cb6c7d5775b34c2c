package integrators

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/jacobian"
)

// ROS2 coefficient.
var gamma = 1 + 1/math.Sqrt2

// Rosenbrock is the two-stage, second-order, L-stable ROS2 method with an
// embedded first-order error estimate. It needs the Jacobian of the
// system, taken from [dynamo.JacobianSystem] when available and from
// forward differences otherwise.
type Rosenbrock struct {
	safety   float64
	minScale float64
	maxScale float64

	lu mat.LU
}

func NewRosenbrock() *Rosenbrock {
	return &Rosenbrock{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 5.0,
	}
}

func (r *Rosenbrock) StepAdaptive(sys dynamo.System, x dynamo.State, t, dt float64, cfg dynamo.Config) (dynamo.State, float64, float64, error) {
	n := len(x)
	f0 := sys.Derive(x, t)
	jac, ft := jacobianOf(sys, x, t, f0)

	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, -gamma*dt*jac.At(i, j))
		}
		m.Set(i, i, 1+m.At(i, i))
	}
	r.lu.Factorize(m)

	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		rhs[i] = f0[i] + gamma*dt*ft[i]
	}
	k1, err := r.solve(rhs)
	if err != nil {
		return nil, 0, 0, err
	}

	y1 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		y1[i] = x[i] + dt*k1[i]
	}
	f1 := sys.Derive(y1, t+dt)
	for i := 0; i < n; i++ {
		rhs[i] = f1[i] - 2*k1[i] - gamma*dt*ft[i]
	}
	k2, err := r.solve(rhs)
	if err != nil {
		return nil, 0, 0, err
	}

	xNew := make(dynamo.State, n)
	errRatio := 0.0
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(1.5*k1[i]+0.5*k2[i])
		errEst := 0.5 * dt * (k1[i] + k2[i])
		scale := cfg.AdaptiveAbsTol + cfg.AdaptiveRelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		errRatio = math.Max(errRatio, math.Abs(errEst)/scale)
	}

	factor := r.maxScale
	if errRatio > 0 {
		factor = math.Min(r.maxScale, math.Max(r.minScale, r.safety/math.Sqrt(errRatio)))
	}
	return xNew, errRatio, dt * factor, nil
}

func (r *Rosenbrock) solve(b []float64) ([]float64, error) {
	if r.lu.Det() == 0 {
		return nil, dynamo.ErrSingularJacobian
	}
	x := mat.NewVecDense(len(b), nil)
	if err := r.lu.SolveVecTo(x, false, mat.NewVecDense(len(b), append([]float64(nil), b...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, dynamo.ErrSingularJacobian
		}
	}
	return x.RawVector().Data, nil
}

type derivFunc struct{ sys dynamo.System }

func (d derivFunc) Evaluate(x []float64, t float64) []float64 {
	return d.sys.Derive(x, t)
}

func jacobianOf(sys dynamo.System, x dynamo.State, t float64, f0 dynamo.State) (*mat.Dense, dynamo.State) {
	if js, ok := sys.(dynamo.JacobianSystem); ok {
		return js.Jacobian(x, t, f0)
	}
	_, end := sys.TimeRange()
	f := derivFunc{sys}
	return jacobian.Jacobian(f, x, t, f0), jacobian.TimeDerivative(f, x, t, end, f0)
}
