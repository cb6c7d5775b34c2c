package integrators

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/modsim/internal/dynamo"
)

// harmonicOscillator is d2x/dt2 = -x over [0, end] with x(0) = 1.
type harmonicOscillator struct {
	end      float64
	adaptive bool
	calls    int
}

func newOscillator(end float64) *harmonicOscillator {
	return &harmonicOscillator{end: end, adaptive: true}
}

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	h.calls++
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) StateDim() int                 { return 2 }
func (h *harmonicOscillator) InitialState() dynamo.State    { return dynamo.State{1.0, 0.0} }
func (h *harmonicOscillator) TimeRange() (float64, float64) { return 0, h.end }
func (h *harmonicOscillator) AdaptiveCompatible() bool      { return h.adaptive }
func (h *harmonicOscillator) Calls() int                    { return h.calls }

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// stiffDecay is y' = -k (y - cos t), stiff for large k.
type stiffDecay struct {
	k   float64
	end float64
}

func (s *stiffDecay) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{-s.k * (x[0] - math.Cos(t))}
}

func (s *stiffDecay) StateDim() int                 { return 1 }
func (s *stiffDecay) InitialState() dynamo.State    { return dynamo.State{0} }
func (s *stiffDecay) TimeRange() (float64, float64) { return 0, s.end }
func (s *stiffDecay) AdaptiveCompatible() bool      { return true }

// analyticOscillator supplies its own Jacobian and records whether the
// caller passed the derivative along.
type analyticOscillator struct {
	*harmonicOscillator
	jacobians int
	missingF0 int
}

func (a *analyticOscillator) Jacobian(x dynamo.State, t float64, f0 dynamo.State) (*mat.Dense, dynamo.State) {
	a.jacobians++
	if f0 == nil {
		a.missingF0++
	}
	return mat.NewDense(2, 2, []float64{0, 1, -1, 0}), dynamo.State{0, 0}
}
