package integrators

import (
	"math"

	"github.com/san-kum/modsim/internal/dynamo"
)

// Adaptive integrates with variable sub-steps between output times. The
// step budget applies to each output interval separately.
type Adaptive struct {
	name    string
	stepper AdaptiveStepper
	cfg     dynamo.Config
}

func NewAdaptive(name string, s AdaptiveStepper, cfg dynamo.Config) *Adaptive {
	return &Adaptive{name: name, stepper: s, cfg: cfg}
}

func (a *Adaptive) Name() string                     { return a.name }
func (a *Adaptive) RequiresAdaptiveCompatible() bool { return true }

func (a *Adaptive) Integrate(sys dynamo.System) (*dynamo.Result, error) {
	if !sys.AdaptiveCompatible() {
		return nil, dynamo.ErrNotAdaptiveCompatible
	}
	x, err := checkInitial(sys)
	if err != nil {
		return nil, err
	}

	start, end := sys.TimeRange()
	times := outputTimes(start, end, a.cfg.OutputStepSize)
	res := dynamo.NewResult(columns(sys), a.name)
	observe(sys, res, x, times[0])

	dt := a.cfg.OutputStepSize
	step := 0
	for k := 1; k < len(times); k++ {
		t, target := times[k-1], times[k]
		attempts := 0

		for !reached(t, target) {
			if attempts >= a.cfg.AdaptiveMaxSteps {
				finish(sys, res)
				return res, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: dynamo.ErrMaxSteps}
			}
			h := math.Min(dt, target-t)
			if h < minStep(t) {
				finish(sys, res)
				return res, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: dynamo.ErrStepTooSmall}
			}

			xNew, ratio, dtNew, err := a.stepper.StepAdaptive(sys, x, t, h, a.cfg)
			if err != nil {
				finish(sys, res)
				return res, &dynamo.SimulationError{Step: step, Time: t, State: x, Wrapped: err}
			}
			attempts++

			if math.IsNaN(ratio) || !xNew.IsValid() {
				res.Rejected++
				dt = h * 0.2
				continue
			}
			if ratio > 1 {
				res.Rejected++
				dt = dtNew
				continue
			}

			x = xNew
			t += h
			step++
			res.StepsTaken++
			if !math.IsInf(dtNew, 0) && dtNew > 0 {
				dt = dtNew
			}
		}
		observe(sys, res, x, target)
		if err := interrupted(sys); err != nil {
			finish(sys, res)
			return res, &dynamo.SimulationError{Step: step, Time: target, State: x, Wrapped: err}
		}
	}

	finish(sys, res)
	return res, nil
}

func reached(t, target float64) bool {
	return target-t <= 1e-12*math.Max(1, math.Abs(target))
}

func minStep(t float64) float64 {
	return 1e-12 * math.Max(1, math.Abs(t))
}

func finish(sys dynamo.System, res *dynamo.Result) {
	if c, ok := sys.(interface{ Calls() int }); ok {
		res.Evaluations = c.Calls()
	}
}
