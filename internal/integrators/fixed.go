package integrators

import "github.com/san-kum/modsim/internal/dynamo"

// Fixed integrates with one step per output interval.
type Fixed struct {
	name    string
	stepper Stepper
	cfg     dynamo.Config
}

func NewFixed(name string, s Stepper, cfg dynamo.Config) *Fixed {
	return &Fixed{name: name, stepper: s, cfg: cfg}
}

func (f *Fixed) Name() string                     { return f.name }
func (f *Fixed) RequiresAdaptiveCompatible() bool { return false }

func (f *Fixed) Integrate(sys dynamo.System) (*dynamo.Result, error) {
	x, err := checkInitial(sys)
	if err != nil {
		return nil, err
	}

	start, end := sys.TimeRange()
	times := outputTimes(start, end, f.cfg.OutputStepSize)
	res := dynamo.NewResult(columns(sys), f.name)
	observe(sys, res, x, times[0])

	for i := 1; i < len(times); i++ {
		t, dt := times[i-1], times[i]-times[i-1]
		newX := f.stepper.Step(sys, x, t, dt)

		if f.cfg.ValidateState && !newX.IsValid() {
			finish(sys, res)
			return res, &dynamo.SimulationError{Step: i, Time: t, State: x, Wrapped: dynamo.ErrInvalidState}
		}

		x = newX
		res.StepsTaken++
		observe(sys, res, x, times[i])
		if err := interrupted(sys); err != nil {
			finish(sys, res)
			return res, &dynamo.SimulationError{Step: i, Time: times[i], State: x, Wrapped: err}
		}
	}

	finish(sys, res)
	return res, nil
}
