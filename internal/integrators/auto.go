package integrators

import (
	"fmt"

	"github.com/san-kum/modsim/internal/dynamo"
)

// Auto picks the adaptive rosenbrock integrator when every module of the
// system tolerates variable step sizes and falls back to fixed-step euler
// otherwise.
type Auto struct {
	adaptive Integrator
	fallback Integrator
	path     string
}

func NewAuto(cfg dynamo.Config) *Auto {
	return &Auto{
		adaptive: NewAdaptive("rosenbrock", NewRosenbrock(), cfg),
		fallback: NewFixed("euler", NewEuler(), cfg),
	}
}

func (a *Auto) Name() string                     { return "auto" }
func (a *Auto) RequiresAdaptiveCompatible() bool { return false }

// Report describes which integrator the last run used.
func (a *Auto) Report() string { return a.path }

func (a *Auto) Integrate(sys dynamo.System) (*dynamo.Result, error) {
	chosen := a.fallback
	if sys.AdaptiveCompatible() {
		chosen = a.adaptive
		a.path = fmt.Sprintf("auto: system is adaptive compatible, using %s", chosen.Name())
	} else {
		a.path = fmt.Sprintf("auto: system is not adaptive compatible, using %s", chosen.Name())
	}

	res, err := chosen.Integrate(sys)
	if res != nil {
		res.Integrator = a.Name() + "/" + chosen.Name()
		res.Note("%s", a.path)
	}
	return res, err
}
