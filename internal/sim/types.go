package sim

import (
	"math/rand"

	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/sesolver"
	"github.com/san-kum/modsim/internal/system"
)

// SimulationInput describes a time-stepped run.
type SimulationInput struct {
	InitialState    *quantity.Map
	Parameters      *quantity.Map
	Drivers         *quantity.Series
	SteadyStateMods []string
	DerivativeMods  []string
	Reorder         bool

	Integrator string
	Config     dynamo.Config
}

func (in SimulationInput) systemInputs() system.Inputs {
	return system.Inputs{
		InitialState:    in.InitialState,
		Parameters:      in.Parameters,
		Drivers:         in.Drivers,
		SteadyStateMods: in.SteadyStateMods,
		DerivativeMods:  in.DerivativeMods,
		Reorder:         in.Reorder,
	}
}

// SolveInput describes a simultaneous-equation solve. Guess, Lower and
// Upper are parallel to Unknowns; nil bounds are infinite.
type SolveInput struct {
	Known           *quantity.Map
	Unknowns        []string
	SteadyStateMods []string
	Guess           []float64
	Lower           []float64
	Upper           []float64

	Solver string
	Config sesolver.Config

	// Starts above one adds random guesses around Guess drawn from Rand.
	Starts int
	Rand   *rand.Rand
	// SortGuesses orders the guesses by residual norm before solving.
	SortGuesses bool
}

type SolveOutput struct {
	Success bool
	// Unknowns holds the final guess by name.
	Unknowns *quantity.Map
	// Outputs holds every module output at the final guess.
	Outputs *quantity.Map
	Result  sesolver.Result
	Calls   int
}
