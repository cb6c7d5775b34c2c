package system_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/models"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/system"
)

func growthInputs(t *testing.T) system.Inputs {
	t.Helper()
	drivers := quantity.NewSeries(3)
	require.NoError(t, drivers.AddColumn("temp", []float64{10, 20, 30}))
	return system.Inputs{
		InitialState: quantity.Of("biomass", 2, "TTc", 0),
		Parameters: quantity.Of(
			"timestep", 1,
			"tbase", 5,
			"rate_per_degree", 0.01,
			"carrying_capacity", 10,
			"senescence_rate", 0.02,
		),
		Drivers:         drivers,
		SteadyStateMods: []string{"thermal_growth_rate"},
		DerivativeMods:  []string{"logistic_growth", "biomass_senescence", "thermal_time"},
	}
}

// TestDerive_SumsContributions checks that two derivative modules add into one rate.
func TestDerive_SumsContributions(t *testing.T) {
	sys, err := system.New(growthInputs(t), models.Default())
	require.NoError(t, err)

	d := sys.Derive(dynamo.State{2, 0}, 1)
	r := (20.0 - 5) * 0.01
	assert.InDelta(t, r*2*(1-2.0/10)-0.02*2, d[0], 1e-12)
	assert.InDelta(t, 15.0/24, d[1], 1e-12)
}

// TestDerive_InterpolatesDrivers evaluates between two driver rows.
func TestDerive_InterpolatesDrivers(t *testing.T) {
	sys, err := system.New(growthInputs(t), models.Default())
	require.NoError(t, err)

	d := sys.Derive(dynamo.State{2, 0}, 0.5)
	assert.InDelta(t, (15.0-5)/24, d[1], 1e-12)

	start, end := sys.TimeRange()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 2.0, end)
}

// TestDerive_TimestepScaling doubles every rate when the timestep doubles.
func TestDerive_TimestepScaling(t *testing.T) {
	in := system.Inputs{
		InitialState:   quantity.Of("pool", 4),
		Parameters:     quantity.Of("timestep", 2, "decay_rate", 0.5),
		DerivativeMods: []string{"exponential_decay"},
	}
	sys, err := system.New(in, models.Default())
	require.NoError(t, err)

	assert.Equal(t, dynamo.State{-4}, sys.Derive(sys.InitialState(), 0))

	jac, dt := sys.Jacobian(sys.InitialState(), 0, nil)
	assert.InDelta(t, -1.0, jac.At(0, 0), 1e-6)
	assert.InDelta(t, 0, dt[0], 1e-9)
}

// TestJacobian_ReusesDerivative passes the known derivative and expects one
// evaluation per state plus one for the time derivative.
func TestJacobian_ReusesDerivative(t *testing.T) {
	sys, err := system.New(growthInputs(t), models.Default())
	require.NoError(t, err)

	x := dynamo.State{2, 0}
	f0 := sys.Derive(x, 1)
	before := sys.Calls()

	withF0, dtWith := sys.Jacobian(x, 1, f0)
	assert.Equal(t, sys.StateDim()+1, sys.Calls()-before)

	before = sys.Calls()
	without, dtWithout := sys.Jacobian(x, 1, nil)
	assert.Equal(t, sys.StateDim()+2, sys.Calls()-before)

	assert.Equal(t, withF0.RawMatrix().Data, without.RawMatrix().Data)
	assert.Equal(t, dtWith, dtWithout)
}

// TestDerive_Deterministic evaluates twice and expects identical vectors.
func TestDerive_Deterministic(t *testing.T) {
	sys, err := system.New(growthInputs(t), models.Default())
	require.NoError(t, err)

	x := dynamo.State{3.5, 1.25}
	first := sys.Derive(x, 1.3)
	second := sys.Derive(x, 1.3)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, sys.Calls())
}

// TestObserve lists state, drivers and steady-state outputs.
func TestObserve(t *testing.T) {
	sys, err := system.New(growthInputs(t), models.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{"biomass", "TTc", "temp", "growth_rate"}, sys.Columns())
	assert.InDeltaSlice(t, []float64{2, 0, 30, 0.25}, sys.Observe(dynamo.State{2, 0}, 2), 1e-12)

	snap := sys.Snapshot(dynamo.State{2, 0}, 2)
	v, ok := snap.Get("carrying_capacity")
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)
	assert.True(t, sys.AdaptiveCompatible())
}

func TestNew_ValidationErrors(t *testing.T) {
	reg := models.Default()

	tests := []struct {
		name    string
		mutate  func(in *system.Inputs)
		section string
		want    string
	}{
		{
			name:    "missing timestep",
			mutate:  func(in *system.Inputs) { in.Parameters.Delete("timestep") },
			section: "required parameters that are missing",
			want:    "timestep",
		},
		{
			name:    "duplicate definition",
			mutate:  func(in *system.Inputs) { in.Parameters.Set("growth_rate", 1) },
			section: "quantities defined more than once",
			want:    "growth_rate",
		},
		{
			name:    "undefined input",
			mutate:  func(in *system.Inputs) { in.Parameters.Delete("tbase") },
			section: "undefined module inputs",
			want:    "tbase",
		},
		{
			name:    "derivative output without state",
			mutate:  func(in *system.Inputs) { in.InitialState.Delete("TTc") },
			section: "derivative outputs that are not state quantities",
			want:    "TTc",
		},
		{
			name:    "unregistered module",
			mutate:  func(in *system.Inputs) { in.DerivativeMods = append(in.DerivativeMods, "photosynthesis") },
			section: "unregistered modules",
			want:    "photosynthesis",
		},
		{
			name:    "wrong kind",
			mutate:  func(in *system.Inputs) { in.SteadyStateMods = append(in.SteadyStateMods, "thermal_time") },
			section: "derivative modules in the steady-state list",
			want:    "thermal_time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := growthInputs(t)
			tt.mutate(&in)

			_, err := system.New(in, reg)
			require.ErrorIs(t, err, system.ErrInvalidInputs)

			var verr *system.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.False(t, verr.Report.Valid())
			assert.Contains(t, verr.Report.String(), tt.section)
			assert.Contains(t, verr.Report.String(), tt.want)
		})
	}
}

// TestNew_Reorder accepts a misordered list only when reordering is requested.
func TestNew_Reorder(t *testing.T) {
	in := system.Inputs{
		InitialState:    quantity.Of("pool", 1),
		Parameters:      quantity.Of("timestep", 1, "x", 4, "decay_rate", 0.1),
		SteadyStateMods: []string{"double_p", "increment"},
		DerivativeMods:  []string{"exponential_decay"},
	}
	reg := models.Default()

	report := system.Validate(in, reg)
	assert.False(t, report.Valid())
	assert.Contains(t, report.String(), "double_p")

	in.Reorder = true
	sys, err := system.New(in, reg)
	require.NoError(t, err)
	snap := sys.Snapshot(sys.InitialState(), 0)
	q, _ := snap.Get("q")
	assert.Equal(t, 10.0, q)
}

// TestAdaptiveCompatible is false when any module switches discretely.
func TestAdaptiveCompatible(t *testing.T) {
	in := growthInputs(t)
	in.Parameters.Set("stage_threshold", 100)
	in.SteadyStateMods = []string{"thermal_growth_rate", "development_stage"}

	sys, err := system.New(in, models.Default())
	require.NoError(t, err)
	assert.False(t, sys.AdaptiveCompatible())
	assert.Contains(t, sys.Report().String(), "development_stage")
}
