package optim_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/modsim/internal/dynamo"
	"github.com/san-kum/modsim/internal/models"
	"github.com/san-kum/modsim/internal/optim"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/sim"
)

func TestPoints(t *testing.T) {
	g := optim.NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2}, {10, 20, 30}})
	points := g.Points()
	require.Len(t, points, 6)
	assert.Equal(t, map[string]float64{"a": 1, "b": 10}, points[0].ToMap())
	assert.Equal(t, map[string]float64{"a": 1, "b": 20}, points[1].ToMap())
	assert.Equal(t, map[string]float64{"a": 2, "b": 30}, points[5].ToMap())

	assert.Nil(t, optim.NewGridSearch(nil, nil).Points())
}

func TestParseParam(t *testing.T) {
	name, values, err := optim.ParseParam("decay_rate=0.1, 0.2,0.5")
	require.NoError(t, err)
	assert.Equal(t, "decay_rate", name)
	assert.Equal(t, []float64{0.1, 0.2, 0.5}, values)

	for _, bad := range []string{"decay_rate", "=1", "k=", "k=1,x"} {
		_, _, err := optim.ParseParam(bad)
		assert.Error(t, err, bad)
	}
}

func TestSearch(t *testing.T) {
	drivers := quantity.NewSeries(4)
	base := sim.SimulationInput{
		InitialState:   quantity.Of("pool", 4),
		Parameters:     quantity.Of("timestep", 1, "decay_rate", 0.5),
		Drivers:        drivers,
		DerivativeMods: []string{"exponential_decay"},
		Integrator:     "euler",
		Config:         dynamo.DefaultConfig(),
	}

	g := optim.NewGridSearch([]string{"decay_rate"}, [][]float64{{0.1, 0.5, 0.25}})
	best, all, err := g.Search(context.Background(), sim.New(models.Default()), base, "min:pool")
	require.NoError(t, err)
	require.Len(t, all, 3)

	rate, _ := best.Params.Get("decay_rate")
	assert.Equal(t, 0.5, rate)
	assert.Equal(t, 0.5, best.Value)
	assert.InDelta(t, 4*0.9*0.9*0.9, all[0].Value, 1e-12)

	_, _, err = optim.NewGridSearch(nil, nil).Search(context.Background(), sim.New(models.Default()), base, "min:pool")
	assert.ErrorIs(t, err, optim.ErrEmptyGrid)

	_, _, err = g.Search(context.Background(), sim.New(models.Default()), base, "median:pool")
	assert.Error(t, err)
}
