package models_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/modsim/internal/models"
	"github.com/san-kum/modsim/internal/module"
	"github.com/san-kum/modsim/internal/quantity"
)

func run(t *testing.T, reg *module.Registry, name string, known *quantity.Map) *quantity.Table {
	t.Helper()
	desc, err := reg.Describe(name)
	require.NoError(t, err)

	tab := quantity.NewTable()
	tab.SetMap(known)
	for _, o := range desc.Outputs {
		tab.Add(o)
	}
	inst, err := reg.Instantiate(name, tab, tab.MustSlot, tab.MustSlot)
	require.NoError(t, err)
	inst.Run()
	return tab
}

func value(t *testing.T, tab *quantity.Table, name string) float64 {
	t.Helper()
	return tab.Get(tab.MustSlot(name))
}

func TestDefault_Descriptors(t *testing.T) {
	reg := models.Default()
	for _, name := range reg.Names() {
		desc, err := reg.Describe(name)
		require.NoError(t, err)
		assert.NotEmpty(t, desc.Outputs, name)

		seen := map[string]bool{}
		for _, o := range desc.Outputs {
			assert.False(t, seen[o], "%s writes %s twice", name, o)
			seen[o] = true
		}
	}

	stage, err := reg.Describe("development_stage")
	require.NoError(t, err)
	assert.False(t, stage.AdaptiveCompatible)

	decay, err := reg.Describe("exponential_decay")
	require.NoError(t, err)
	assert.True(t, decay.Derivative)
}

func TestRegister_Twice(t *testing.T) {
	reg := models.Default()
	assert.Panics(t, func() { models.Register(reg) })
}

func TestAlgebra(t *testing.T) {
	reg := models.Default()
	assert.Equal(t, 6.0, value(t, run(t, reg, "doubler", quantity.Of("x", 3)), "y"))
	assert.Equal(t, 4.0, value(t, run(t, reg, "increment", quantity.Of("x", 3)), "p"))
	assert.Equal(t, 8.0, value(t, run(t, reg, "double_p", quantity.Of("p", 4)), "q"))
	assert.InDelta(t, math.Cos(0.5), value(t, run(t, reg, "cosine_fixed_point", quantity.Of("u", 0.5)), "u"), 1e-15)
}

func TestGrowth(t *testing.T) {
	reg := models.Default()

	tab := run(t, reg, "thermal_growth_rate", quantity.Of("temp", 20, "tbase", 8, "rate_per_degree", 0.01))
	assert.InDelta(t, 0.12, value(t, tab, "growth_rate"), 1e-12)

	tab = run(t, reg, "thermal_growth_rate", quantity.Of("temp", 5, "tbase", 8, "rate_per_degree", 0.01))
	assert.Equal(t, 0.0, value(t, tab, "growth_rate"))

	tab = run(t, reg, "logistic_growth", quantity.Of("biomass", 5, "growth_rate", 0.2, "carrying_capacity", 10))
	assert.InDelta(t, 0.5, value(t, tab, "biomass"), 1e-12)

	tab = run(t, reg, "development_stage", quantity.Of("TTc", 2, "stage_threshold", 2))
	assert.Equal(t, 1.0, value(t, tab, "stage"))
	tab = run(t, reg, "development_stage", quantity.Of("TTc", 1.9, "stage_threshold", 2))
	assert.Equal(t, 0.0, value(t, tab, "stage"))
}

func TestMechanicalEnergy(t *testing.T) {
	tab := run(t, models.Default(), "mechanical_energy",
		quantity.Of("position", 2, "velocity", 1, "mass", 2, "stiffness", 4))
	assert.Equal(t, 1.0, value(t, tab, "kinetic_energy"))
	assert.Equal(t, 8.0, value(t, tab, "potential_energy"))
	assert.Equal(t, 9.0, value(t, tab, "total_energy"))
}

func TestLeaf(t *testing.T) {
	reg := models.Default()
	tab := run(t, reg, "leaf_energy_balance",
		quantity.Of("air_temperature", 25, "absorbed_radiation", 500, "transpiration", 2))
	assert.InDelta(t, 29.0, value(t, tab, "leaf_temperature"), 1e-12)

	tab = run(t, reg, "leaf_transpiration", quantity.Of("leaf_temperature", 25, "conductance", 1.5))
	assert.InDelta(t, 1.5, value(t, tab, "transpiration"), 1e-12)
}
