package quantity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/modsim/internal/quantity"
)

// TestMap_InsertionOrder verifies that keys come back in the order they were first set.
func TestMap_InsertionOrder(t *testing.T) {
	m := quantity.New()
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("z", 3)

	assert.Equal(t, []string{"z", "a"}, m.Keys())
	assert.Equal(t, []float64{3, 2}, m.Values())

	m.Delete("z")
	assert.Equal(t, []string{"a"}, m.Keys())
	assert.False(t, m.Has("z"))
}

// TestMap_FromMapSorted checks that plain maps are imported in sorted key order.
func TestMap_FromMapSorted(t *testing.T) {
	m := quantity.FromMap(map[string]float64{"b": 2, "a": 1, "c": 3})
	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
	assert.Equal(t, map[string]float64{"a": 1, "b": 2, "c": 3}, m.ToMap())
}

// TestMap_YAMLKeepsOrder round-trips a document and checks that the key order survives.
func TestMap_YAMLKeepsOrder(t *testing.T) {
	var m quantity.Map
	require.NoError(t, yaml.Unmarshal([]byte("y: 2\nx: 1.5\n"), &m))
	assert.Equal(t, []string{"y", "x"}, m.Keys())

	out, err := yaml.Marshal(&m)
	require.NoError(t, err)
	assert.Equal(t, "y: 2\nx: 1.5\n", string(out))
}

// TestMap_JSON ensures JSON output follows key order.
func TestMap_JSON(t *testing.T) {
	m := quantity.Of("q", 10, "p", 5)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"q":10,"p":5}`, string(data))
}

// TestTable_Slots covers named and hidden slot allocation.
func TestTable_Slots(t *testing.T) {
	tab := quantity.NewTable()
	a := tab.Add("a")
	assert.Equal(t, a, tab.Add("a"))

	h := tab.AddHidden()
	assert.Equal(t, 2, tab.Len())
	assert.Equal(t, a, tab.MustSlot("a"))

	tab.Set(a, 2)
	tab.Accumulate(h, 1)
	tab.Accumulate(h, 1.5)
	assert.Equal(t, 2.0, tab.Get(a))
	assert.Equal(t, 2.5, tab.Get(h))

	assert.Panics(t, func() { tab.MustSlot("missing") })
}

// TestSeries_Interpolate covers exact, interpolated and clamped lookups.
func TestSeries_Interpolate(t *testing.T) {
	s := quantity.NewSeries(3)
	require.NoError(t, s.AddColumn("temp", []float64{10, 20, 40}))
	require.NoError(t, s.AddColumn("rh", []float64{0.5, 0.5, 0.7}))

	dst := make([]float64, 2)
	tests := []struct {
		t    float64
		want []float64
	}{
		{0, []float64{10, 0.5}},
		{1, []float64{20, 0.5}},
		{0.5, []float64{15, 0.5}},
		{1.25, []float64{25, 0.55}},
		{-1, []float64{10, 0.5}},
		{7, []float64{40, 0.7}},
	}
	for _, tt := range tests {
		s.Interpolate(tt.t, dst)
		assert.InDeltaSlice(t, tt.want, dst, 1e-12, "t=%v", tt.t)
	}
}

// TestSeries_ColumnLength rejects columns of the wrong length.
func TestSeries_ColumnLength(t *testing.T) {
	s := quantity.NewSeries(2)
	err := s.AddColumn("temp", []float64{1, 2, 3})
	assert.ErrorIs(t, err, quantity.ErrColumnLength)
}

// TestSeries_YAML decodes columns in document order.
func TestSeries_YAML(t *testing.T) {
	var s quantity.Series
	require.NoError(t, yaml.Unmarshal([]byte("temp: [1, 2]\nrh: [0.1, 0.2]\n"), &s))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"temp", "rh"}, s.Names())
	assert.Equal(t, 0.2, s.At("rh", 1))

	err := yaml.Unmarshal([]byte("temp: [1, 2]\nrh: [0.1]\n"), &s)
	assert.ErrorIs(t, err, quantity.ErrColumnLength)
}
