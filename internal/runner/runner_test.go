package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/modsim/internal/models"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/runner"
)

// TestRun_Doubler is y = 2x with x = 3.
func TestRun_Doubler(t *testing.T) {
	out, err := runner.Run(quantity.Of("x", 3), []string{"doubler"}, models.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, out.Keys())
	y, _ := out.Get("y")
	assert.Equal(t, 6.0, y)
}

// TestRun_Chain runs p = x + 1 then q = 2p.
func TestRun_Chain(t *testing.T) {
	out, err := runner.Run(quantity.Of("x", 4), []string{"increment", "double_p"}, models.Default())
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"p": 5, "q": 10}, out.ToMap())
}

// TestRun_Misordered flags the consumer listed before its producer.
func TestRun_Misordered(t *testing.T) {
	reg := models.Default()
	known := quantity.Of("x", 4)
	mods := []string{"double_p", "increment"}

	report := runner.Validate(known, mods, reg)
	assert.False(t, report.Valid())
	assert.Contains(t, report.String(), "misordered modules (1):\n    double_p")

	_, err := runner.Run(known, mods, reg)
	var verr *runner.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, runner.ErrInvalidInputs)
}

// TestValidate_Duplicate becomes valid once the duplicate is removed.
func TestValidate_Duplicate(t *testing.T) {
	reg := models.Default()
	known := quantity.Of("x", 3, "y", 1)

	report := runner.Validate(known, []string{"doubler"}, reg)
	assert.False(t, report.Valid())
	assert.Contains(t, report.String(), "quantities defined more than once (1):\n    y")

	known.Delete("y")
	assert.True(t, runner.Validate(known, []string{"doubler"}, reg).Valid())
}

func TestValidate_UnknownModule(t *testing.T) {
	report := runner.Validate(quantity.Of("x", 3), []string{"tripler"}, models.Default())
	assert.Contains(t, report.String(), "tripler")
	assert.Equal(t, 1, report.Count())
}
