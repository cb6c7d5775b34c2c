package sesolver_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/modsim/internal/models"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/sesolver"
	"github.com/san-kum/modsim/internal/simeq"
)

func cosineEngine(t *testing.T) *simeq.Engine {
	t.Helper()
	eng, err := simeq.New(simeq.Inputs{
		Known:           quantity.New(),
		Unknowns:        []string{"u"},
		SteadyStateMods: []string{"cosine_fixed_point"},
	}, models.Default())
	require.NoError(t, err)
	return eng
}

func tightConfig() sesolver.Config {
	cfg := sesolver.DefaultConfig()
	cfg.AbsTol, cfg.RelTol = 1e-6, 1e-6
	return cfg
}

// TestSolvers_Cosine solves u = cos(u) inside [0, 1] with every algorithm.
func TestSolvers_Cosine(t *testing.T) {
	for _, name := range sesolver.Names() {
		t.Run(name, func(t *testing.T) {
			s, err := sesolver.New(name, tightConfig())
			require.NoError(t, err)

			res := s.Solve(cosineEngine(t), []float64{0.5}, []float64{0}, []float64{1})
			require.True(t, res.Success, res.Message)
			assert.InDelta(t, 0.739085, res.Solution[0], 1e-5)
			assert.LessOrEqual(t, res.Iterations, 50)
		})
	}
}

// TestSolvers_GuessOnBound starts exactly on each bound.
func TestSolvers_GuessOnBound(t *testing.T) {
	s, err := sesolver.New("newton_raphson_backtrack", tightConfig())
	require.NoError(t, err)

	for _, guess := range []float64{0, 1} {
		res := s.Solve(cosineEngine(t), []float64{guess}, []float64{0}, []float64{1})
		require.True(t, res.Success, res.Message)
		assert.InDelta(t, 0.739085, res.Solution[0], 1e-5)
	}
}

// TestNewtonBacktrack_RootOutsideBounds must fail without leaving the box or dividing by zero.
func TestNewtonBacktrack_RootOutsideBounds(t *testing.T) {
	s, err := sesolver.New("newton_raphson_backtrack", tightConfig())
	require.NoError(t, err)

	r := sesolver.ResidualFunc(func(x []float64) []float64 { return []float64{2 - x[0]} })
	res := s.Solve(r, []float64{1}, []float64{0}, []float64{1})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "bounds")
	assert.Equal(t, []float64{1}, res.Solution)
}

// TestNewtonBacktrack_TwoUnknowns solves the coupled leaf system.
func TestNewtonBacktrack_TwoUnknowns(t *testing.T) {
	eng, err := simeq.New(simeq.Inputs{
		Known:           quantity.Of("air_temperature", 25, "absorbed_radiation", 400, "conductance", 2),
		Unknowns:        []string{"leaf_temperature", "transpiration"},
		SteadyStateMods: []string{"leaf_energy_balance", "leaf_transpiration"},
	}, models.Default())
	require.NoError(t, err)

	s, err := sesolver.New("newton_raphson_backtrack", tightConfig())
	require.NoError(t, err)

	lower, upper := []float64{-50, 0}, []float64{80, 100}
	res := s.Solve(eng, []float64{25, 1}, lower, upper)
	require.True(t, res.Success, res.Message)

	tleaf, tr := res.Solution[0], res.Solution[1]
	assert.InDelta(t, 25+4-0.5*tr, tleaf, 1e-5)
	assert.InDelta(t, 2*math.Exp(0.06*(tleaf-25)), tr, 1e-5)

	for i := range res.Solution {
		assert.GreaterOrEqual(t, res.Solution[i], lower[i])
		assert.LessOrEqual(t, res.Solution[i], upper[i])
	}
}

// TestNewtonBacktrack_Singular reports a flat residual as a failure.
func TestNewtonBacktrack_Singular(t *testing.T) {
	s, err := sesolver.New("newton_raphson_backtrack", tightConfig())
	require.NoError(t, err)

	r := sesolver.ResidualFunc(func(x []float64) []float64 { return []float64{1} })
	res := s.Solve(r, []float64{0.5}, []float64{0}, []float64{1})
	assert.False(t, res.Success)
	assert.Equal(t, "singular jacobian", res.Message)
}

func TestSolve_MaxIterations(t *testing.T) {
	cfg := tightConfig()
	cfg.MaxIterations = 2
	s, err := sesolver.New("fixed_point", cfg)
	require.NoError(t, err)

	res := s.Solve(cosineEngine(t), []float64{0}, []float64{0}, []float64{1})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "maximum iterations")
}

func TestSolve_GuessOutsideBounds(t *testing.T) {
	s, err := sesolver.New("newton_raphson", tightConfig())
	require.NoError(t, err)

	res := s.Solve(cosineEngine(t), []float64{2}, []float64{0}, []float64{1})
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "outside")
}

// TestGuesses_Reproducible draws the same guesses from the same seed, all inside the bounds.
func TestGuesses_Reproducible(t *testing.T) {
	center := []float64{0.5, 10}
	lower, upper := []float64{0, 0}, []float64{1, 20}

	a := sesolver.Guesses(center, lower, upper, 8, rand.New(rand.NewSource(7)))
	b := sesolver.Guesses(center, lower, upper, 8, rand.New(rand.NewSource(7)))
	require.Len(t, a, 8)
	assert.Equal(t, a, b)
	assert.Equal(t, center, a[0])

	for _, g := range a {
		for i := range g {
			assert.GreaterOrEqual(t, g[i], lower[i])
			assert.LessOrEqual(t, g[i], upper[i])
		}
	}
}

func TestSortByBadness(t *testing.T) {
	guesses := [][]float64{{3}, {1}, {math.NaN()}, {2}}
	sesolver.SortByBadness(guesses, func(x []float64) float64 { return x[0] })
	assert.Equal(t, []float64{1}, guesses[0])
	assert.Equal(t, []float64{2}, guesses[1])
	assert.Equal(t, []float64{3}, guesses[2])
	assert.True(t, math.IsNaN(guesses[3][0]))
}

// TestMultiStart stops at the first guess that converges.
func TestMultiStart(t *testing.T) {
	cfg := tightConfig()
	cfg.MaxIterations = 3
	s, err := sesolver.New("fixed_point", cfg)
	require.NoError(t, err)

	eng := cosineEngine(t)
	guesses := [][]float64{{0}, {1}, {0.739085}}
	sesolver.SortByBadness(guesses, sesolver.ResidualBadness(eng))
	assert.Equal(t, []float64{0.739085}, guesses[0])

	res := sesolver.MultiStart(s, eng, guesses, []float64{0}, []float64{1})
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 1, res.Attempts)

	none := sesolver.MultiStart(s, eng, [][]float64{{0}, {1}}, []float64{0}, []float64{1})
	assert.False(t, none.Success)
	assert.Equal(t, 2, none.Attempts)
	assert.Contains(t, none.Message, "no guess converged")
}

func TestNew_Unknown(t *testing.T) {
	_, err := sesolver.New("bisection", sesolver.DefaultConfig())
	assert.Error(t, err)

	bad := sesolver.DefaultConfig()
	bad.MaxIterations = 0
	_, err = sesolver.New("fixed_point", bad)
	assert.ErrorIs(t, err, sesolver.ErrInvalidConfig)
}
