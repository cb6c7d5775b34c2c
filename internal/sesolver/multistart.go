package sesolver

import (
	"math"
	"math/rand"
	"sort"
)

// Guesses returns n starting points: center itself, then center moved
// along random directions on the unit sphere. Each move is a random
// fraction of the largest distance that stays inside the bounds, capped at
// the magnitude of the center (or 1) for unbounded directions.
func Guesses(center, lower, upper []float64, n int, rng *rand.Rand) [][]float64 {
	if n <= 0 {
		return nil
	}
	out := [][]float64{append([]float64(nil), center...)}

	limit := 1.0
	for _, c := range center {
		limit = math.Max(limit, math.Abs(c))
	}

	dim := len(center)
	for len(out) < n {
		dir := make([]float64, dim)
		norm := 0.0
		for i := range dir {
			dir[i] = rng.NormFloat64()
			norm += dir[i] * dir[i]
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}

		reach := limit
		for i := range dir {
			dir[i] /= norm
			switch {
			case dir[i] > 0:
				reach = math.Min(reach, (upper[i]-center[i])/dir[i])
			case dir[i] < 0:
				reach = math.Min(reach, (lower[i]-center[i])/dir[i])
			}
		}

		s := reach * rng.Float64()
		g := make([]float64, dim)
		for i := range g {
			g[i] = center[i] + s*dir[i]
		}
		clamp(g, lower, upper)
		out = append(out, g)
	}
	return out
}

// SortByBadness orders guesses from best to worst. The sort is stable so
// equally bad guesses keep their order.
func SortByBadness(guesses [][]float64, badness func(x []float64) float64) {
	scores := make([]float64, len(guesses))
	for i, g := range guesses {
		scores[i] = badness(g)
		if math.IsNaN(scores[i]) {
			scores[i] = math.Inf(1)
		}
	}
	idx := make([]int, len(guesses))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	sorted := make([][]float64, len(guesses))
	for i, j := range idx {
		sorted[i] = guesses[j]
	}
	copy(guesses, sorted)
}

// ResidualBadness scores a guess by |F|^2 / 2.
func ResidualBadness(r Residual) func(x []float64) float64 {
	return func(x []float64) float64 { return halfSquaredNorm(r.Evaluate(x)) }
}

// MultiStart tries each guess in turn and stops at the first success. When
// every guess fails the result of the guess with the smallest final
// residual is returned.
func MultiStart(s Solver, r Residual, guesses [][]float64, lower, upper []float64) Result {
	var best Result
	bestScore := math.Inf(1)
	for i, g := range guesses {
		res := s.Solve(r, g, lower, upper)
		res.Attempts = i + 1
		if res.Success {
			return res
		}
		score := halfSquaredNorm(res.Residual)
		if res.Residual == nil || math.IsNaN(score) {
			score = math.Inf(1)
		}
		if i == 0 || score < bestScore {
			best, bestScore = res, score
		}
	}
	best.Attempts = len(guesses)
	if len(guesses) > 0 {
		best.Message = "no guess converged; best attempt: " + best.Message
	} else {
		best.Message = "no guesses"
	}
	return best
}
