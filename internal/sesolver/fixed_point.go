package sesolver

// FixedPoint uses the residual itself as the step, x <- x + F(x), which
// for the simultaneous-equation residual is plain substitution. Steps
// are clamped to the bounds.
type FixedPoint struct {
	cfg Config
}

func (p *FixedPoint) Name() string { return "fixed_point" }

func (p *FixedPoint) Solve(r Residual, guess, lower, upper []float64) Result {
	return iterate(p.cfg, r, guess, lower, upper, func(x, f []float64) ([]float64, []float64, string) {
		xNew := make([]float64, len(x))
		for i := range x {
			xNew[i] = x[i] + f[i]
		}
		clamp(xNew, lower, upper)
		return xNew, r.Evaluate(xNew), ""
	})
}
