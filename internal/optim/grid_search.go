// Package optim searches invariant parameters of a simulation for the
// values that minimise a result metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/modsim/internal/metrics"
	"github.com/san-kum/modsim/internal/quantity"
	"github.com/san-kum/modsim/internal/sim"
)

var ErrEmptyGrid = errors.New("optim: empty parameter grid")

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// ParseParam reads "name=v1,v2,...".
func ParseParam(spec string) (string, []float64, error) {
	name, list, ok := strings.Cut(spec, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("optim: parameter %q: want name=v1,v2,...", spec)
	}
	var values []float64
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: parameter %q: %w", spec, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

// Points returns every combination of the grid values, the last
// parameter varying fastest.
func (g *GridSearch) Points() []*quantity.Map {
	if len(g.paramNames) == 0 {
		return nil
	}
	var points []*quantity.Map
	g.collect(0, quantity.New(), &points)
	return points
}

func (g *GridSearch) collect(depth int, current *quantity.Map, points *[]*quantity.Map) {
	if depth == len(g.paramNames) {
		*points = append(*points, current.Clone())
		return
	}
	for _, val := range g.ranges[depth] {
		current.Set(g.paramNames[depth], val)
		g.collect(depth+1, current, points)
	}
}

// Outcome is one evaluated grid point.
type Outcome struct {
	Params *quantity.Map
	Value  float64
}

// Search runs base at every grid point and returns the point with the
// smallest value of metric, plus every evaluated point in grid order.
// metric uses the metrics.Parse syntax.
func (g *GridSearch) Search(ctx context.Context, s *sim.Simulator, base sim.SimulationInput, metric string) (Outcome, []Outcome, error) {
	points := g.Points()
	if len(points) == 0 {
		return Outcome{}, nil, ErrEmptyGrid
	}
	if _, err := metrics.Parse(metric); err != nil {
		return Outcome{}, nil, err
	}

	results, err := s.Sweep(ctx, base, points)
	if err != nil {
		return Outcome{}, nil, err
	}

	best := Outcome{Value: math.Inf(1)}
	all := make([]Outcome, len(points))
	for i, res := range results {
		bound, _ := metrics.Parse(metric)
		vals, err := metrics.Apply(res, []metrics.Bound{bound})
		if err != nil {
			return Outcome{}, nil, err
		}
		all[i] = Outcome{Params: points[i], Value: vals[bound.Metric.Name()]}
		if all[i].Value < best.Value {
			best = all[i]
		}
	}
	return best, all, nil
}
