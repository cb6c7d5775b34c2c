// Package metrics summarizes simulation results column by column.
package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/modsim/internal/dynamo"
)

// Metric observes one value per output row.
type Metric interface {
	Name() string
	Observe(v, t float64)
	Value() float64
	Reset()
}

type Mean struct {
	name    string
	sum     float64
	samples int
}

func NewMean(column string) *Mean { return &Mean{name: "mean:" + column} }

func (m *Mean) Name() string { return m.name }

func (m *Mean) Observe(v, t float64) {
	m.sum += v
	m.samples++
}

func (m *Mean) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *Mean) Reset() {
	m.sum = 0
	m.samples = 0
}

// Extremum tracks the largest (or smallest) observed value.
type Extremum struct {
	name  string
	max   bool
	value float64
	seen  bool
}

func NewMax(column string) *Extremum { return &Extremum{name: "max:" + column, max: true} }
func NewMin(column string) *Extremum { return &Extremum{name: "min:" + column} }

func (e *Extremum) Name() string { return e.name }

func (e *Extremum) Observe(v, t float64) {
	if !e.seen || (e.max && v > e.value) || (!e.max && v < e.value) {
		e.value = v
		e.seen = true
	}
}

func (e *Extremum) Value() float64 { return e.value }

func (e *Extremum) Reset() {
	e.value = 0
	e.seen = false
}

// Drift is the largest relative deviation from the first observed value.
// Applied to a conserved quantity such as total_energy it measures
// integration error.
type Drift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewDrift(column string) *Drift { return &Drift{name: "drift:" + column} }

func (d *Drift) Name() string { return d.name }

func (d *Drift) Observe(v, t float64) {
	if d.samples == 0 {
		d.initial = v
	}
	d.samples++

	if d.initial != 0 {
		drift := math.Abs(v-d.initial) / math.Abs(d.initial)
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *Drift) Value() float64 { return d.maxDrift }

func (d *Drift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

// Stability is the fraction of rows whose value stays within
// [-threshold, threshold].
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(column string, threshold float64) *Stability {
	return &Stability{
		name:      "stable:" + column,
		threshold: threshold,
	}
}

func (s *Stability) Name() string { return s.name }

func (s *Stability) Observe(v, t float64) {
	s.samples++
	if math.Abs(v) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Bound is a metric attached to a result column.
type Bound struct {
	Column string
	Metric Metric
}

// Parse reads "kind:column" or "stable:column:threshold".
func Parse(spec string) (Bound, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || parts[1] == "" {
		return Bound{}, fmt.Errorf("metric %q: want kind:column", spec)
	}
	kind, column := parts[0], parts[1]

	var m Metric
	switch kind {
	case "mean":
		m = NewMean(column)
	case "max":
		m = NewMax(column)
	case "min":
		m = NewMin(column)
	case "drift":
		m = NewDrift(column)
	case "stable":
		if len(parts) != 3 {
			return Bound{}, fmt.Errorf("metric %q: want stable:column:threshold", spec)
		}
		th, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return Bound{}, fmt.Errorf("metric %q: %w", spec, err)
		}
		m = NewStability(column, th)
	default:
		return Bound{}, fmt.Errorf("metric %q: unknown kind %q", spec, kind)
	}
	return Bound{Column: column, Metric: m}, nil
}

// Apply feeds every row of res to the bound metrics and returns their
// values by metric name.
func Apply(res *dynamo.Result, bounds []Bound) (map[string]float64, error) {
	out := make(map[string]float64, len(bounds))
	for _, b := range bounds {
		col, ok := res.Column(b.Column)
		if !ok {
			return nil, fmt.Errorf("metric %s: no column %q in result", b.Metric.Name(), b.Column)
		}
		b.Metric.Reset()
		for i, v := range col {
			b.Metric.Observe(v, res.Times[i])
		}
		out[b.Metric.Name()] = b.Metric.Value()
	}
	return out, nil
}
