package quantity

import (
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

var ErrColumnLength = errors.New("quantity: column length does not match series length")

// Series holds time-varying parameters as equal-length columns indexed by
// integer time. Non-integer times are linearly interpolated.
type Series struct {
	n       int
	names   []string
	columns [][]float64
	index   map[string]int
}

// NewSeries creates an empty series with n rows.
func NewSeries(n int) *Series {
	return &Series{n: n, index: make(map[string]int)}
}

func (s *Series) AddColumn(name string, values []float64) error {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if len(values) != s.n {
		return fmt.Errorf("%w: %q has %d values, want %d", ErrColumnLength, name, len(values), s.n)
	}
	if _, ok := s.index[name]; ok {
		return fmt.Errorf("quantity: column %q already present", name)
	}
	col := make([]float64, len(values))
	copy(col, values)
	s.index[name] = len(s.names)
	s.names = append(s.names, name)
	s.columns = append(s.columns, col)
	return nil
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return s.n
}

func (s *Series) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Series) Column(name string) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.columns[i], true
}

func (s *Series) At(name string, i int) float64 {
	col, ok := s.Column(name)
	if !ok {
		panic(fmt.Errorf("%w: time-varying %q", ErrMissingQuantity, name))
	}
	return col[i]
}

// Interpolate writes the value of every column at time t into dst, in
// column order. Integral times are exact lookups; others interpolate
// linearly between floor(t) and ceil(t). t is clamped to [0, Len()-1].
func (s *Series) Interpolate(t float64, dst []float64) {
	if s == nil || s.n == 0 {
		return
	}
	last := float64(s.n - 1)
	if t <= 0 {
		t = 0
	} else if t >= last {
		t = last
	}

	lo := math.Floor(t)
	i := int(lo)
	if t == lo {
		for c, col := range s.columns {
			dst[c] = col[i]
		}
		return
	}

	frac := t - lo
	for c, col := range s.columns {
		dst[c] = col[i] + frac*(col[i+1]-col[i])
	}
}

// UnmarshalYAML reads a mapping of column name to value list, keeping the
// document order of the columns.
func (s *Series) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("quantity: line %d: expected a mapping of name to value list", value.Line)
	}
	*s = Series{index: make(map[string]int), n: -1}
	for i := 0; i+1 < len(value.Content); i += 2 {
		name := value.Content[i].Value
		var col []float64
		if err := value.Content[i+1].Decode(&col); err != nil {
			return fmt.Errorf("quantity: %q: %w", name, err)
		}
		if s.n < 0 {
			s.n = len(col)
		}
		if err := s.AddColumn(name, col); err != nil {
			return err
		}
	}
	if s.n < 0 {
		s.n = 0
	}
	return nil
}

func (s *Series) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i, name := range s.names {
		var col yaml.Node
		if err := col.Encode(s.columns[i]); err != nil {
			return nil, err
		}
		col.Style = yaml.FlowStyle
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}, &col)
	}
	return node, nil
}
