package quantity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Map is an insertion-ordered mapping from quantity names to values.
// The zero value is ready to use.
type Map struct {
	keys []string
	vals map[string]float64
}

func New() *Map {
	return &Map{vals: make(map[string]float64)}
}

// FromMap builds a Map from a plain Go map. Keys are sorted so the
// result does not depend on map iteration order.
func FromMap(m map[string]float64) *Map {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := New()
	for _, k := range keys {
		out.Set(k, m[k])
	}
	return out
}

// Of builds a Map from alternating name/value pairs.
func Of(pairs ...any) *Map {
	if len(pairs)%2 != 0 {
		panic("quantity: Of requires name/value pairs")
	}
	out := New()
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("quantity: Of key %v is not a string", pairs[i]))
		}
		out.Set(name, toFloat(pairs[i+1]))
	}
	return out
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	default:
		panic(fmt.Sprintf("quantity: unsupported value type %T", v))
	}
}

func (m *Map) init() {
	if m.vals == nil {
		m.vals = make(map[string]float64)
	}
}

func (m *Map) Set(name string, v float64) {
	m.init()
	if _, ok := m.vals[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.vals[name] = v
}

func (m *Map) Get(name string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m.vals[name]
	return v, ok
}

func (m *Map) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

func (m *Map) Delete(name string) {
	if m == nil {
		return
	}
	if _, ok := m.vals[name]; !ok {
		return
	}
	delete(m.vals, name)
	for i, k := range m.keys {
		if k == name {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the names in insertion order. The slice is a copy.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in key order.
func (m *Map) Values() []float64 {
	if m == nil {
		return nil
	}
	out := make([]float64, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.vals[k]
	}
	return out
}

func (m *Map) Clone() *Map {
	out := New()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, m.vals[k])
	}
	return out
}

// Merge copies every entry of other into m, overwriting existing values.
func (m *Map) Merge(other *Map) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		m.Set(k, other.vals[k])
	}
}

func (m *Map) ToMap() map[string]float64 {
	out := make(map[string]float64, m.Len())
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out[k] = m.vals[k]
	}
	return out
}

func (m *Map) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s: %g", k, m.vals[k])
	}
	buf.WriteByte('}')
	return buf.String()
}

// MarshalYAML emits an ordered mapping node.
func (m *Map) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range m.Keys() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(m.vals[k], 'g', -1, 64)},
		)
	}
	return node, nil
}

// UnmarshalYAML keeps the document order of the mapping keys.
func (m *Map) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("quantity: line %d: expected a mapping of name to value", value.Line)
	}
	m.keys = nil
	m.vals = make(map[string]float64, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var v float64
		if err := value.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("quantity: %q: %w", value.Content[i].Value, err)
		}
		m.Set(value.Content[i].Value, v)
	}
	return nil
}

// MarshalJSON writes the entries as a JSON object in key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, fmt.Errorf("quantity: %q: %w", k, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
