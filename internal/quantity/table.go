package quantity

import (
	"errors"
	"fmt"
)

// ErrMissingQuantity is raised when a slot lookup fails after a composition
// has already been validated.
var ErrMissingQuantity = errors.New("quantity: required quantity is not defined")

// Table is an arena of float64 slots. Engines own one Table per composition
// and hand out slot indices to the module instances they bind, so no module
// ever holds a pointer into engine memory.
type Table struct {
	index  map[string]int
	values []float64
}

func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Add registers a named slot, or returns the existing one.
func (t *Table) Add(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.values)
	t.values = append(t.values, 0)
	t.index[name] = i
	return i
}

// AddHidden allocates a slot that cannot be found by name.
func (t *Table) AddHidden() int {
	i := len(t.values)
	t.values = append(t.values, 0)
	return i
}

func (t *Table) Slot(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// MustSlot panics when name has no slot. Callers use it only after
// validation has guaranteed the name exists.
func (t *Table) MustSlot(name string) int {
	i, ok := t.index[name]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrMissingQuantity, name))
	}
	return i
}

func (t *Table) Get(i int) float64           { return t.values[i] }
func (t *Table) Set(i int, v float64)        { t.values[i] = v }
func (t *Table) Accumulate(i int, v float64) { t.values[i] += v }
func (t *Table) Len() int                    { return len(t.values) }

// SetMap writes every entry of m into its named slot, adding slots as needed.
func (t *Table) SetMap(m *Map) {
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		t.Set(t.Add(k), v)
	}
}

// Snapshot copies the named slots listed in names into a new Map.
func (t *Table) Snapshot(names []string) *Map {
	out := New()
	for _, n := range names {
		out.Set(n, t.values[t.MustSlot(n)])
	}
	return out
}
