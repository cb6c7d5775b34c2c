package depgraph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/san-kum/modsim/internal/module"
)

// ErrCyclicDependency is returned when no evaluation order exists.
var ErrCyclicDependency = errors.New("depgraph: cyclic module dependency")

// CycleError names the modules that form cycles.
type CycleError struct {
	Cycles [][]string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCyclicDependency, strings.Join(CycleNames(e.Cycles), "; "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicDependency }

// dependsOn reports whether b consumes an output of a.
func dependsOn(b, a module.Descriptor) bool {
	outs := set(a.Outputs)
	for _, in := range b.Inputs {
		if outs[in] {
			return true
		}
	}
	return false
}

// build returns the dependency graph of mods. Node IDs are positions in
// mods and an edge a -> b means b consumes an output of a. Modules that
// consume their own output are returned separately since the graph has no
// self edges.
func build(mods []module.Descriptor) (g *simple.DirectedGraph, selfLoops []int64) {
	g = simple.NewDirectedGraph()
	for i := range mods {
		g.AddNode(simple.Node(i))
	}
	for i, a := range mods {
		for j, b := range mods {
			if !dependsOn(b, a) {
				continue
			}
			if i == j {
				selfLoops = append(selfLoops, int64(i))
				continue
			}
			g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
		}
	}
	return g, selfLoops
}

// FindCycles returns every elementary cycle of the dependency graph, each
// as a list of module names starting from its earliest module. A module
// that consumes its own output is a cycle of length one.
func FindCycles(mods []module.Descriptor) [][]string {
	g, selfLoops := build(mods)

	var cycles [][]int64
	for _, id := range selfLoops {
		cycles = append(cycles, []int64{id})
	}
	for _, c := range topo.DirectedCyclesIn(g) {
		ids := make([]int64, len(c)-1)
		for i, n := range c[:len(c)-1] {
			ids[i] = n.ID()
		}
		cycles = append(cycles, rotateToMin(ids))
	}
	sort.Slice(cycles, func(i, j int) bool { return lessIDs(cycles[i], cycles[j]) })

	out := make([][]string, len(cycles))
	for i, c := range cycles {
		out[i] = names(mods, c)
	}
	return out
}

func rotateToMin(ids []int64) []int64 {
	m := 0
	for i, id := range ids {
		if id < ids[m] {
			m = i
		}
	}
	return append(append([]int64{}, ids[m:]...), ids[:m]...)
}

func lessIDs(a, b []int64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func names(mods []module.Descriptor, ids []int64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = mods[id].Name
	}
	return out
}

// EvaluationOrder returns mods sorted so that every module comes after the
// modules whose outputs it consumes. Ties are broken by position in mods.
// A cyclic composition yields a *CycleError.
func EvaluationOrder(mods []module.Descriptor) ([]module.Descriptor, error) {
	g, selfLoops := build(mods)
	if len(selfLoops) > 0 {
		return nil, &CycleError{Cycles: FindCycles(mods)}
	}

	sorted, err := topo.SortStabilized(g, nil)
	if err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			return nil, &CycleError{Cycles: FindCycles(mods)}
		}
		return nil, fmt.Errorf("depgraph: %w", err)
	}

	out := make([]module.Descriptor, len(sorted))
	for i, n := range sorted {
		out[i] = mods[n.ID()]
	}
	return out, nil
}

// OrderNames is EvaluationOrder over names.
func OrderNames(mods []module.Descriptor) ([]string, error) {
	ordered, err := EvaluationOrder(mods)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ordered))
	for i, m := range ordered {
		out[i] = m.Name
	}
	return out, nil
}
