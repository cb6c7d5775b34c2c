package depgraph

import (
	"fmt"
	"strings"
)

// Section is one check of a Report. Problem sections make the report
// invalid when they list any names; informational sections never do.
type Section struct {
	Title   string
	Names   []string
	Problem bool
}

// Report aggregates the findings of a composition check.
type Report struct {
	Title    string
	Sections []Section
}

func NewReport(title string) *Report {
	return &Report{Title: title}
}

// Problem records a check whose offending names are in names. An empty
// list is recorded as a passed check.
func (r *Report) Problem(title string, names []string) {
	r.Sections = append(r.Sections, Section{Title: title, Names: names, Problem: true})
}

// Info records names for context only.
func (r *Report) Info(title string, names []string) {
	r.Sections = append(r.Sections, Section{Title: title, Names: names})
}

// Valid reports whether every problem section is empty.
func (r *Report) Valid() bool { return r.Count() == 0 }

// Count is the total number of offending names.
func (r *Report) Count() int {
	n := 0
	for _, s := range r.Sections {
		if s.Problem {
			n += len(s.Names)
		}
	}
	return n
}

// Merge appends the sections of other.
func (r *Report) Merge(other *Report) {
	r.Sections = append(r.Sections, other.Sections...)
}

func (r *Report) String() string {
	var b strings.Builder
	if r.Title != "" {
		b.WriteString(r.Title)
		b.WriteString("\n")
	}
	for _, s := range r.Sections {
		switch {
		case len(s.Names) == 0 && s.Problem:
			fmt.Fprintf(&b, "  %s: none\n", s.Title)
		case len(s.Names) == 0:
			fmt.Fprintf(&b, "  %s: -\n", s.Title)
		default:
			fmt.Fprintf(&b, "  %s (%d):\n", s.Title, len(s.Names))
			for _, n := range s.Names {
				fmt.Fprintf(&b, "    %s\n", n)
			}
		}
	}
	if r.Valid() {
		b.WriteString("  result: valid\n")
	} else {
		fmt.Fprintf(&b, "  result: invalid (%d problems)\n", r.Count())
	}
	return b.String()
}

// CycleNames formats cycles for a report section.
func CycleNames(cycles [][]string) []string {
	out := make([]string, len(cycles))
	for i, c := range cycles {
		out[i] = strings.Join(append(append([]string{}, c...), c[0]), " -> ")
	}
	return out
}
