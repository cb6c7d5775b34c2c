package module

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/modsim/internal/quantity"
)

var (
	// ErrUnknownModule indicates a lookup of a name that was never registered.
	ErrUnknownModule = errors.New("module: unknown module")

	// ErrDuplicateModule indicates a second registration under the same name.
	ErrDuplicateModule = errors.New("module: module already registered")
)

// Factory creates a fresh module instance.
type Factory func() Module

type entry struct {
	desc Descriptor
	new  Factory
}

// Registry maps module names to descriptors and factories. It is built once
// at startup and only read afterwards.
type Registry struct {
	modules map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]entry)}
}

func (r *Registry) Register(desc Descriptor, f Factory) error {
	if desc.Name == "" {
		return fmt.Errorf("module: descriptor has no name")
	}
	if _, ok := r.modules[desc.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, desc.Name)
	}
	r.modules[desc.Name] = entry{desc: desc, new: f}
	return nil
}

// MustRegister is Register for package-level library setup.
func (r *Registry) MustRegister(desc Descriptor, f Factory) {
	if err := r.Register(desc, f); err != nil {
		panic(err)
	}
}

func (r *Registry) New(name string) (Module, error) {
	e, ok := r.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	return e.new(), nil
}

func (r *Registry) Describe(name string) (Descriptor, error) {
	e, ok := r.modules[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	return e.desc, nil
}

// Descriptors looks up every name. Names that are not registered are
// returned in missing rather than as an error so callers can fold them
// into a composition report.
func (r *Registry) Descriptors(names []string) (found []Descriptor, missing []string) {
	for _, n := range names {
		d, err := r.Describe(n)
		if err != nil {
			missing = append(missing, n)
			continue
		}
		found = append(found, d)
	}
	return found, missing
}

// Names returns all registered module names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate creates the named module and binds it to t.
func (r *Registry) Instantiate(name string, t *quantity.Table, input, output func(string) int) (*Instance, error) {
	e, ok := r.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	return Bind(e.desc, e.new(), t, input, output), nil
}
