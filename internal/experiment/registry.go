package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/modsim/internal/integrators"
	"github.com/san-kum/modsim/internal/metrics"
	"github.com/san-kum/modsim/internal/models"
	"github.com/san-kum/modsim/internal/module"
	"github.com/san-kum/modsim/internal/sesolver"
)

// Registry is the catalogue the CLI browses: modules, integrators and
// solvers.
type Registry struct {
	modules *module.Registry
}

func NewRegistry() *Registry {
	return &Registry{modules: models.Default()}
}

func (r *Registry) Modules() *module.Registry { return r.modules }

func (r *Registry) GetModule(name string) (module.Descriptor, error) {
	return r.modules.Describe(name)
}

func (r *Registry) ListModules() []string     { return r.modules.Names() }
func (r *Registry) ListIntegrators() []string { return integrators.Names() }
func (r *Registry) ListSolvers() []string     { return sesolver.Names() }

// ModulesProducing returns the modules that write quantity, sorted.
func (r *Registry) ModulesProducing(quantity string) []string {
	var out []string
	for _, name := range r.modules.Names() {
		desc, _ := r.modules.Describe(name)
		for _, o := range desc.Outputs {
			if o == quantity {
				out = append(out, name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// DefaultMetrics summarises every state column of a result with its
// extremes and drift.
func (r *Registry) DefaultMetrics(states []string) []metrics.Bound {
	var bounds []metrics.Bound
	for _, s := range states {
		for _, kind := range []string{"min", "max", "drift"} {
			b, err := metrics.Parse(fmt.Sprintf("%s:%s", kind, s))
			if err != nil {
				continue
			}
			bounds = append(bounds, b)
		}
	}
	return bounds
}
