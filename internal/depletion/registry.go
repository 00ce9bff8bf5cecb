package depletion

import (
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/transmute/internal/dynamo"
	"github.com/san-kum/transmute/internal/integrators"
	"github.com/san-kum/transmute/internal/metrics"
)

// NegativityThreshold is the magnitude below which negative quantities
// count as integration noise.
const NegativityThreshold = 1e-12

type Registry struct {
	integrators map[string]func() dynamo.AdaptiveIntegrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.AdaptiveIntegrator),
	}

	r.integrators["rosenbrock"] = func() dynamo.AdaptiveIntegrator { return integrators.NewRosenbrock() }
	r.integrators["rk45"] = func() dynamo.AdaptiveIntegrator { return integrators.NewRK45() }

	return r
}

// Register adds or replaces an integrator factory.
func (r *Registry) Register(name string, fn func() dynamo.AdaptiveIntegrator) {
	r.integrators[name] = fn
}

func (r *Registry) GetIntegrator(name string) (dynamo.AdaptiveIntegrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	return slices.Sorted(maps.Keys(r.integrators))
}

// DefaultMetrics returns fresh instances of the metrics attached to every run.
func (r *Registry) DefaultMetrics() []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewInventoryDrift(),
		metrics.NewMinQuantity(),
		metrics.NewNegativity(NegativityThreshold),
	}
}
