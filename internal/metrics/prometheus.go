package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/san-kum/transmute/internal/dynamo"
)

// Prometheus exports solver progress as Prometheus collectors. It is a
// dynamo.Observer; attach it with Solver.AddObserver.
type Prometheus struct {
	steps     prometheus.Counter
	time      prometheus.Gauge
	inventory prometheus.Gauge
	stepSize  prometheus.Histogram
}

// NewPrometheus registers the solver collectors on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		steps: f.NewCounter(prometheus.CounterOpts{
			Name: "transmute_solver_steps_total",
			Help: "Total number of accepted integrator steps",
		}),
		time: f.NewGauge(prometheus.GaugeOpts{
			Name: "transmute_solver_time_seconds",
			Help: "Simulated time reached in the current interval",
		}),
		inventory: f.NewGauge(prometheus.GaugeOpts{
			Name: "transmute_inventory_total",
			Help: "Sum of all tracked quantities after the last step",
		}),
		stepSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "transmute_solver_step_seconds",
			Help:    "Length of accepted integrator steps in simulated seconds",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, 18),
		}),
	}
}

func (p *Prometheus) OnStep(x dynamo.State, t, dt float64) {
	p.steps.Inc()
	p.time.Set(t)
	p.inventory.Set(x.Sum())
	p.stepSize.Observe(dt)
}

// WriteTextfile writes every metric gathered by g in the node-exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
