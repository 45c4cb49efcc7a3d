package pipeline

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage labels.
const (
	stageConvert = "convert"
	stagePersist = "persist"
)

// Status labels.
const (
	statusOK      = "ok"
	statusFailed  = "failed"
	statusSkipped = "skipped"
)

type metrics struct {
	units       *prometheus.CounterVec
	outstanding prometheus.Gauge
}

// newMetrics creates the pipeline collectors and registers them on reg if
// it is not nil. Collectors already registered by an earlier pipeline are
// reused.
func newMetrics(reg prometheus.Registerer, name string) *metrics {
	m := &metrics{
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "citydb",
			Subsystem:   "pipeline",
			Name:        "units_total",
			Help:        "Units processed by pipeline stage and outcome.",
			ConstLabels: prometheus.Labels{"pipeline": name},
		}, []string{"stage", "status"}),
		outstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "citydb",
			Subsystem:   "pipeline",
			Name:        "outstanding_units",
			Help:        "Units submitted but not yet resolved.",
			ConstLabels: prometheus.Labels{"pipeline": name},
		}),
	}
	if reg == nil {
		return m
	}
	m.units = register(reg, m.units)
	m.outstanding = register(reg, m.outstanding)
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *metrics) unit(stage, status string) {
	m.units.WithLabelValues(stage, status).Inc()
}
