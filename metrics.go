package filter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sectrean/filter-kit/internal/errors"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomePanic = "panic"
)

// Metrics holds the Prometheus instruments updated by a [Gate].
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	dispatches *prometheus.CounterVec
	active     prometheus.Gauge
	duration   prometheus.Histogram
}

// NewMetrics creates the gate instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, errors.New("filter.NewMetrics: reg is nil")
	}

	m := &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "filterkit",
				Name:      "dispatches_total",
				Help:      "Cumulative number of dispatches through the gate, by outcome.",
			}, []string{"outcome"}),
		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "filterkit",
				Name:      "active_dispatches",
				Help:      "Number of dispatches currently in flight.",
			}),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "filterkit",
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent in the pipeline per dispatch.",
				Buckets:   prometheus.DefBuckets,
			}),
	}

	var errs errors.MultiError
	for _, c := range []prometheus.Collector{m.dispatches, m.active, m.duration} {
		errs = errs.Append(reg.Register(c))
	}
	if err := errs.Wrap("filter.NewMetrics"); err != nil {
		return nil, err
	}

	return m, nil
}

// begin records the start of a dispatch. The returned func records its end.
func (m *Metrics) begin() func(outcome string) {
	if m == nil {
		return func(string) {}
	}

	start := time.Now()
	m.active.Inc()

	return func(outcome string) {
		m.active.Dec()
		m.duration.Observe(time.Since(start).Seconds())
		m.dispatches.WithLabelValues(outcome).Inc()
	}
}
