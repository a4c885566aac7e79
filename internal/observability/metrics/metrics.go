package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// NewRegistry returns the registry served on /metrics.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Metrics captures metering and billing health signals.
type Metrics struct {
	usageTracked     *prometheus.CounterVec
	usageAmount      *prometheus.CounterVec
	limitRejections  *prometheus.CounterVec
	licenseEvents    *prometheus.CounterVec
	invoices         *prometheus.CounterVec
	invoiceTotal     *prometheus.CounterVec
	sweepRuns        *prometheus.CounterVec
	sweepDuration    prometheus.Histogram
	sweepFactories   prometheus.Counter
	versionConflicts prometheus.Counter

	otel *otelInstruments
}

// New registers the engine collectors. A nil registerer yields unregistered
// collectors, which keeps tests isolated.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		usageTracked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factorylicense_usage_track_total",
			Help: "Usage tracking calls by usage type and outcome.",
		}, []string{"usage_type", "outcome"}),
		usageAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factorylicense_usage_amount_total",
			Help: "Units of usage accepted by usage type.",
		}, []string{"usage_type"}),
		limitRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factorylicense_usage_limit_exceeded_total",
			Help: "Usage calls rejected because a plan limit would be exceeded.",
		}, []string{"usage_type"}),
		licenseEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factorylicense_license_events_total",
			Help: "License lifecycle transitions.",
		}, []string{"event"}),
		invoices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factorylicense_invoices_generated_total",
			Help: "Invoices generated by currency.",
		}, []string{"currency"}),
		invoiceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factorylicense_invoice_amount_total",
			Help: "Sum of generated invoice totals by currency.",
		}, []string{"currency"}),
		sweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factorylicense_sweep_runs_total",
			Help: "Metering sweep runs by outcome.",
		}, []string{"outcome"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "factorylicense_sweep_duration_seconds",
			Help:    "Wall time of a metering sweep.",
			Buckets: prometheus.DefBuckets,
		}),
		sweepFactories: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factorylicense_sweep_factories_total",
			Help: "Factories recomputed by the metering sweep.",
		}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factorylicense_license_version_conflicts_total",
			Help: "Optimistic concurrency conflicts on license writes.",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.usageTracked, m.usageAmount, m.limitRejections, m.licenseEvents,
		m.invoices, m.invoiceTotal, m.sweepRuns, m.sweepDuration,
		m.sweepFactories, m.versionConflicts,
	} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveUsage(usageType, outcome string, amount int64) {
	if m == nil {
		return
	}
	m.usageTracked.WithLabelValues(usageType, outcome).Inc()
	if outcome == OutcomeAccepted && amount > 0 {
		m.usageAmount.WithLabelValues(usageType).Add(float64(amount))
		m.otel.addUsage(usageType, amount)
	}
	if outcome == OutcomeRejected {
		m.limitRejections.WithLabelValues(usageType).Inc()
	}
}

func (m *Metrics) IncLicenseEvent(event string) {
	if m == nil {
		return
	}
	m.licenseEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveInvoice(currency string, total float64) {
	if m == nil {
		return
	}
	m.invoices.WithLabelValues(currency).Inc()
	m.invoiceTotal.WithLabelValues(currency).Add(total)
	m.otel.addInvoice(currency)
}

func (m *Metrics) ObserveSweep(outcome string, factories int, d time.Duration) {
	if m == nil {
		return
	}
	m.sweepRuns.WithLabelValues(outcome).Inc()
	m.sweepDuration.Observe(d.Seconds())
	m.sweepFactories.Add(float64(factories))
}

func (m *Metrics) IncVersionConflict() {
	if m == nil {
		return
	}
	m.versionConflicts.Inc()
}
