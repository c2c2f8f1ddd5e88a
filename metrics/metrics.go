// Package metrics exposes Prometheus instrumentation for the job
// pipeline: dispatch counts by codec and outcome, watchdog-forced
// hardware resets, spurious interrupts and the in-flight gauge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one device. All methods are safe on
// a nil receiver so instrumentation can be disabled by wiring nil.
type Metrics struct {
	jobsTotal      *prometheus.CounterVec
	jobsInFlight   prometheus.Gauge
	watchdogResets prometheus.Counter
	spuriousIRQs   prometheus.Counter
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vecore",
			Name:      "jobs_total",
			Help:      "Completed hardware jobs by codec and outcome.",
		}, []string{"codec", "outcome"}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vecore",
			Name:      "jobs_in_flight",
			Help:      "Hardware jobs currently dispatched and not completed.",
		}),
		watchdogResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vecore",
			Name:      "watchdog_resets_total",
			Help:      "Hardware resets forced by the job watchdog.",
		}),
		spuriousIRQs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vecore",
			Name:      "spurious_irqs_total",
			Help:      "Interrupts received with no job to attribute them to.",
		}),
	}

	reg.MustRegister(m.jobsTotal, m.jobsInFlight, m.watchdogResets, m.spuriousIRQs)
	return m
}

// JobStarted records a job dispatch.
func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.jobsInFlight.Inc()
}

// JobFinished records a job completion with its outcome label.
func (m *Metrics) JobFinished(codec, outcome string) {
	if m == nil {
		return
	}
	m.jobsInFlight.Dec()
	m.jobsTotal.WithLabelValues(codec, outcome).Inc()
}

// WatchdogReset records a watchdog-forced hardware reset.
func (m *Metrics) WatchdogReset() {
	if m == nil {
		return
	}
	m.watchdogResets.Inc()
}

// SpuriousIRQ records an interrupt with no attributable job.
func (m *Metrics) SpuriousIRQ() {
	if m == nil {
		return
	}
	m.spuriousIRQs.Inc()
}
