package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector backed by Prometheus.
//
// Metrics are created and registered on first use, so constructing a
// collector that is never exercised leaves the registry untouched.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	generations     *prometheus.CounterVec
	placed          prometheus.Counter
	unscheduled     prometheus.Counter
	generateLatency *prometheus.HistogramVec
	shortages       prometheus.Counter
	shiftLoad       *prometheus.GaugeVec
	conflicts       prometheus.Counter
	reportWarnings  *prometheus.CounterVec
	schedulerRuns   *prometheus.CounterVec
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheus creates a Prometheus-backed collector.
//
// reg defaults to prometheus.DefaultRegisterer and namespace to "roster".
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "roster"
	}
	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.generations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "generations_total",
			Help:      "Total generated week plans by mode (balance, seed).",
		}, []string{"mode"})
		p.placed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "workers_placed_total",
			Help:      "Total workers placed on a shift by generation.",
		})
		p.unscheduled = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "workers_unscheduled_total",
			Help:      "Total active workers the generator could not place.",
		})
		p.generateLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "generate_seconds",
			Help:      "Latency of week generation including persistence.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
		}, []string{"mode"})
		p.shortages = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "equipment",
			Name:      "shortages_total",
			Help:      "Total workers left without required equipment.",
		})
		p.shiftLoad = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "planner",
			Name:      "shift_load",
			Help:      "Head count per shift of the most recently generated plan.",
		}, []string{"shift"})
		p.conflicts = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "store",
			Name:      "plan_conflicts_total",
			Help:      "Total plan writes rejected by the optimistic version check.",
		})
		p.reportWarnings = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "report",
			Name:      "warnings_total",
			Help:      "Total report warnings by code.",
		}, []string{"code"})
		p.schedulerRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Total scheduler runs per tenant by result (generated, skipped, failed).",
		}, []string{"result"})

		p.reg.MustRegister(
			p.generations, p.placed, p.unscheduled, p.generateLatency, p.shortages,
			p.shiftLoad, p.conflicts, p.reportWarnings, p.schedulerRuns,
		)
	})
}

func (p *PrometheusCollector) RecordGeneration(mode string, placed, unscheduled int, seconds float64) {
	p.ensureRegistered()
	p.generations.WithLabelValues(mode).Inc()
	p.placed.Add(float64(placed))
	p.unscheduled.Add(float64(unscheduled))
	p.generateLatency.WithLabelValues(mode).Observe(seconds)
}

func (p *PrometheusCollector) RecordShortages(n int) {
	p.ensureRegistered()
	p.shortages.Add(float64(n))
}

func (p *PrometheusCollector) SetShiftLoad(shift string, n int) {
	p.ensureRegistered()
	p.shiftLoad.WithLabelValues(shift).Set(float64(n))
}

func (p *PrometheusCollector) RecordConflict() {
	p.ensureRegistered()
	p.conflicts.Inc()
}

func (p *PrometheusCollector) RecordReportWarning(code string, n int) {
	p.ensureRegistered()
	p.reportWarnings.WithLabelValues(code).Add(float64(n))
}

func (p *PrometheusCollector) RecordSchedulerRun(result string) {
	p.ensureRegistered()
	p.schedulerRuns.WithLabelValues(result).Inc()
}
