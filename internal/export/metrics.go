package export

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the export counters. A nil *Metrics records nothing.
type Metrics struct {
	runs        prometheus.Counter
	runDuration prometheus.Histogram
	records     *prometheus.CounterVec
	skipped     *prometheus.CounterVec
	duplicates  prometheus.Counter
	marked      prometheus.Counter
	markRaces   prometheus.Counter
	failures    *prometheus.CounterVec
}

// NewMetrics creates the export metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "legalhold",
			Subsystem: "export",
			Name:      "runs_total",
			Help:      "Export runs started.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "legalhold",
			Subsystem: "export",
			Name:      "run_duration_seconds",
			Help:      "Wall time of complete export runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legalhold",
			Subsystem: "export",
			Name:      "records_total",
			Help:      "Records emitted to the sink, by record type.",
		}, []string{"type"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legalhold",
			Subsystem: "export",
			Name:      "skipped_total",
			Help:      "Events left out of the export, by reason.",
		}, []string{"reason"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "legalhold",
			Subsystem: "export",
			Name:      "duplicates_total",
			Help:      "Redelivered events dropped by the dedup key.",
		}),
		marked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "legalhold",
			Subsystem: "export",
			Name:      "marked_total",
			Help:      "Events marked exported.",
		}),
		markRaces: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "legalhold",
			Subsystem: "export",
			Name:      "mark_races_total",
			Help:      "Mark calls that found the event already exported.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legalhold",
			Subsystem: "export",
			Name:      "failures_total",
			Help:      "Failed emit or mark operations.",
		}, []string{"stage"}),
	}

	if reg != nil {
		reg.MustRegister(m.runs, m.runDuration, m.records, m.skipped, m.duplicates, m.marked, m.markRaces, m.failures)
	}
	return m
}

func (m *Metrics) runStarted() {
	if m != nil {
		m.runs.Inc()
	}
}

func (m *Metrics) runFinished(seconds float64) {
	if m != nil {
		m.runDuration.Observe(seconds)
	}
}

func (m *Metrics) emitted(t string) {
	if m != nil {
		m.records.WithLabelValues(t).Inc()
	}
}

func (m *Metrics) skip(reason string) {
	if m != nil {
		m.skipped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) duplicate() {
	if m != nil {
		m.duplicates.Inc()
	}
}

func (m *Metrics) markedOne() {
	if m != nil {
		m.marked.Inc()
	}
}

func (m *Metrics) markRace() {
	if m != nil {
		m.markRaces.Inc()
	}
}

func (m *Metrics) failure(stage string) {
	if m != nil {
		m.failures.WithLabelValues(stage).Inc()
	}
}
