package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters and histograms for availability generation and order ingestion.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	generateDuration prometheus.Histogram
	daysReturned     prometheus.Histogram
	cacheLookups     *prometheus.CounterVec
	orderEvents      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookavail",
			Subsystem: "availability",
			Name:      "requests_total",
			Help:      "Availability requests by outcome",
		}, []string{"outcome"}),
		generateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bookavail",
			Subsystem: "availability",
			Name:      "generate_seconds",
			Help:      "Time spent generating availability, store fetches included",
			Buckets:   prometheus.DefBuckets,
		}),
		daysReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bookavail",
			Subsystem: "availability",
			Name:      "days",
			Help:      "Number of days with open slots per response",
			Buckets:   []float64{0, 1, 7, 14, 31, 62, 93, 186, 366},
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookavail",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Availability cache lookups by result",
		}, []string{"result"}),
		orderEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookavail",
			Subsystem: "orders",
			Name:      "events_total",
			Help:      "Order events consumed by type and status",
		}, []string{"type", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.generateDuration, m.daysReturned, m.cacheLookups, m.orderEvents)
	return m
}

func (m *Metrics) ObserveGenerate(outcome string, seconds float64, days int) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(outcome).Inc()
	m.generateDuration.Observe(seconds)
	if outcome == "ok" {
		m.daysReturned.Observe(float64(days))
	}
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveOrderEvent(eventType, status string) {
	if m == nil {
		return
	}
	m.orderEvents.WithLabelValues(eventType, status).Inc()
}
