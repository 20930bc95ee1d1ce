package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "school_reports"

// Metrics holds the Prometheus counters, histograms, and gauges for the service
// and the offline data pipeline.
type Metrics struct {
	// Report workflow.
	ReportsSubmitted prometheus.Counter
	ReportsDeleted   prometheus.Counter
	ValidationErrors prometheus.Counter
	ReportsStored    prometheus.Gauge

	// Durable file writes.
	PersistErrors   prometheus.Counter
	PersistDuration prometheus.Histogram

	AdminLogins     *prometheus.CounterVec // labels: outcome={unlocked,wrong_password,empty}
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}

	SchoolsLoaded prometheus.Gauge

	// Offline pipeline.
	ScrapeRequests     *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.ReportsSubmitted,
		m.ReportsDeleted,
		m.ValidationErrors,
		m.ReportsStored,
		m.PersistErrors,
		m.PersistDuration,
		m.AdminLogins,
		m.EventsPublished,
		m.SchoolsLoaded,
		m.ScrapeRequests,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

// NewStandaloneMetrics creates Metrics that are never registered, for
// command-line runs that do not serve /metrics.
func NewStandaloneMetrics() *Metrics {
	return newMetrics(true)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}

	return &Metrics{
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submitted_total",
			Help:      help("Total reports accepted by the store."),
		}),
		ReportsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deleted_total",
			Help:      help("Total reports removed by an admin."),
		}),
		ValidationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      help("Report submissions rejected for missing or unknown fields."),
		}),
		ReportsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored",
			Help:      help("Reports currently held by the store."),
		}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      help("Failed writes of the durable report file."),
		}),
		PersistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      help("Duration of a full report file rewrite."),
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		AdminLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_logins_total",
			Help:      help("Admin gate attempts by outcome."),
		}, []string{"outcome"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      help("Report events handed to the event publisher by outcome."),
		}, []string{"outcome"}),
		SchoolsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "schools_loaded",
			Help:      help("School records in the catalog."),
		}),
		ScrapeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_requests_total",
			Help:      help("School search API page requests by outcome."),
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      help("Geocoding API requests by outcome."),
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      help("Geocoding cache lookups by result."),
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      help("Mapbox API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
