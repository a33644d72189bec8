package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the acquisition flow.
type Metrics struct {
	FetchTotal        *prometheus.CounterVec // labels: outcome={success,http_error,error}
	FetchDuration     prometheus.Histogram
	TicksSkipped      prometheus.Counter
	LocationFallbacks *prometheus.CounterVec // labels: reason={unavailable,denied,timeout,error}
	PollerActive      prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchTotal,
		m.FetchDuration,
		m.TicksSkipped,
		m.LocationFallbacks,
		m.PollerActive,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_now",
			Name:      "fetch_total",
			Help:      "Weather fetch cycles by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_now",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a weather fetch cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		TicksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_now",
			Name:      "ticks_skipped_total",
			Help:      "Poll ticks skipped because the previous cycle was still in flight.",
		}),
		LocationFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_now",
			Name:      "location_fallbacks_total",
			Help:      "Acquisitions that fell back to the default coordinate, by reason.",
		}, []string{"reason"}),
		PollerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_now",
			Name:      "poller_active",
			Help:      "1 while the poller is active, 0 otherwise.",
		}),
	}
}
