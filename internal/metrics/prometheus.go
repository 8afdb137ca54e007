// Package metrics exposes generation and HTTP metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"agri-price-backend/internal/synth"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agri"

// Recorder implements synth.Recorder using Prometheus.
type Recorder struct {
	gatherer prometheus.Gatherer

	runsTotal     prometheus.Counter
	daysTotal     prometheus.Counter
	eventsTotal   *prometheus.CounterVec
	clampedTotal  prometheus.Counter
	runDuration   prometheus.Histogram
	failuresTotal *prometheus.CounterVec
	seriesDays    prometheus.Gauge
	latestIndex   prometheus.Gauge

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ synth.Recorder = (*Recorder)(nil)

// New registers the collectors on reg. A nil reg uses a private registry.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Recorder{
		gatherer: reg,
		runsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synth_runs_total",
			Help:      "Total number of completed synthesis runs",
		}),
		daysTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synth_days_total",
			Help:      "Total number of generated day records",
		}),
		eventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synth_events_total",
			Help:      "Random market events injected, by label",
		}, []string{"event"}),
		clampedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synth_clamped_total",
			Help:      "Days whose composed change hit the daily limit",
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synth_run_duration_seconds",
			Help:      "Duration of synthesis runs in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		failuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_failures_total",
			Help:      "Failed generation attempts, by stage",
		}, []string{"stage"}),
		seriesDays: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "series_days",
			Help:      "Number of records currently served",
		}),
		latestIndex: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latest_index_value",
			Help:      "Index value of the newest served record",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "method", "class"}),
	}
}

// RecordRun records one synthesis run.
func (r *Recorder) RecordRun(stats synth.RunStats) {
	r.runsTotal.Inc()
	r.daysTotal.Add(float64(stats.Days))
	r.clampedTotal.Add(float64(stats.Clamped))
	r.runDuration.Observe(stats.Duration.Seconds())
	for label, n := range stats.Events {
		r.eventsTotal.WithLabelValues(label).Add(float64(n))
	}
}

// RecordFailure counts a failed generation stage (synthesize, persist, load).
func (r *Recorder) RecordFailure(stage string) {
	r.failuresTotal.WithLabelValues(stage).Inc()
}

// RecordSeries tracks the dataset currently served.
func (r *Recorder) RecordSeries(days int, latestIndex float64) {
	r.seriesDays.Set(float64(days))
	r.latestIndex.Set(latestIndex)
}

// RecordHTTP records one request. route should be the templated path.
func (r *Recorder) RecordHTTP(route, method string, status int, d time.Duration) {
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route, method, statusClass(status)).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

func statusClass(code int) string {
	switch {
	case code >= 100 && code < 200:
		return "1xx"
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
