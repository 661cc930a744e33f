// Package metrics records settlement processing metrics with Prometheus.
//
// The server exposes them on /metrics; the CLI can write them to a
// node_exporter textfile after a batch.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the settlement collectors on a private registry.
type Registry struct {
	reg *prometheus.Registry

	Files         *prometheus.CounterVec
	Records       *prometheus.CounterVec
	FileDuration  *prometheus.HistogramVec
	Batches       prometheus.Counter
	BatchRecords  prometheus.Histogram
	BatchDuration prometheus.Histogram
	HTTPRequests  *prometheus.CounterVec
}

// NewRegistry creates a Registry with every settlement collector
// registered on a private prometheus.Registry.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	files := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_files_total",
		Help: "Settlement files processed, by partner format and outcome.",
	}, []string{"format", "status"})
	records := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_records_total",
		Help: "Canonical records extracted, by partner format.",
	}, []string{"format"})
	fileDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_file_duration_seconds",
		Help:    "Time to read and map one settlement file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_batches_total",
		Help: "Settlement batches completed.",
	})
	batchRecords := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_batch_records",
		Help:    "Records in the unified table of a batch.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})
	batchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_batch_duration_seconds",
		Help:    "Wall time of one settlement batch.",
		Buckets: prometheus.DefBuckets,
	})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_http_requests_total",
		Help: "HTTP requests served, by route and status code.",
	}, []string{"route", "code"})

	r.MustRegister(files, records, fileDuration, batches, batchRecords, batchDuration, httpRequests)
	return &Registry{
		reg:           r,
		Files:         files,
		Records:       records,
		FileDuration:  fileDuration,
		Batches:       batches,
		BatchRecords:  batchRecords,
		BatchDuration: batchDuration,
		HTTPRequests:  httpRequests,
	}
}

// ObserveFile records the outcome of one file.
func (r *Registry) ObserveFile(format, status string, records int, d time.Duration) {
	r.Files.WithLabelValues(format, status).Inc()
	if records > 0 {
		r.Records.WithLabelValues(format).Add(float64(records))
	}
	if d > 0 {
		r.FileDuration.WithLabelValues(format).Observe(d.Seconds())
	}
}

// ObserveBatch records a completed batch.
func (r *Registry) ObserveBatch(files, records int, d time.Duration) {
	r.Batches.Inc()
	r.BatchRecords.Observe(float64(records))
	r.BatchDuration.Observe(d.Seconds())
}

// ObserveRequest counts one HTTP response.
func (r *Registry) ObserveRequest(route string, code int) {
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// WriteTextfile writes every metric to path in the Prometheus text
// exposition format, replacing the file atomically.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
