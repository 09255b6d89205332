// Package metrics collects ETL run counters on a private registry and exports
// them in the Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for processed files and finished runs.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors of one ETL run.
type Metrics struct {
	reg *prometheus.Registry

	filesTotal     *prometheus.CounterVec
	fileDuration   *prometheus.HistogramVec
	rowsTotal      *prometheus.CounterVec
	lookupsTotal   *prometheus.CounterVec
	runDuration    prometheus.Gauge
	runLastSuccess prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,

		// filesTotal counts source files by dataset and outcome.
		filesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkify_files_processed_total",
			Help: "Total number of source files processed",
		}, []string{"dataset", "outcome"}),

		fileDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sparkify_file_duration_seconds",
			Help:    "Time spent loading one source file, transaction included",
			Buckets: prometheus.DefBuckets,
		}, []string{"dataset"}),

		// rowsTotal counts committed insert statements per table, conflicts included.
		rowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkify_rows_offered_total",
			Help: "Total number of rows offered to each table",
		}, []string{"table"}),

		lookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sparkify_song_lookups_total",
			Help: "Total number of song lookups by result",
		}, []string{"result"}),

		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sparkify_run_duration_seconds",
			Help: "Duration of the last ETL run",
		}),

		runLastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sparkify_run_last_success_timestamp_seconds",
			Help: "Unix time of the last successful ETL run",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// FileProcessed records one file's outcome and duration.
func (m *Metrics) FileProcessed(dataset string, dur time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.filesTotal.WithLabelValues(dataset, outcome).Inc()
	m.fileDuration.WithLabelValues(dataset).Observe(dur.Seconds())
}

// RowsOffered adds n committed insert statements for table. Rows skipped by
// ON CONFLICT DO NOTHING are counted too.
func (m *Metrics) RowsOffered(table string, n int) {
	if n <= 0 {
		return
	}
	m.rowsTotal.WithLabelValues(table).Add(float64(n))
}

// Lookups records song lookup hits and misses.
func (m *Metrics) Lookups(hits, misses int) {
	if hits > 0 {
		m.lookupsTotal.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		m.lookupsTotal.WithLabelValues("miss").Add(float64(misses))
	}
}

// RunFinished sets the run gauges. The success timestamp only moves on success.
func (m *Metrics) RunFinished(finished time.Time, dur time.Duration, err error) {
	m.runDuration.Set(dur.Seconds())
	if err == nil {
		m.runLastSuccess.Set(float64(finished.Unix()))
	}
}

// WriteTextfile atomically writes every collected metric to path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
