// Package metrics holds the Prometheus instruments of a translation run.
// Each Metrics owns its registry so runs and tests never share counters.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

type Metrics struct {
	Registry *prometheus.Registry

	// CyclesTotal tracks page cycles by final status
	CyclesTotal *prometheus.CounterVec
	// BatchesTotal tracks batches by outcome (translated, fallback)
	BatchesTotal *prometheus.CounterVec
	// RetriesTotal tracks scheduled retries by error kind
	RetriesTotal *prometheus.CounterVec
	// ErrorsTotal tracks classified failures by error kind
	ErrorsTotal *prometheus.CounterVec
	// AppliedTotal tracks document nodes rewritten
	AppliedTotal prometheus.Counter
	// SkippedWritesTotal tracks document writes that failed
	SkippedWritesTotal prometheus.Counter
	// BatchLatency tracks one translation request
	BatchLatency *prometheus.HistogramVec
	// CatalogUnits is the size of the last extracted catalog
	CatalogUnits prometheus.Gauge
	// CacheLookupsTotal tracks translation cache lookups by result (hit, miss)
	CacheLookupsTotal *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		CyclesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagetrans_cycles_total",
				Help: "Total number of page translation cycles",
			},
			[]string{"status"},
		),
		BatchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagetrans_batches_total",
				Help: "Total number of batches processed",
			},
			[]string{"outcome"},
		),
		RetriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagetrans_retries_total",
				Help: "Total number of retried translation requests",
			},
			[]string{"kind"},
		),
		ErrorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagetrans_errors_total",
				Help: "Total number of classified translation failures",
			},
			[]string{"kind"},
		),
		AppliedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "pagetrans_applied_nodes_total",
			Help: "Total number of document nodes updated",
		}),
		SkippedWritesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "pagetrans_skipped_writes_total",
			Help: "Total number of document writes skipped after a failure",
		}),
		BatchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pagetrans_request_latency_seconds",
				Help:    "Translation request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		CatalogUnits: f.NewGauge(prometheus.GaugeOpts{
			Name: "pagetrans_catalog_units",
			Help: "Number of text units in the last extracted catalog",
		}),
		CacheLookupsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagetrans_cache_lookups_total",
				Help: "Total number of translation cache lookups",
			},
			[]string{"result"},
		),
	}
}

// The observe helpers accept a nil receiver so callers can run without metrics.

func (m *Metrics) ObserveCycle(status string) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveBatch(outcome string) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveError(kind string, retried bool) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind).Inc()
	if retried {
		m.RetriesTotal.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ObserveRequest(backend string, d time.Duration) {
	if m == nil {
		return
	}
	m.BatchLatency.WithLabelValues(backend).Observe(d.Seconds())
}

func (m *Metrics) ObserveApply(applied, skipped int) {
	if m == nil {
		return
	}
	m.AppliedTotal.Add(float64(applied))
	m.SkippedWritesTotal.Add(float64(skipped))
}

func (m *Metrics) SetCatalogUnits(n int) {
	if m == nil {
		return
	}
	m.CatalogUnits.Set(float64(n))
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}

// Totals is a flat summary of the counters, for end-of-run logging.
type Totals struct {
	Cycles  float64
	Batches float64
	Retries float64
	Errors  float64
	Applied float64
	Skipped float64
	// CacheHits counts cache lookups that avoided a backend call.
	CacheHits float64
}

func (m *Metrics) Totals() (Totals, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return Totals{}, fmt.Errorf("failed to gather metrics: %w", err)
	}
	var t Totals
	for _, mf := range families {
		sum := sumCounters(mf)
		switch mf.GetName() {
		case "pagetrans_cycles_total":
			t.Cycles = sum
		case "pagetrans_batches_total":
			t.Batches = sum
		case "pagetrans_retries_total":
			t.Retries = sum
		case "pagetrans_errors_total":
			t.Errors = sum
		case "pagetrans_applied_nodes_total":
			t.Applied = sum
		case "pagetrans_skipped_writes_total":
			t.Skipped = sum
		case "pagetrans_cache_lookups_total":
			for _, metric := range mf.GetMetric() {
				for _, lp := range metric.GetLabel() {
					if lp.GetName() == "result" && lp.GetValue() == "hit" {
						t.CacheHits += metric.GetCounter().GetValue()
					}
				}
			}
		}
	}
	return t, nil
}

func sumCounters(mf *dto.MetricFamily) float64 {
	if mf.GetType() != dto.MetricType_COUNTER {
		return 0
	}
	var sum float64
	for _, m := range mf.GetMetric() {
		sum += m.GetCounter().GetValue()
	}
	return sum
}
