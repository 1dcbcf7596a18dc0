package prometheus

import (
	"net/http"

	authcore "github.com/casekit/authcore"
	"github.com/casekit/authcore/metrics/export/internaldefs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsSource interface {
	MetricsSnapshot() authcore.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter is a [prometheus.Collector] that reads a point-in-time snapshot
// from the core on every scrape. Nothing is cached between scrapes.
type Exporter struct {
	source         metricsSource
	counters       map[authcore.MetricID]*prometheus.Desc
	histograms     map[authcore.MetricID]*prometheus.Desc
	droppedDesc    *prometheus.Desc
	counterOrder   []internaldefs.CounterDef
	histogramOrder []internaldefs.HistogramDef
}

// NewExporter creates an Exporter that reads from the given
// [authcore.Provider].
func NewExporter(provider *authcore.Provider) *Exporter {
	return NewExporterFromSource(provider)
}

// NewExporterFromSource creates an Exporter from a custom snapshot source.
func NewExporterFromSource(source metricsSource) *Exporter {
	e := &Exporter{
		source:         source,
		counters:       make(map[authcore.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs)),
		histograms:     make(map[authcore.MetricID]*prometheus.Desc, len(internaldefs.HistogramDefs)),
		counterOrder:   internaldefs.CounterDefs,
		histogramOrder: internaldefs.HistogramDefs,
		droppedDesc: prometheus.NewDesc(
			"authcore_audit_dropped_total",
			"Audit events dropped by dispatcher backpressure.",
			nil, nil,
		),
	}
	for _, def := range internaldefs.CounterDefs {
		e.counters[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	for _, def := range internaldefs.HistogramDefs {
		e.histograms[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	return e
}

// Describe implements [prometheus.Collector].
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, def := range e.counterOrder {
		ch <- e.counters[def.ID]
	}
	for _, def := range e.histogramOrder {
		ch <- e.histograms[def.ID]
	}
	ch <- e.droppedDesc
}

// Collect implements [prometheus.Collector].
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	if e == nil || e.source == nil {
		return
	}

	snapshot := e.source.MetricsSnapshot()

	for _, def := range e.counterOrder {
		ch <- prometheus.MustNewConstMetric(
			e.counters[def.ID],
			prometheus.CounterValue,
			float64(snapshot.Counters[def.ID]),
		)
	}

	for _, def := range e.histogramOrder {
		raw := internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])
		cumulative := internaldefs.CumulativeBuckets(raw)

		buckets := make(map[float64]uint64, len(internaldefs.HistogramBounds))
		for i, bound := range internaldefs.HistogramBounds {
			buckets[bound] = cumulative[i]
		}
		count := cumulative[len(cumulative)-1]

		// The core tracks bucket counts only; the sum is not available.
		ch <- prometheus.MustNewConstHistogram(e.histograms[def.ID], count, 0, buckets)
	}

	ch <- prometheus.MustNewConstMetric(
		e.droppedDesc,
		prometheus.CounterValue,
		float64(e.source.AuditDropped()),
	)
}

// Handler returns an http.Handler serving this exporter from a private
// registry. Nothing is registered globally.
func (e *Exporter) Handler() http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(e)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
