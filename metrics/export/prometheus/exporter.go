// Package prometheus bridges authcore counters into a Prometheus
// registry via client_golang. The bridge is a Collector: scrapes read
// the live snapshot, so no push or sync loop is needed.
package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventhive/authcore"
	"github.com/eventhive/authcore/metrics/export/internaldefs"
)

// MetricsSource is the read surface the exporter needs. *authcore.AuthService
// satisfies it.
type MetricsSource interface {
	MetricsSnapshot() authcore.MetricsSnapshot
	AuditDropped() uint64
}

// Exporter implements prometheus.Collector over an authcore snapshot.
type Exporter struct {
	source      MetricsSource
	descs       map[authcore.MetricID]*prometheus.Desc
	droppedDesc *prometheus.Desc
}

var _ prometheus.Collector = (*Exporter)(nil)

// NewExporter creates a collector reading from the given source.
func NewExporter(source MetricsSource) *Exporter {
	descs := make(map[authcore.MetricID]*prometheus.Desc, len(internaldefs.CounterDefs))
	for _, def := range internaldefs.CounterDefs {
		descs[def.ID] = prometheus.NewDesc(def.Name, def.Help, nil, nil)
	}
	return &Exporter{
		source:      source,
		descs:       descs,
		droppedDesc: prometheus.NewDesc(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, nil, nil),
	}
}

func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range e.descs {
		ch <- desc
	}
	ch <- e.droppedDesc
}

func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	snapshot := e.source.MetricsSnapshot()
	for _, def := range internaldefs.CounterDefs {
		ch <- prometheus.MustNewConstMetric(
			e.descs[def.ID], prometheus.CounterValue, float64(snapshot.Counters[def.ID]))
	}
	ch <- prometheus.MustNewConstMetric(
		e.droppedDesc, prometheus.CounterValue, float64(e.source.AuditDropped()))
}

// Handler registers the exporter in a fresh registry and returns a scrape
// handler, for deployments without a shared registry.
func Handler(source MetricsSource) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewExporter(source))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
