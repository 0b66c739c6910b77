// Package observability holds the Prometheus metrics of the pipeline.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "valuator"

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	LastSuccessTime *prometheus.GaugeVec

	// Ingestion metrics
	SyncSymbolsTotal *prometheus.CounterVec
	SyncPointsTotal  prometheus.Counter

	// Valuation metrics
	ValuationsTotal    *prometheus.CounterVec
	PEValuation        *prometheus.GaugeVec
	NetProfitValuation *prometheus.GaugeVec

	// Export metrics
	ExportedSymbols prometheus.Gauge
}

// runBuckets cover a quick export up to a full cold backfill (in seconds)
var runBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600}

// NewMetrics creates all metrics on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total number of pipeline runs by mode and status",
			},
			[]string{"mode", "status"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "duration_seconds",
				Help:      "Duration of pipeline runs in seconds",
				Buckets:   runBuckets,
			},
			[]string{"mode"},
		),
		LastSuccessTime: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run per mode",
			},
			[]string{"mode"},
		),
		SyncSymbolsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingestion",
				Name:      "symbols_total",
				Help:      "Symbols fetched by data kind and status",
			},
			[]string{"kind", "status"},
		),
		SyncPointsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingestion",
				Name:      "price_points_total",
				Help:      "Price points written to the store",
			},
		),
		ValuationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "valuation",
				Name:      "symbols_total",
				Help:      "Valuation outcomes by status and skip reason",
			},
			[]string{"status", "reason"},
		),
		PEValuation: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "valuation",
				Name:      "pe_ratio",
				Help:      "Current PE over reasonable PE per symbol",
			},
			[]string{"symbol"},
		),
		NetProfitValuation: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "valuation",
				Name:      "net_profit_ratio",
				Help:      "Market cap over forecast-implied value per symbol",
			},
			[]string{"symbol"},
		),
		ExportedSymbols: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "export",
				Name:      "symbols",
				Help:      "Symbols written by the last export",
			},
		),
	}
}

// Registry exposes the registry for gathering
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRun records one finished pipeline run
func (m *Metrics) RecordRun(mode string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	} else {
		m.LastSuccessTime.WithLabelValues(mode).SetToCurrentTime()
	}
	m.RunsTotal.WithLabelValues(mode, status).Inc()
	m.RunDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordSync records an ingestion pass of kind "prices" or "forecasts"
func (m *Metrics) RecordSync(kind string, succeeded, failed, points int) {
	m.SyncSymbolsTotal.WithLabelValues(kind, "ok").Add(float64(succeeded))
	m.SyncSymbolsTotal.WithLabelValues(kind, "failed").Add(float64(failed))
	if points > 0 {
		m.SyncPointsTotal.Add(float64(points))
	}
}

// RecordValuation records one symbol outcome
func (m *Metrics) RecordValuation(status, reason string) {
	m.ValuationsTotal.WithLabelValues(status, reason).Inc()
}

// RecordSnapshot exposes the latest ratios of a symbol
func (m *Metrics) RecordSnapshot(symbol string, peRatio, netProfitRatio float64) {
	m.PEValuation.WithLabelValues(symbol).Set(peRatio)
	m.NetProfitValuation.WithLabelValues(symbol).Set(netProfitRatio)
}

// RecordExport records the number of exported symbols
func (m *Metrics) RecordExport(symbols int) {
	m.ExportedSymbols.Set(float64(symbols))
}

// WriteTextfile writes the current values for the node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
