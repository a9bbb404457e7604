package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/panbanda/pyreview/pkg/models"
)

// metrics are registered on a per-server registry so several servers can
// live in one process.
type metrics struct {
	registry        *prometheus.Registry
	analyses        *prometheus.CounterVec
	toolUnavailable *prometheus.CounterVec
	duration        prometheus.Histogram
	reportsServed   *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pyreview",
			Name:      "analyses_total",
			Help:      "Uploaded files analyzed, by outcome.",
		}, []string{"outcome"}),
		toolUnavailable: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pyreview",
			Name:      "tool_unavailable_total",
			Help:      "Reports in which a tool result was unavailable, by tool.",
		}, []string{"tool"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pyreview",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent analyzing one uploaded file.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		reportsServed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pyreview",
			Name:      "reports_served_total",
			Help:      "Stored report requests, by HTTP status.",
		}, []string{"status"}),
	}
}

func (m *metrics) observeReport(r *models.AnalysisReport) {
	if !r.Issues.OK() {
		m.toolUnavailable.WithLabelValues("style").Inc()
	}
	if !r.Complexity.OK() {
		m.toolUnavailable.WithLabelValues("complexity").Inc()
	}
	if !r.Maintainability.OK() {
		m.toolUnavailable.WithLabelValues("maintainability").Inc()
	}
	if !r.Formatting.Succeeded {
		m.toolUnavailable.WithLabelValues("formatter").Inc()
	}
}
