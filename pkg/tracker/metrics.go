package tracker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	ReportsProcessed prometheus.Counter
	ReportsRejected  *prometheus.CounterVec
	StopAdvances     prometheus.Counter

	ActiveTrips prometheus.Gauge

	ReportDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		ReportsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kbus_location_reports_total",
			Help: "Total accepted location reports.",
		}),
		ReportsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kbus_location_reports_rejected_total",
			Help: "Location reports rejected before applying.",
		}, []string{"reason"}),
		StopAdvances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kbus_stop_advances_total",
			Help: "Times a vehicle's inferred stop moved forward.",
		}),
		ActiveTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kbus_active_trips",
			Help: "Vehicles currently on an active trip.",
		}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kbus_location_report_duration_seconds",
			Help:    "Duration of a single location report update.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
	}

	reg.MustRegister(
		m.ReportsProcessed, m.ReportsRejected, m.StopAdvances,
		m.ActiveTrips, m.ReportDuration,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
