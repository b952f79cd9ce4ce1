// Package metrics holds the Prometheus collectors of the draw service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const DefaultNamespace = "gacha"

// Metrics is the set of collectors the service and HTTP layer update.
type Metrics struct {
	DrawsTotal      *prometheus.CounterVec   // results by region and tag
	SessionsTotal   *prometheus.CounterVec   // sessions by region and size
	RefreshTotal    *prometheus.CounterVec   // refresh runs by result
	RefreshDuration prometheus.Histogram     // build + publish time
	PurgesTotal     *prometheus.CounterVec   // history purges by region and result
	HistoryErrors   *prometheus.CounterVec   // failed history writes by region
	ActiveBanners   *prometheus.GaugeVec     // banners in the published snapshot
	RequestDuration *prometheus.HistogramVec // http handler latency
}

// New creates the collectors under namespace. They are not registered yet.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Metrics{
		DrawsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "draws_total",
				Help:      "Characters drawn, by region and result tag.",
			},
			[]string{"region", "tag"},
		),
		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Draw sessions, by region and size.",
			},
			[]string{"region", "count"},
		),
		RefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_total",
				Help:      "Snapshot refreshes, by result.",
			},
			[]string{"result"}, // success/failed
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Time to build and publish a snapshot.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
			},
		),
		PurgesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_purges_total",
				Help:      "History purges caused by banner changes, by region and result.",
			},
			[]string{"region", "result"},
		),
		HistoryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "history_write_errors_total",
				Help:      "Draw results that could not be recorded.",
			},
			[]string{"region"},
		),
		ActiveBanners: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_banners",
				Help:      "Banners in the published snapshot.",
			},
			[]string{"region"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP handler latency.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"route", "status"},
		),
	}
}

// Register adds every collector to registerer.
func (m *Metrics) Register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.DrawsTotal,
		m.SessionsTotal,
		m.RefreshTotal,
		m.RefreshDuration,
		m.PurgesTotal,
		m.HistoryErrors,
		m.ActiveBanners,
		m.RequestDuration,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failed"
}

func (m *Metrics) RecordDraw(region, tag string) {
	if m == nil {
		return
	}
	m.DrawsTotal.WithLabelValues(region, tag).Inc()
}

func (m *Metrics) RecordSession(region, count string) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(region, count).Inc()
}

func (m *Metrics) RecordRefresh(ok bool, took time.Duration) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(result(ok)).Inc()
	m.RefreshDuration.Observe(took.Seconds())
}

func (m *Metrics) RecordPurge(region string, ok bool) {
	if m == nil {
		return
	}
	m.PurgesTotal.WithLabelValues(region, result(ok)).Inc()
}

func (m *Metrics) RecordHistoryError(region string) {
	if m == nil {
		return
	}
	m.HistoryErrors.WithLabelValues(region).Inc()
}

func (m *Metrics) SetActiveBanners(region string, n int) {
	if m == nil {
		return
	}
	m.ActiveBanners.WithLabelValues(region).Set(float64(n))
}

func (m *Metrics) ObserveRequest(route, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(took.Seconds())
}
