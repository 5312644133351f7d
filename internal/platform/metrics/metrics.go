package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los collectors del servicio. Todos los métodos aceptan receptor nil
// para que los tests puedan omitirlo.
type Metrics struct {
	registry *prometheus.Registry

	activeSubscriptions prometheus.Gauge
	snapshots           *prometheus.CounterVec
	subscriptionErrors  *prometheus.CounterVec
	mutations           *prometheus.CounterVec
	mergeDuration       prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		activeSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "clinic",
			Name:      "live_subscriptions_active",
			Help:      "Live query subscriptions currently open.",
		}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "live_snapshots_total",
			Help:      "Snapshots delivered to live subscriptions.",
		}, []string{"collection"}),
		subscriptionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "live_subscription_errors_total",
			Help:      "Live subscriptions terminated by a backend error.",
		}, []string{"collection"}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Name:      "mutations_total",
			Help:      "Mutations dispatched through the gateway by outcome.",
		}, []string{"op", "result"}),
		mergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Name:      "calendar_merge_seconds",
			Help:      "Time spent rebuilding the calendar projection.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	reg.MustRegister(m.activeSubscriptions, m.snapshots, m.subscriptionErrors, m.mutations, m.mergeDuration)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) SubscriptionOpened() {
	if m == nil {
		return
	}
	m.activeSubscriptions.Inc()
}

func (m *Metrics) SubscriptionClosed() {
	if m == nil {
		return
	}
	m.activeSubscriptions.Dec()
}

func (m *Metrics) Snapshot(collection string) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(collection).Inc()
}

func (m *Metrics) SubscriptionError(collection string) {
	if m == nil {
		return
	}
	m.subscriptionErrors.WithLabelValues(collection).Inc()
}

func (m *Metrics) Mutation(op, result string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, result).Inc()
}

func (m *Metrics) ObserveMerge(d time.Duration) {
	if m == nil {
		return
	}
	m.mergeDuration.Observe(d.Seconds())
}
