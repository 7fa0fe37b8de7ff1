package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tokenbid"

// Metrics собирает HTTP и доменные метрики в собственном реестре.
// Реализует service.Metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	bidsCreated     prometheus.Counter
	proposalsUnlock prometheus.Counter
	directContacts  prometheus.Counter
	tokensDebited   *prometheus.CounterVec
	tokensCredited  *prometheus.CounterVec
}

// New регистрирует все коллекторы.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		bidsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bids",
			Name:      "created_total",
			Help:      "Bids submitted.",
		}),
		proposalsUnlock: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "proposals_unlocked_total",
			Help:      "Proposal conversations unlocked by recipients.",
		}),
		directContacts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "direct_created_total",
			Help:      "Direct contacts opened.",
		}),
		tokensDebited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "debited_total",
			Help:      "Tokens debited from wallets by transaction type.",
		}, []string{"type"}),
		tokensCredited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tokens",
			Name:      "credited_total",
			Help:      "Tokens credited to wallets by transaction type.",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.bidsCreated,
		m.proposalsUnlock,
		m.directContacts,
		m.tokensDebited,
		m.tokensCredited,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware считает запросы по шаблону маршрута, чтобы id не раздували метки.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) BidCreated() {
	m.bidsCreated.Inc()
}

func (m *Metrics) ProposalUnlocked() {
	m.proposalsUnlock.Inc()
}

func (m *Metrics) DirectConnectionCreated() {
	m.directContacts.Inc()
}

// TokensMoved принимает знаковую сумму: отрицательная означает списание.
func (m *Metrics) TokensMoved(txType string, amount int64) {
	switch {
	case amount < 0:
		m.tokensDebited.WithLabelValues(txType).Add(float64(-amount))
	case amount > 0:
		m.tokensCredited.WithLabelValues(txType).Add(float64(amount))
	}
}
