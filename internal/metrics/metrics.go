// Package metrics exposes ledger and HTTP metrics on a private Prometheus
// registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"conti/internal/ledger"
	"conti/internal/storage"
)

// Metrics holds the application collectors.
type Metrics struct {
	// Registry owns every collector below. A private registry lets tests
	// build Metrics more than once.
	Registry *prometheus.Registry

	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	settlements     prometheus.Counter
}

var _ ledger.Observer = (*Metrics)(nil)

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conti_ledger_mutations_total",
				Help: "Applied ledger mutations by collection and operation.",
			},
			[]string{"collection", "op", "durable"},
		),
		persistFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conti_ledger_persist_failures_total",
				Help: "Writes to the storage backend that failed.",
			},
			[]string{"key"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "conti_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "conti_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		settlements: factory.NewCounter(prometheus.CounterOpts{
			Name: "conti_settlements_recorded_total",
			Help: "Settlements confirmed.",
		}),
	}
}

// PersistFailed implements ledger.Observer.
func (m *Metrics) PersistFailed(key string) {
	m.persistFailures.WithLabelValues(key).Inc()
}

// ObserveLedger counts every event emitted by the store. The returned func
// stops counting.
func (m *Metrics) ObserveLedger(store *ledger.Store) (cancel func()) {
	return store.Subscribe(func(ev ledger.Event) {
		m.mutations.WithLabelValues(ev.Collection, ev.Op, strconv.FormatBool(ev.Err == nil)).Inc()
		if ev.Collection == storage.KeySettlements && ev.Op == ledger.OpCreate {
			m.settlements.Inc()
		}
	})
}

// RecordRequest records one served request.
func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// IncrRateLimited counts a rejected request.
func (m *Metrics) IncrRateLimited() { m.rateLimited.Inc() }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
