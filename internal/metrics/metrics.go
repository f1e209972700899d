package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// balance lookup results
const (
	LookupCacheHit = "cache_hit"
	LookupFetched  = "fetched"
	LookupRetried  = "rate_limited"
	LookupFailed   = "failed"
)

// Metrics is collection of payment core metrics. Nil Metrics records nothing.
type Metrics struct {
	ordersCreated  prometheus.Counter
	transitions    *prometheus.CounterVec
	swept          prometheus.Counter
	activeWatchers prometheus.Gauge
	balanceLookups *prometheus.CounterVec
	notifyFailures *prometheus.CounterVec
}

// New creates Metrics registered in reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ordersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "cardpay_orders_created_total",
			Help: "Orders created by intake.",
		}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cardpay_payment_transitions_total",
			Help: "Payment status transitions performed by watchers.",
		}, []string{"status"}),
		swept: f.NewCounter(prometheus.CounterOpts{
			Name: "cardpay_orders_swept_total",
			Help: "Orders expired by the sweeper.",
		}),
		activeWatchers: f.NewGauge(prometheus.GaugeOpts{
			Name: "cardpay_active_watchers",
			Help: "Payment watchers currently polling.",
		}),
		balanceLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cardpay_balance_lookups_total",
			Help: "Ledger balance lookups by result.",
		}, []string{"result"}),
		notifyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cardpay_notification_failures_total",
			Help: "Notifications that could not be delivered.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) Swept(n int64) {
	if m == nil {
		return
	}
	m.swept.Add(float64(n))
}

func (m *Metrics) WatcherStarted() {
	if m == nil {
		return
	}
	m.activeWatchers.Inc()
}

func (m *Metrics) WatcherStopped() {
	if m == nil {
		return
	}
	m.activeWatchers.Dec()
}

func (m *Metrics) BalanceLookup(result string) {
	if m == nil {
		return
	}
	m.balanceLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) NotifyFailed(kind string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(kind).Inc()
}
