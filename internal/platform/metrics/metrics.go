package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	StageAdvances    *prometheus.CounterVec
	OTPVerifications *prometheus.CounterVec
	OrdersConfirmed  prometheus.Counter
	OrdersRejected   prometheus.Counter
	RequestDuration  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		StageAdvances: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "investgate_stage_advances_total",
			Help: "Stage transitions per flow type",
		}, []string{"flow"}),
		OTPVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "investgate_otp_verifications_total",
			Help: "OTP verification attempts by result",
		}, []string{"result"}),
		OrdersConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "investgate_orders_confirmed_total",
			Help: "Orders authorized through the consent gate",
		}),
		OrdersRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "investgate_orders_rejected_total",
			Help: "Orders refused by the submission gateway",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "investgate_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Nil-safe increment helpers so tests can pass a zero Metrics value without
// touching the global registry.

func (m *Metrics) StageAdvanced(flow string) {
	if m == nil || m.StageAdvances == nil {
		return
	}
	m.StageAdvances.WithLabelValues(flow).Inc()
}

func (m *Metrics) OTPVerified(result string) {
	if m == nil || m.OTPVerifications == nil {
		return
	}
	m.OTPVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) OrderConfirmed() {
	if m == nil || m.OrdersConfirmed == nil {
		return
	}
	m.OrdersConfirmed.Inc()
}

func (m *Metrics) OrderRejected() {
	if m == nil || m.OrdersRejected == nil {
		return
	}
	m.OrdersRejected.Inc()
}

func (m *Metrics) ObserveRequest(route, method string, seconds float64) {
	if m == nil || m.RequestDuration == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method).Observe(seconds)
}
