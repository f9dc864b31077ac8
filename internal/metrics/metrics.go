package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tailorshop"

type ServerMetrics struct {
	registry *prometheus.Registry

	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	OrdersCreated   *prometheus.CounterVec
	StatusChanges   *prometheus.CounterVec
	CouponRejected  *prometheus.CounterVec
	EmailsSent      *prometheus.CounterVec
	PaymentsStarted *prometheus.CounterVec
}

// New registers every collector on a private registry so multiple servers
// can coexist in one process.
func New() *ServerMetrics {
	reg := prometheus.NewRegistry()
	m := &ServerMetrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "method", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders placed at checkout.",
		}, []string{"payment_method", "payment_type"}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status and production step changes.",
		}, []string{"kind", "to"}),
		CouponRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_rejections_total",
			Help:      "Coupon codes rejected at validation.",
		}, []string{"reason"}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Outgoing emails by delivery status.",
		}, []string{"status"}),
		PaymentsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_started_total",
			Help:      "Redirect payments handed to a provider.",
		}, []string{"provider", "result"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests, m.LatencyMS,
		m.OrdersCreated, m.StatusChanges, m.CouponRejected, m.EmailsSent, m.PaymentsStarted,
	)
	return m
}

func (m *ServerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts and times every request. Handlers are labelled by the
// matched route pattern to keep cardinality bounded.
func (m *ServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := StartTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		handler := r.Pattern
		if handler == "" {
			handler = "unmatched"
		}
		m.Requests.WithLabelValues(handler, r.Method, strconv.Itoa(rec.status)).Inc()
		timer.ObserveMS(m.LatencyMS.WithLabelValues(handler))
	})
}

// The recorder methods below are safe on a nil receiver so services can be
// built without metrics in tests and tools.

func (m *ServerMetrics) OrderCreated(method, paymentType string) {
	if m == nil {
		return
	}
	m.OrdersCreated.WithLabelValues(method, paymentType).Inc()
}

func (m *ServerMetrics) Transition(kind, to string) {
	if m == nil {
		return
	}
	m.StatusChanges.WithLabelValues(kind, to).Inc()
}

func (m *ServerMetrics) CouponRejection(reason string) {
	if m == nil {
		return
	}
	m.CouponRejected.WithLabelValues(reason).Inc()
}

func (m *ServerMetrics) EmailResult(status string) {
	if m == nil {
		return
	}
	m.EmailsSent.WithLabelValues(status).Inc()
}

func (m *ServerMetrics) PaymentResult(provider, result string) {
	if m == nil {
		return
	}
	m.PaymentsStarted.WithLabelValues(provider, result).Inc()
}
