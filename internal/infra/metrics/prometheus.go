package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lending"

// Metrics agrupa as métricas HTTP e as do ciclo de empréstimos
type Metrics struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestSize     *prometheus.SummaryVec
	responseSize    *prometheus.SummaryVec
	activeRequests  *prometheus.GaugeVec
	errorsTotal     *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	cacheHitRatio   *prometheus.GaugeVec
	circuitOpen     *prometheus.GaugeVec

	loansCreated      prometheus.Counter
	loansReturned     *prometheus.CounterVec
	finesTotal        prometheus.Counter
	lateDays          prometheus.Histogram
	operationFailures *prometheus.CounterVec
}

// New cria e registra as métricas no registerer informado
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by path, method, and status code",
			},
			[]string{"path", "method", "status"},
		),

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),

		requestSize: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Namespace:  namespace,
				Name:       "http_request_size_bytes",
				Help:       "HTTP request size in bytes",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"path", "method"},
		),

		responseSize: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Namespace:  namespace,
				Name:       "http_response_size_bytes",
				Help:       "HTTP response size in bytes",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"path", "method"},
		),

		activeRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_active_requests",
				Help:      "Number of in-flight requests being processed",
			},
			[]string{"path", "method"},
		),

		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_errors_total",
				Help:      "Total number of errors by type",
			},
			[]string{"path", "method", "error_type"},
		),

		rateLimited: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Total number of rate limited requests",
			},
			[]string{"path", "method", "limit_type"},
		),

		cacheHitRatio: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_hit_ratio",
				Help:      "Cache hit ratio (0.0 to 1.0)",
			},
			[]string{"cache_type"},
		),

		circuitOpen: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_open",
				Help:      "1 when the circuit breaker is open, 0 otherwise",
			},
			[]string{"name"},
		),

		loansCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loans_created_total",
			Help:      "Total number of loans created",
		}),

		loansReturned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loans_returned_total",
				Help:      "Total number of loans returned, by lateness",
			},
			[]string{"late"},
		),

		finesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fines_amount_total",
			Help:      "Sum of fines charged on returns",
		}),

		lateDays: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loan_late_days",
			Help:      "Late days recorded on returns",
			Buckets:   []float64{0, 1, 2, 3, 5, 7, 14, 30},
		}),

		operationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loan_operation_failures_total",
				Help:      "Loan operations refused or failed, by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
	}
}

// RequestStarted registra o início de uma requisição
func (m *Metrics) RequestStarted(path, method string) {
	m.activeRequests.WithLabelValues(path, method).Inc()
}

// RequestCompleted registra a conclusão de uma requisição
func (m *Metrics) RequestCompleted(path, method string, status int, duration time.Duration, requestSize, responseSize int) {
	m.requestCounter.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
	m.requestSize.WithLabelValues(path, method).Observe(float64(requestSize))
	m.responseSize.WithLabelValues(path, method).Observe(float64(responseSize))
	m.activeRequests.WithLabelValues(path, method).Dec()
}

// RequestError registra um erro de requisição
func (m *Metrics) RequestError(path, method, errorType string) {
	m.errorsTotal.WithLabelValues(path, method, errorType).Inc()
}

// RateLimitExceeded registra quando um limite de taxa é excedido
func (m *Metrics) RateLimitExceeded(path, method, limitType string) {
	m.rateLimited.WithLabelValues(path, method, limitType).Inc()
}

// UpdateCacheHitRatio atualiza a taxa de acertos do cache
func (m *Metrics) UpdateCacheHitRatio(cacheType string, hitRatio float64) {
	m.cacheHitRatio.WithLabelValues(cacheType).Set(hitRatio)
}

// CircuitBreakerStateChanged registra a abertura ou o fechamento de um circuito
func (m *Metrics) CircuitBreakerStateChanged(name string, open bool) {
	value := 0.0
	if open {
		value = 1
	}
	m.circuitOpen.WithLabelValues(name).Set(value)
}

// LoanCreated conta um empréstimo criado
func (m *Metrics) LoanCreated() {
	m.loansCreated.Inc()
}

// LoanReturned conta a devolução e acumula a multa
func (m *Metrics) LoanReturned(lateDays int, fine float64) {
	m.loansReturned.WithLabelValues(strconv.FormatBool(lateDays > 0)).Inc()
	m.lateDays.Observe(float64(lateDays))
	if fine > 0 {
		m.finesTotal.Add(fine)
	}
}

// OperationFailed conta operações recusadas pelo ciclo de empréstimos
func (m *Metrics) OperationFailed(operation, kind string) {
	m.operationFailures.WithLabelValues(operation, kind).Inc()
}
