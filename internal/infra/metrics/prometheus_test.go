package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLendingMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.LoanCreated()
	m.LoanCreated()
	m.LoanReturned(0, 0)
	m.LoanReturned(2, 100)
	m.LoanReturned(1, 50)
	m.OperationFailed("create", "not_available")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.loansCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loansReturned.WithLabelValues("false")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.loansReturned.WithLabelValues("true")))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.finesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationFailures.WithLabelValues("create", "not_available")))
}

func TestHTTPMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RequestStarted("/loans", "GET")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeRequests.WithLabelValues("/loans", "GET")))

	m.RequestCompleted("/loans", "GET", 200, 15*time.Millisecond, 0, 128)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeRequests.WithLabelValues("/loans", "GET")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCounter.WithLabelValues("/loans", "GET", "200")))

	m.UpdateCacheHitRatio("memory", 0.75)
	assert.Equal(t, 0.75, testutil.ToFloat64(m.cacheHitRatio.WithLabelValues("memory")))

	m.CircuitBreakerStateChanged("cache", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.circuitOpen.WithLabelValues("cache")))
	m.CircuitBreakerStateChanged("cache", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.circuitOpen.WithLabelValues("cache")))
}

func TestNewWithSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
