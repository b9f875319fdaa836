package middleware

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/infra/metrics"
	"github.com/diillson/equipment-lending/internal/mocks"
	"github.com/diillson/equipment-lending/internal/testutils"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"github.com/diillson/equipment-lending/pkg/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(t *testing.T, validator TokenValidator, opts Options) *Middleware {
	t.Helper()
	if opts.ServiceName == "" {
		opts.ServiceName = "equipment-lending-test"
	}
	return NewMiddleware(testutils.TestLogger(t), validator, opts)
}

func TestAuthenticate(t *testing.T) {
	student := &model.User{ID: "u-1", Username: "ana", Role: model.RoleStudent}

	validator := new(mocks.MockTokenValidator)
	validator.On("ValidateToken", mock.Anything, "good").Return(student, nil)
	validator.On("ValidateToken", mock.Anything, "expired").
		Return(nil, fmt.Errorf("token expirado: %w", apperrors.ErrUnauthorized))
	validator.On("ValidateToken", mock.Anything, "broken").
		Return(nil, fmt.Errorf("falha no banco"))

	m := newTestMiddleware(t, validator, Options{})

	router := testutils.SetupTestRouter(t)
	router.GET("/me", m.Authenticate, func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		require.True(t, ok)
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role, "username": user.Username})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"sem header", "", http.StatusUnauthorized},
		{"sem prefixo Bearer", "good", http.StatusUnauthorized},
		{"token expirado", "Bearer expired", http.StatusUnauthorized},
		{"falha interna", "Bearer broken", http.StatusInternalServerError},
		{"token válido", "Bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			resp := testutils.MakeRequest(t, router, http.MethodGet, "/me", nil, headers)
			testutils.RequireHTTPStatus(t, resp, tt.status)

			var body map[string]interface{}
			testutils.ParseResponse(t, resp, &body)
			if tt.status == http.StatusOK {
				assert.Equal(t, "u-1", body["id"])
				assert.Equal(t, "student", body["role"])
				assert.Equal(t, "ana", body["username"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	mtr := metrics.New(reg)

	m := newTestMiddleware(t, new(mocks.MockTokenValidator), Options{
		Limiter: ratelimit.NewMemoryLimiter(time.Minute),
		Metrics: mtr,
	})

	router := testutils.SetupTestRouter(t)
	router.POST("/auth/login", m.RateLimit("login", 2, time.Hour, 2), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		resp := testutils.MakeRequest(t, router, http.MethodPost, "/auth/login", nil, nil)
		testutils.RequireHTTPStatus(t, resp, http.StatusNoContent)
		assert.Equal(t, "2", resp.Header().Get("X-RateLimit-Limit"))
	}

	resp := testutils.MakeRequest(t, router, http.MethodPost, "/auth/login", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusTooManyRequests)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
	assert.Equal(t, "0", resp.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, 1.0, counterValue(t, reg, "lending_rate_limited_requests_total",
		map[string]string{"path": "/auth/login", "method": http.MethodPost, "limit_type": "login"}))
}

func TestRateLimitDisabled(t *testing.T) {
	m := newTestMiddleware(t, new(mocks.MockTokenValidator), Options{})

	router := testutils.SetupTestRouter(t)
	router.POST("/auth/login", m.RateLimit("login", 1, time.Hour, 1), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 5; i++ {
		resp := testutils.MakeRequest(t, router, http.MethodPost, "/auth/login", nil, nil)
		testutils.RequireHTTPStatus(t, resp, http.StatusNoContent)
	}
}

func TestRecovery(t *testing.T) {
	m := newTestMiddleware(t, new(mocks.MockTokenValidator), Options{})

	router := testutils.SetupTestRouter(t)
	router.Use(m.Recovery())
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/panic", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusInternalServerError)

	var body map[string]string
	testutils.ParseResponse(t, resp, &body)
	assert.Equal(t, "internal", body["kind"])
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	m := newTestMiddleware(t, new(mocks.MockTokenValidator), Options{AllowedOrigin: "https://biblioteca.example"})

	router := testutils.SetupTestRouter(t)
	router.Use(m.SecurityHeaders(), m.CORS())
	router.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	resp := testutils.MakeRequest(t, router, http.MethodGet, "/ping", nil, nil)
	testutils.RequireHTTPStatus(t, resp, http.StatusOK)
	assert.Equal(t, "DENY", resp.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", resp.Header().Get("Cache-Control"))
	assert.Equal(t, "https://biblioteca.example", resp.Header().Get("Access-Control-Allow-Origin"))

	resp = testutils.MakeRequest(t, router, http.MethodOptions, "/ping", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	mtr := metrics.New(reg)
	m := newTestMiddleware(t, new(mocks.MockTokenValidator), Options{Metrics: mtr})

	router := testutils.SetupTestRouter(t)
	router.Use(m.Metrics())
	router.GET("/equipment/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "não encontrado"})
	})

	testutils.MakeRequest(t, router, http.MethodGet, "/equipment/abc", nil, nil)
	testutils.MakeRequest(t, router, http.MethodGet, "/equipment/def", nil, nil)

	assert.Equal(t, 2.0, counterValue(t, reg, "lending_http_requests_total",
		map[string]string{"path": "/equipment/:id", "method": http.MethodGet, "status": "404"}))
}

// counterValue lê um contador do registry pelo nome e pelos labels
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	next:
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] != pair.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}
