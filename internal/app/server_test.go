package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/diillson/equipment-lending/pkg/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestNewServerPlainHTTP(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 9090, ReadTimeout: time.Second}

	s := NewServer(http.NotFoundHandler(), cfg, zaptest.NewLogger(t))

	assert.Equal(t, "127.0.0.1:9090", s.Addr)
	assert.Nil(t, s.TLSConfig)
	assert.Equal(t, time.Second, s.ReadTimeout)
}

func TestValidDomains(t *testing.T) {
	got := validDomains([]string{"", "localhost", "emprestimos.example.edu", "127.0.0.1"})
	assert.Equal(t, []string{"emprestimos.example.edu"}, got)
}

func TestRedirectHTTPS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://emprestimos.example.edu/loans?x=1", nil)
	rec := httptest.NewRecorder()

	redirectHTTPS(rec, req)

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "https://emprestimos.example.edu/loans?x=1", rec.Header().Get("Location"))
}
