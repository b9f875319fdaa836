package http

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger é qualquer dependência que responde a um ping
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency representa um componente do qual o sistema depende
type Dependency struct {
	Name     string
	Check    func(context.Context) error
	Critical bool // Se true, falha deste componente faz o health check falhar
}

// HealthChecker implementa endpoints de health check
type HealthChecker struct {
	logger       *zap.Logger
	dependencies []Dependency
	started      time.Time
}

// NewHealthChecker cria um novo health checker. O banco é crítico e o cache não.
func NewHealthChecker(db Pinger, cache Pinger, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		logger:  logger,
		started: time.Now(),
	}

	hc.dependencies = []Dependency{
		{Name: "database", Check: db.Ping, Critical: true},
	}
	if cache != nil {
		hc.dependencies = append(hc.dependencies, Dependency{Name: "cache", Check: cache.Ping, Critical: false})
	}

	return hc
}

// LivenessCheck verifica se o aplicativo está vivo (execução básica)
func (h *HealthChecker) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"time":   time.Now(),
	})
}

// ReadinessCheck verifica se o aplicativo está pronto para receber tráfego
func (h *HealthChecker) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, checks := h.runChecks(ctx, false)

	result := gin.H{
		"status": "UP",
		"time":   time.Now(),
		"checks": checks,
	}
	if status != http.StatusOK {
		result["status"] = "DOWN"
	}

	c.JSON(status, result)
}

// DetailedHealth inclui versão, ambiente e dados do runtime
func (h *HealthChecker) DetailedHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	status, checks := h.runChecks(ctx, true)

	details := gin.H{
		"status":      "UP",
		"time":        time.Now(),
		"uptime":      time.Since(h.started).Round(time.Second).String(),
		"version":     getVersion(),
		"environment": getEnvironment(),
		"checks":      checks,
		"system":      getSystemInfo(),
	}
	if status != http.StatusOK {
		details["status"] = "DOWN"
	}

	c.JSON(status, details)
}

// runChecks verifica as dependências em paralelo
func (h *HealthChecker) runChecks(ctx context.Context, withErrors bool) (int, map[string]interface{}) {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		status = http.StatusOK
		checks = make(map[string]interface{}, len(h.dependencies))
	)

	for _, dep := range h.dependencies {
		wg.Add(1)
		go func(d Dependency) {
			defer wg.Done()

			start := time.Now()
			err := d.Check(ctx)
			duration := time.Since(start)

			result := gin.H{
				"status":   "UP",
				"time":     duration.String(),
				"critical": d.Critical,
			}
			if err != nil {
				result["status"] = "DOWN"
				if withErrors {
					result["error"] = err.Error()
				}
				h.logger.Error("health check falhou",
					zap.String("dependency", d.Name),
					zap.Error(err))
			}

			mu.Lock()
			defer mu.Unlock()
			checks[d.Name] = result
			if err != nil && d.Critical {
				status = http.StatusServiceUnavailable
			}
		}(dep)
	}

	wg.Wait()
	return status, checks
}

// getVersion retorna a versão do aplicativo
func getVersion() string {
	return os.Getenv("APP_VERSION")
}

// getEnvironment retorna o ambiente atual
func getEnvironment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "development"
	}
	return env
}

// getSystemInfo retorna informações sobre o sistema
func getSystemInfo() gin.H {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return gin.H{
		"go_version":    runtime.Version(),
		"go_os":         runtime.GOOS,
		"go_arch":       runtime.GOARCH,
		"num_cpu":       runtime.NumCPU(),
		"num_goroutine": runtime.NumGoroutine(),
		"memory_alloc": gin.H{
			"alloc_mb":       float64(m.Alloc) / 1024 / 1024,
			"total_alloc_mb": float64(m.TotalAlloc) / 1024 / 1024,
			"sys_mb":         float64(m.Sys) / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
	}
}
