package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/diillson/equipment-lending/internal/adapter/database"
	lendinghttp "github.com/diillson/equipment-lending/internal/adapter/http"
	"github.com/diillson/equipment-lending/internal/domain/service"
	"github.com/diillson/equipment-lending/internal/infra/metrics"
	"github.com/diillson/equipment-lending/internal/infra/middleware"
	"github.com/diillson/equipment-lending/pkg/cache"
	"github.com/diillson/equipment-lending/pkg/clock"
	"github.com/diillson/equipment-lending/pkg/config"
	"github.com/diillson/equipment-lending/pkg/ratelimit"
	"github.com/diillson/equipment-lending/pkg/resilience"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App contém as dependências montadas da aplicação
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	DB         *database.Database
	Cache      cache.Cache
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Services   *service.Services
	Middleware *middleware.Middleware
	Handlers   lendinghttp.Handlers

	redis *redis.Client
}

// NewApp cria uma nova instância da aplicação com todas as dependências injetadas
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	db, err := database.NewDatabase(ctx, database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        database.ParseLogLevel(cfg.Database.LogLevel),
		SlowThreshold:   cfg.Database.SlowThreshold,
		MigrationDir:    cfg.Database.MigrationDir,
		SkipMigrations:  cfg.Database.SkipMigrations,
	}, logger.Named("database"))
	if err != nil {
		return nil, fmt.Errorf("erro ao inicializar banco de dados: %w", err)
	}
	a.DB = db

	if err := a.setupCache(ctx); err != nil {
		a.Close()
		return nil, err
	}

	limiter, err := a.setupLimiter(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Services, err = service.NewServices(cfg, service.Dependencies{
		Store:    db,
		Cache:    a.Cache,
		Clock:    clock.System{},
		Recorder: a.Metrics,
		Logger:   logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.bootstrapAdmin(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var httpMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		httpMetrics = a.Metrics
	}
	a.Middleware = middleware.NewMiddleware(logger, a.Services.Auth, middleware.Options{
		ServiceName:   cfg.Tracing.ServiceName,
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Limiter:       limiter,
		Metrics:       httpMetrics,
	})

	a.Handlers = lendinghttp.Handlers{
		Auth:      lendinghttp.NewAuthHandler(a.Services.Auth, logger),
		Equipment: lendinghttp.NewEquipmentHandler(a.Services.Inventory, logger),
		Students:  lendinghttp.NewStudentHandler(a.Services.Identity, logger),
		Loans:     lendinghttp.NewLoanHandler(a.Services.Loans, logger),
		Health:    lendinghttp.NewHealthChecker(db, a.Cache, logger),
	}

	return a, nil
}

// setupCache escolhe o backend de cache das listagens de equipamentos
func (a *App) setupCache(ctx context.Context) error {
	cfg := a.Config.Cache
	if !cfg.Enabled {
		a.Logger.Info("Cache desabilitado")
		a.Cache = &cache.NoOpCache{}
		return nil
	}

	switch cfg.Type {
	case "redis":
		client, err := a.redisClient(ctx)
		if err != nil {
			return fmt.Errorf("erro ao conectar ao Redis do cache: %w", err)
		}
		breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:            "redis-cache",
			MaxRequestsFail: 5,
			Timeout:         30 * time.Second,
		}, a.Logger.Named("cache"), a.Metrics)
		a.Cache = cache.NewBreakerCache(cache.NewRedisCache(client, a.Metrics, a.Logger.Named("cache")), breaker)
	default:
		a.Cache = cache.NewMemoryCache(cfg.TTL, cfg.CleanupInterval, a.Metrics, a.Logger.Named("cache"))
	}

	a.Logger.Info("Cache inicializado", zap.String("type", cfg.Type), zap.Duration("ttl", cfg.TTL))
	return nil
}

// setupLimiter escolhe o limitador do login. Devolve nil quando desabilitado.
func (a *App) setupLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	cfg := a.Config.RateLimit
	if !cfg.Enabled {
		return nil, nil
	}

	if cfg.Backend == "redis" {
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("erro ao conectar ao Redis do rate limit: %w", err)
		}
		return ratelimit.NewRedisLimiter(client, a.Logger.Named("ratelimit")), nil
	}
	return ratelimit.NewMemoryLimiter(2 * cfg.Period), nil
}

// redisClient abre o cliente Redis uma única vez, compartilhado entre cache e rate limit
func (a *App) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.redis != nil {
		return a.redis, nil
	}
	client, err := cache.NewRedisClient(ctx, a.Config.Cache.Redis, a.Logger.Named("redis"))
	if err != nil {
		return nil, err
	}
	a.redis = client
	return client, nil
}

func (a *App) bootstrapAdmin(ctx context.Context) error {
	admin := a.Config.Lending.BootstrapAdmin
	if !admin.Enabled {
		return nil
	}

	created, err := a.Services.Identity.EnsureAdmin(ctx, admin.Username, admin.Password, admin.DisplayName)
	if err != nil {
		return fmt.Errorf("erro ao criar administrador inicial: %w", err)
	}
	if created {
		a.Logger.Warn("Administrador inicial criado; troque a senha padrão", zap.String("username", admin.Username))
	}
	return nil
}

// RegisterRoutes registra todas as rotas no router
func (a *App) RegisterRoutes(router *gin.Engine) {
	router.Use(a.Middleware.Recovery())
	router.Use(a.Middleware.Tracing())
	router.Use(a.Middleware.Logger())
	router.Use(a.Middleware.Metrics())
	router.Use(a.Middleware.SecurityHeaders())
	router.Use(a.Middleware.CORS())

	if a.Config.Metrics.Enabled {
		router.GET(a.Config.Metrics.PrometheusPath, gin.WrapH(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))
		a.Logger.Info("Endpoint de métricas Prometheus registrado", zap.String("path", a.Config.Metrics.PrometheusPath))
	}

	lendinghttp.RegisterRoutes(router, a.Handlers, a.Middleware, lendinghttp.LoginLimit{
		Limit:  a.Config.RateLimit.Limit,
		Period: a.Config.RateLimit.Period,
		Burst:  a.Config.RateLimit.Burst,
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Rota não encontrada",
			"kind":  "not_found",
			"path":  c.Request.URL.Path,
		})
	})
}

// Close libera conexões com banco e Redis
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
