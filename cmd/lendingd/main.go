package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diillson/equipment-lending/internal/app"
	"github.com/diillson/equipment-lending/pkg/config"
	"github.com/diillson/equipment-lending/pkg/logging"
	"github.com/diillson/equipment-lending/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

func main() {
	var configDir string
	flag.StringVar(&configDir, "config", "./config", "Diretório do config.yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		fmt.Printf("Erro ao carregar configuração: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLoggerWithConfig(cfg.Logging)
	if err != nil {
		fmt.Printf("Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Tracing.Enabled {
		tp, err := telemetry.NewTracerProvider(context.Background(), cfg.Tracing, logger)
		if err != nil {
			logger.Error("Falha ao inicializar tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	ctx, span := otel.Tracer("equipment-lending.main").Start(context.Background(), "Server Initialization")

	application, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.End()
		logger.Fatal("Falha ao inicializar aplicação", zap.Error(err))
	}
	defer application.Close()
	span.End()

	if cfg.Logging.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	application.RegisterRoutes(router)

	server := app.NewServer(router, cfg.Server, logger)

	go func() {
		logger.Info("Servidor iniciado", zap.String("addr", server.Addr))
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Erro ao iniciar servidor", zap.Error(err))
		}
	}()

	// Esperar por sinal de interrupção para shutdown gracioso
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Erro ao encerrar servidor", zap.Error(err))
		return
	}

	logger.Info("Servidor encerrado com sucesso")
}
