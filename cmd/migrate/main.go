package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/diillson/equipment-lending/internal/adapter/database"
	"github.com/diillson/equipment-lending/pkg/config"
	"github.com/diillson/equipment-lending/pkg/logging"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

func main() {
	var (
		action       string
		name         string
		configDir    string
		driver       string
		dsn          string
		migrationDir string
	)

	flag.StringVar(&action, "action", "migrate", "Ação (migrate, create)")
	flag.StringVar(&name, "name", "", "Nome da migração (apenas para action=create)")
	flag.StringVar(&configDir, "config", "./config", "Diretório do config.yaml")
	flag.StringVar(&driver, "driver", "", "Driver de banco de dados (sobrepõe a configuração)")
	flag.StringVar(&dsn, "dsn", "", "DSN do banco de dados (sobrepõe a configuração)")
	flag.StringVar(&migrationDir, "dir", "", "Diretório de migrações (sobrepõe a configuração)")
	flag.Parse()

	log, err := logging.NewLogger()
	if err != nil {
		fmt.Printf("Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatal("Falha ao carregar configuração", zap.Error(err))
	}
	if driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if migrationDir != "" {
		cfg.Database.MigrationDir = migrationDir
	}

	dbConfig := database.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		LogLevel:     logger.Info,
		MigrationDir: cfg.Database.MigrationDir,
	}

	ctx := context.Background()

	switch action {
	case "migrate":
		db, err := database.NewDatabase(ctx, dbConfig, log)
		if err != nil {
			log.Fatal("Falha ao aplicar migrações", zap.Error(err))
		}
		defer db.Close()

		log.Info("Migrações aplicadas com sucesso")

	case "create":
		if name == "" {
			log.Fatal("Nome da migração é obrigatório para action=create")
		}

		// criar o arquivo não exige aplicar as pendentes
		dbConfig.SkipMigrations = true
		db, err := database.NewDatabase(ctx, dbConfig, log)
		if err != nil {
			log.Fatal("Falha ao inicializar banco de dados", zap.Error(err))
		}
		defer db.Close()

		path, err := db.CreateMigration(name)
		if err != nil {
			log.Fatal("Falha ao criar migração", zap.Error(err))
		}

		log.Info("Migração criada", zap.String("path", path))

	default:
		log.Fatal("Ação desconhecida", zap.String("action", action))
	}
}
