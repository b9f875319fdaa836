package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/diillson/equipment-lending/internal/adapter/database"
	"github.com/diillson/equipment-lending/internal/app/identity"
	"github.com/diillson/equipment-lending/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm/logger"
)

func main() {
	var (
		username    string
		password    string
		displayName string
		configDir   string
		dbDriver    string
		dbDSN       string
		verbose     bool
	)

	flag.StringVar(&username, "username", "", "Nome de usuário do admin")
	flag.StringVar(&password, "password", "", "Senha do admin")
	flag.StringVar(&displayName, "name", "Administrador", "Nome exibido do admin")
	flag.StringVar(&configDir, "config", "./config", "Diretório do config.yaml")
	flag.StringVar(&dbDriver, "driver", "", "Driver do banco de dados (sobrepõe a configuração)")
	flag.StringVar(&dbDSN, "dsn", "", "DSN do banco de dados (sobrepõe a configuração)")
	flag.BoolVar(&verbose, "verbose", false, "Mostrar logs detalhados")
	flag.Parse()

	if username == "" || password == "" {
		fmt.Println("Erro: username e password não podem ser vazios.")
		flag.Usage()
		os.Exit(1)
	}

	zapCfg := zap.NewProductionConfig()
	if !verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		zapCfg.OutputPaths = []string{"stderr"}
	}
	log, err := zapCfg.Build()
	if err != nil {
		fmt.Printf("Erro ao inicializar logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		fmt.Printf("Erro ao carregar configuração: %v\n", err)
		os.Exit(1)
	}
	if dbDriver != "" {
		cfg.Database.Driver = dbDriver
	}
	if dbDSN != "" {
		cfg.Database.DSN = dbDSN
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, database.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		LogLevel:     logger.Error,
		MigrationDir: cfg.Database.MigrationDir,
	}, log)
	if err != nil {
		fmt.Printf("Erro ao conectar ao banco de dados: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	users := identity.NewService(db, identity.Options{
		PasswordMinLen: cfg.Auth.PasswordMinLen,
		BcryptCost:     cfg.Auth.BcryptCost,
	}, nil, log)

	created, err := users.EnsureAdmin(ctx, username, password, displayName)
	if err != nil {
		fmt.Printf("Erro ao criar administrador: %v\n", err)
		os.Exit(1)
	}
	if !created {
		fmt.Printf("Usuário '%s' já existe; nada foi alterado.\n", username)
		return
	}

	fmt.Println("\n╭──────────────────────────────────────────╮")
	fmt.Println("│    Usuário admin criado com sucesso      │")
	fmt.Println("├──────────────────────────────────────────┤")
	fmt.Printf("│ Username: %-30s │\n", username)
	fmt.Printf("│ Nome: %-34s │\n", displayName)
	fmt.Printf("│ Role: %-34s │\n", "admin")
	fmt.Println("╰──────────────────────────────────────────╯")
	fmt.Println("\nPara gerar um token de acesso:")
	fmt.Printf("go run ./cmd/gentoken -username=%s\n\n", username)
}
