package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/diillson/equipment-lending/internal/adapter/database"
	"github.com/diillson/equipment-lending/pkg/config"
	"github.com/diillson/equipment-lending/pkg/security"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm/logger"
)

// Gera um token de sessão para um usuário existente, usando o segredo da configuração
func main() {
	var (
		username  string
		duration  time.Duration
		configDir string
		dbDSN     string
	)

	flag.StringVar(&username, "username", "", "Usuário para o qual o token será emitido")
	flag.DurationVar(&duration, "duration", 24*time.Hour, "Validade do token")
	flag.StringVar(&configDir, "config", "./config", "Diretório do config.yaml")
	flag.StringVar(&dbDSN, "dsn", "", "DSN do banco de dados (sobrepõe a configuração)")
	flag.Parse()

	if username == "" {
		fmt.Println("Erro: username não pode ser vazio.")
		fmt.Println("Uso: go run ./cmd/gentoken -username=<usuário>")
		os.Exit(1)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	zapCfg.OutputPaths = []string{"stderr"}
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
	if dbDSN != "" {
		cfg.Database.DSN = dbDSN
	}

	if cfg.Auth.JWTSecret == "" {
		// uma chave aleatória geraria um token que o servidor não aceita
		fmt.Println("Erro: auth.jwtSecret precisa estar definido para emitir tokens fora do servidor.")
		os.Exit(1)
	}

	keyManager, err := security.NewKeyManager(cfg.Auth.JWTSecret, log)
	if err != nil {
		fmt.Printf("Erro ao inicializar chave JWT: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, database.Config{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.Database.DSN,
		LogLevel:       logger.Silent,
		SkipMigrations: true,
	}, log)
	if err != nil {
		fmt.Printf("Erro ao conectar ao banco de dados: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	user, err := db.Users().GetByUsername(ctx, username)
	if err != nil {
		fmt.Printf("Erro ao buscar usuário '%s': %v\n", username, err)
		os.Exit(1)
	}

	token, expiresAt, err := keyManager.GenerateToken(user.ID, user.Role, duration)
	if err != nil {
		fmt.Printf("Erro ao gerar token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nToken JWT gerado:")
	fmt.Println("------------------------------------------")
	fmt.Println(token)
	fmt.Println("------------------------------------------")
	fmt.Printf("\nID do usuário: %s\n", user.ID)
	fmt.Printf("Papel: %s\n", user.Role)
	fmt.Printf("Expira em: %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println("\nUse este token no cabeçalho Authorization:")
	fmt.Printf("Authorization: Bearer %s\n", token)
}
