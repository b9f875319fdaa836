package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/diillson/equipment-lending/internal/domain/repository"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config contém configurações para o banco de dados
type Config struct {
	Driver          string
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
	SlowThreshold   time.Duration
	MigrationDir    string
	SkipMigrations  bool
}

// ParseLogLevel converte o nível textual da configuração para o nível do GORM
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Database gerencia a conexão com o banco de dados e implementa repository.Store
type Database struct {
	db        *gorm.DB
	logger    *zap.Logger
	migration *MigrationManager
}

// NewDatabase abre a conexão, configura o pool e aplica as migrações
func NewDatabase(ctx context.Context, config Config, zapLogger *zap.Logger) (*Database, error) {
	gormLogger := logger.New(
		GormLogAdapter{zapLogger},
		logger.Config{
			SlowThreshold:             config.SlowThreshold,
			LogLevel:                  config.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormConfig := &gorm.Config{
		Logger:                                   gormLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		TranslateError:                           true,
	}

	var dialector gorm.Dialector
	switch config.Driver {
	case "sqlite":
		dialector = sqlite.Open(config.DSN)
	case "mysql":
		dialector = mysql.Open(config.DSN)
	case "postgres":
		dialector = postgres.Open(config.DSN)
	default:
		return nil, fmt.Errorf("driver de banco de dados não suportado: %s", config.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao banco de dados: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("falha ao obter instância do banco de dados: %w", err)
	}

	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("falha ao testar conexão com banco de dados: %w", err)
	}

	database := &Database{
		db:        db,
		logger:    zapLogger,
		migration: NewMigrationManager(db, zapLogger, config.MigrationDir),
	}

	if config.SkipMigrations {
		zapLogger.Info("Migrações foram puladas devido à configuração")
		return database, nil
	}

	if err := database.migrate(ctx); err != nil {
		return nil, fmt.Errorf("falha ao aplicar migrações: %w", err)
	}

	return database, nil
}

// DB retorna a instância do GORM DB
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Ping verifica a conexão com o banco de dados
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close fecha a conexão com o banco de dados
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// migrate cria as tabelas das entidades e aplica os arquivos SQL pendentes
func (d *Database) migrate(ctx context.Context) error {
	if err := d.db.WithContext(ctx).AutoMigrate(
		&model.UserEntity{},
		&model.EquipmentEntity{},
		&model.LoanEntity{},
	); err != nil {
		return fmt.Errorf("falha ao aplicar auto migração: %w", err)
	}

	applied, err := d.migration.ApplyMigrations(ctx)
	if err != nil {
		return err
	}
	if applied > 0 {
		d.logger.Info("Migrações SQL aplicadas", zap.Int("count", applied))
	}

	return nil
}

// CreateMigration cria um novo arquivo de migração
func (d *Database) CreateMigration(name string) (string, error) {
	return d.migration.CreateMigration(name)
}

// Users retorna o repositório de usuários fora de transação
func (d *Database) Users() repository.UserRepository {
	return NewUserRepository(d.db, d.logger)
}

// Equipment retorna o repositório de equipamentos fora de transação
func (d *Database) Equipment() repository.EquipmentRepository {
	return NewEquipmentRepository(d.db, d.logger)
}

// Loans retorna o repositório de empréstimos fora de transação
func (d *Database) Loans() repository.LoanRepository {
	return NewLoanRepository(d.db, d.logger)
}

// WithinTx executa fn dentro de uma transação. Qualquer erro desfaz todas as escritas.
func (d *Database) WithinTx(ctx context.Context, fn func(tx repository.Repositories) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{db: tx, logger: d.logger})
	})
}

// txRepositories liga os repositórios a uma transação aberta
type txRepositories struct {
	db     *gorm.DB
	logger *zap.Logger
}

func (t *txRepositories) Users() repository.UserRepository {
	return NewUserRepository(t.db, t.logger)
}

func (t *txRepositories) Equipment() repository.EquipmentRepository {
	return NewEquipmentRepository(t.db, t.logger)
}

func (t *txRepositories) Loans() repository.LoanRepository {
	return NewLoanRepository(t.db, t.logger)
}

// GormLogAdapter adapta o zap.Logger para uso com GORM
type GormLogAdapter struct {
	ZapLogger *zap.Logger
}

// Printf implementa a interface de Logger do GORM
func (l GormLogAdapter) Printf(format string, args ...interface{}) {
	l.ZapLogger.Debug(fmt.Sprintf(format, args...))
}
