package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config representa a configuração completa da aplicação
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Lending   LendingConfig   `yaml:"lending"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig contém configurações do servidor HTTP
type ServerConfig struct {
	Port           int           `yaml:"port"`
	Host           string        `yaml:"host"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	MaxHeaderBytes int           `yaml:"maxHeaderBytes"`
	TLS            bool          `yaml:"tls"`
	CertFile       string        `yaml:"certFile"`
	KeyFile        string        `yaml:"keyFile"`
	// Domains habilita certificados Let's Encrypt quando TLS está ligado sem certFile/keyFile
	Domains       []string `yaml:"domains"`
	AllowedOrigin string   `yaml:"allowedOrigin"`
}

// DatabaseConfig contém configurações do banco de dados
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	LogLevel        string        `yaml:"logLevel"`
	SlowThreshold   time.Duration `yaml:"slowThreshold"`
	MigrationDir    string        `yaml:"migrationDir"`
	SkipMigrations  bool          `yaml:"skipMigrations"`
}

// RedisOptions contém configurações específicas para Redis
type RedisOptions struct {
	Address      string        `yaml:"address"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"poolSize"`
	MinIdleConns int           `yaml:"minIdleConns"`
	MaxRetries   int           `yaml:"maxRetries"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
}

// CacheConfig contém configurações do cache das listagens de equipamentos
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Type            string        `yaml:"type"` // redis, memory
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	Redis           RedisOptions  `yaml:"redis"`
}

// AuthConfig contém configurações de autenticação
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwtSecret"`
	TokenExpiration time.Duration `yaml:"tokenExpiration"`
	PasswordMinLen  int           `yaml:"passwordMinLen"`
	BcryptCost      int           `yaml:"bcryptCost"`
}

// LendingConfig contém as regras de empréstimo
type LendingConfig struct {
	// DefaultFineRate é usada quando o equipamento não define taxa própria
	DefaultFineRate float64        `yaml:"defaultFineRate"`
	BootstrapAdmin  BootstrapAdmin `yaml:"bootstrapAdmin"`
}

// BootstrapAdmin descreve o administrador criado na inicialização, se ainda não existir
type BootstrapAdmin struct {
	Enabled     bool   `yaml:"enabled"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"displayName"`
}

// RateLimitConfig limita tentativas de login por IP
type RateLimitConfig struct {
	Enabled bool          `yaml:"enabled"`
	Backend string        `yaml:"backend"` // memory, redis
	Limit   int           `yaml:"limit"`
	Period  time.Duration `yaml:"period"`
	Burst   int           `yaml:"burst"`
}

// MetricsConfig contém configurações de métricas
type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	PrometheusPath string `yaml:"prometheusPath"`
}

// LoggingConfig contém configurações de logging
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json, console
	OutputPath string `yaml:"outputPath"`
	Production bool   `yaml:"production"`
}

// TracingConfig contém configurações de rastreamento
type TracingConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Endpoint      string  `yaml:"endpoint"`
	ServiceName   string  `yaml:"serviceName"`
	SamplingRatio float64 `yaml:"samplingRatio"`
}

// LoadConfig carrega a configuração de diversas fontes (arquivos, env, defaults)
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/lending")

	if err := v.ReadInConfig(); err != nil {
		// Ignorar se o arquivo não for encontrado
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("erro ao ler arquivo de configuração: %w", err)
		}
	}

	// Variáveis de ambiente com prefixo LT_, ex.: LT_DATABASE_DSN
	v.SetEnvPrefix("LT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("erro ao mapear configuração: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default devolve a configuração apenas com os valores padrão
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// Os defaults são sempre mapeáveis
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults define valores padrão para a configuração
func setDefaults(v *viper.Viper) {
	// Servidor
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "5s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "30s")
	v.SetDefault("server.maxHeaderBytes", 1<<20)
	v.SetDefault("server.tls", false)
	v.SetDefault("server.allowedOrigin", "*")

	// Banco de dados
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:lending.db?_pragma=busy_timeout(5000)")
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.connMaxLifetime", "1h")
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("database.slowThreshold", "200ms")
	v.SetDefault("database.migrationDir", "./migrations")

	// Cache
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.cleanupInterval", "10m")
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.poolSize", 10)
	v.SetDefault("cache.redis.minIdleConns", 2)
	v.SetDefault("cache.redis.maxRetries", 3)
	v.SetDefault("cache.redis.readTimeout", "3s")
	v.SetDefault("cache.redis.writeTimeout", "3s")
	v.SetDefault("cache.redis.dialTimeout", "5s")

	// Autenticação
	v.SetDefault("auth.tokenExpiration", "24h")
	v.SetDefault("auth.passwordMinLen", 6)
	v.SetDefault("auth.bcryptCost", 10)

	// Empréstimos
	v.SetDefault("lending.defaultFineRate", 50.0)
	v.SetDefault("lending.bootstrapAdmin.enabled", true)
	v.SetDefault("lending.bootstrapAdmin.username", "admin")
	v.SetDefault("lending.bootstrapAdmin.password", "admin123")
	v.SetDefault("lending.bootstrapAdmin.displayName", "Administrador")

	// Rate limit do login
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.backend", "memory")
	v.SetDefault("rateLimit.limit", 10)
	v.SetDefault("rateLimit.period", "1m")
	v.SetDefault("rateLimit.burst", 5)

	// Métricas
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.prometheusPath", "/metrics")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
	v.SetDefault("logging.production", true)

	// Tracing
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.samplingRatio", 0.1)
	v.SetDefault("tracing.serviceName", "equipment-lending")
}

// Validate valida a configuração
func Validate(config *Config) error {
	if config.Server.TLS {
		if (config.Server.CertFile == "" || config.Server.KeyFile == "") && len(config.Server.Domains) == 0 {
			return fmt.Errorf("TLS habilitado, mas CertFile/KeyFile ou Domains não estão definidos")
		}
	}

	validDrivers := map[string]bool{"sqlite": true, "mysql": true, "postgres": true}
	if !validDrivers[config.Database.Driver] {
		return fmt.Errorf("driver de banco de dados inválido: %s", config.Database.Driver)
	}

	if config.Cache.Enabled {
		validTypes := map[string]bool{"memory": true, "redis": true}
		if !validTypes[config.Cache.Type] {
			return fmt.Errorf("tipo de cache inválido: %s", config.Cache.Type)
		}
		if config.Cache.Type == "redis" && config.Cache.Redis.Address == "" {
			return fmt.Errorf("tipo de cache redis requer um endereço")
		}
	}

	if config.RateLimit.Enabled {
		validBackends := map[string]bool{"memory": true, "redis": true}
		if !validBackends[config.RateLimit.Backend] {
			return fmt.Errorf("backend de rate limit inválido: %s", config.RateLimit.Backend)
		}
		if config.RateLimit.Limit <= 0 || config.RateLimit.Period <= 0 {
			return fmt.Errorf("rate limit requer limite e período positivos")
		}
	}

	if config.Lending.DefaultFineRate < 0 {
		return fmt.Errorf("taxa de multa padrão não pode ser negativa: %v", config.Lending.DefaultFineRate)
	}

	if config.Lending.BootstrapAdmin.Enabled && config.Lending.BootstrapAdmin.Username == "" {
		return fmt.Errorf("administrador inicial habilitado sem username")
	}

	if config.Auth.JWTSecret == "" {
		fmt.Println("AVISO: auth.jwtSecret não está definido. Uma chave temporária será gerada, mas isso não é recomendado para produção.")
	}

	return nil
}
