package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 50.0, cfg.Lending.DefaultFineRate)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenExpiration)
	assert.Equal(t, time.Minute, cfg.RateLimit.Period)
	assert.NoError(t, Validate(cfg))
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
lending:
  defaultFineRate: 20
database:
  driver: postgres
  dsn: postgres://localhost/lending
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	t.Setenv("LT_SERVER_PORT", "9090")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 20.0, cfg.Lending.DefaultFineRate)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	t.Run("invalid driver", func(t *testing.T) {
		cfg := Default()
		cfg.Database.Driver = "oracle"
		assert.Error(t, Validate(cfg))
	})

	t.Run("negative fine rate", func(t *testing.T) {
		cfg := Default()
		cfg.Lending.DefaultFineRate = -1
		assert.Error(t, Validate(cfg))
	})

	t.Run("redis cache without address", func(t *testing.T) {
		cfg := Default()
		cfg.Cache.Type = "redis"
		cfg.Cache.Redis.Address = ""
		assert.Error(t, Validate(cfg))
	})

	t.Run("tls without certificates", func(t *testing.T) {
		cfg := Default()
		cfg.Server.TLS = true
		assert.Error(t, Validate(cfg))

		cfg.Server.Domains = []string{"emprestimos.example.edu"}
		assert.NoError(t, Validate(cfg))
	})
}
