package service

import (
	"time"

	"github.com/diillson/equipment-lending/internal/app/auth"
	"github.com/diillson/equipment-lending/internal/app/identity"
	"github.com/diillson/equipment-lending/internal/app/inventory"
	"github.com/diillson/equipment-lending/internal/app/loan"
	"github.com/diillson/equipment-lending/internal/domain/repository"
	"github.com/diillson/equipment-lending/pkg/cache"
	"github.com/diillson/equipment-lending/pkg/clock"
	"github.com/diillson/equipment-lending/pkg/config"
	"github.com/diillson/equipment-lending/pkg/security"
	"go.uber.org/zap"
)

// Services contém todos os serviços da aplicação
type Services struct {
	Inventory *inventory.Service
	Identity  *identity.Service
	Loans     *loan.Service
	Auth      *auth.AuthService
}

// Dependencies reúne o que os serviços precisam da infraestrutura
type Dependencies struct {
	Store    repository.Store
	Cache    cache.Cache
	Clock    clock.Clock
	Recorder loan.Recorder // opcional
	Logger   *zap.Logger
}

// NewServices cria todos os serviços a partir da configuração
func NewServices(cfg *config.Config, deps Dependencies) (*Services, error) {
	keyManager, err := security.NewKeyManager(cfg.Auth.JWTSecret, deps.Logger)
	if err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.TTL
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	inventoryService := inventory.NewService(deps.Store, deps.Cache, cacheTTL, deps.Logger.Named("inventory"))

	identityService := identity.NewService(deps.Store, identity.Options{
		PasswordMinLen: cfg.Auth.PasswordMinLen,
		BcryptCost:     cfg.Auth.BcryptCost,
	}, inventoryService, deps.Logger.Named("identity"))

	opts := []loan.Option{loan.WithListingInvalidator(inventoryService)}
	if deps.Recorder != nil {
		opts = append(opts, loan.WithRecorder(deps.Recorder))
	}
	loanService := loan.NewService(deps.Store, deps.Clock, cfg.Lending.DefaultFineRate, deps.Logger.Named("loan"), opts...)

	authService := auth.NewAuthService(keyManager, identityService, cfg.Auth.TokenExpiration, deps.Logger.Named("auth"))

	return &Services{
		Inventory: inventoryService,
		Identity:  identityService,
		Loans:     loanService,
		Auth:      authService,
	}, nil
}
