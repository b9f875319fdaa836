package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diillson/equipment-lending/internal/domain/model"
	apperrors "github.com/diillson/equipment-lending/pkg/errors"
	"github.com/diillson/equipment-lending/pkg/security"
	"go.uber.org/zap"
)

// UserDirectory é a parte do cadastro de usuários usada pela autenticação
type UserDirectory interface {
	VerifyCredentials(ctx context.Context, username, password string) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// LoginResult é devolvido a um login bem-sucedido
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// AuthService gerencia operações de autenticação
type AuthService struct {
	keyManager *security.KeyManager
	users      UserDirectory
	expiration time.Duration
	logger     *zap.Logger
}

// NewAuthService cria um novo serviço de autenticação
func NewAuthService(keyManager *security.KeyManager, users UserDirectory, expiration time.Duration, logger *zap.Logger) *AuthService {
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &AuthService{
		keyManager: keyManager,
		users:      users,
		expiration: expiration,
		logger:     logger,
	}
}

// Login autentica um usuário e gera um token JWT
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.VerifyCredentials(ctx, username, password)
	if err != nil {
		s.logger.Warn("Falha na autenticação", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	token, expiresAt, err := s.keyManager.GenerateToken(user.ID, string(user.Role), s.expiration)
	if err != nil {
		s.logger.Error("Falha ao gerar token", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Login bem-sucedido", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ValidateToken valida um token JWT e retorna o usuário atual. O papel vem do
// cadastro, não do token, então mudanças de papel valem na hora.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.keyManager.VerifyToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperrors.ErrUnauthorized)
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("usuário do token não existe mais: %w", apperrors.ErrUnauthorized)
	}
	if err != nil {
		s.logger.Error("Falha ao carregar usuário do token", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}

	return user, nil
}
