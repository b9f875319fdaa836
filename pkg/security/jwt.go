package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// MinSecretLength é o tamanho mínimo aceito para o segredo HS256
const MinSecretLength = 32

var (
	ErrTokenExpired = errors.New("token expirado")
	ErrTokenInvalid = errors.New("token inválido")
)

// Claims são as declarações gravadas no token de sessão
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// KeyManager assina e verifica tokens HS256
type KeyManager struct {
	secretKey []byte
	logger    *zap.Logger
	now       func() time.Time
}

// NewKeyManager cria o gerenciador com o segredo da configuração. Segredo vazio
// gera uma chave aleatória: os tokens deixam de valer quando o processo reinicia.
func NewKeyManager(secret string, logger *zap.Logger) (*KeyManager, error) {
	key := []byte(secret)
	if secret == "" {
		key = make([]byte, MinSecretLength)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("falha ao gerar chave temporária: %w", err)
		}
		logger.Warn("auth.jwtSecret não definido, usando chave temporária")
	}

	if len(key) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret key muito curta: mínimo de %d bytes", MinSecretLength)
	}

	return &KeyManager{
		secretKey: key,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// GenerateToken emite um token para o usuário com a duração informada
func (km *KeyManager) GenerateToken(userID, role string, duration time.Duration) (string, time.Time, error) {
	issuedAt := km.now()
	expiresAt := issuedAt.Add(duration)

	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(km.secretKey)
	if err != nil {
		km.logger.Error("falha ao gerar token JWT", zap.Error(err))
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// VerifyToken valida assinatura e validade e devolve as claims
func (km *KeyManager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return km.secretKey, nil
	}, jwt.WithTimeFunc(km.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		km.logger.Debug("falha ao validar token JWT", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
