package testutils

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diillson/equipment-lending/internal/adapter/database"
	"github.com/diillson/equipment-lending/internal/domain/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"
)

// TestLogger cria um logger zap para testes
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// NewTestDatabase abre um SQLite em memória exclusivo do teste, com as tabelas criadas
func NewTestDatabase(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.NewDatabase(context.Background(), database.Config{
		Driver:       "sqlite",
		DSN:          "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=busy_timeout(5000)",
		MaxOpenConns: 1,
		LogLevel:     logger.Silent,
	}, TestLogger(t))
	require.NoError(t, err, "Failed to open test database")

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SeedUser grava um usuário direto no banco; a senha é sempre "secret123"
func SeedUser(t *testing.T, db *database.Database, username string, role model.Role) *model.UserEntity {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.UserEntity{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         string(role),
		DisplayName:  strings.ToUpper(username),
	}
	if role == model.RoleStudent {
		code := "C-" + username
		user.Code = &code
	}

	require.NoError(t, db.Users().Create(context.Background(), user))
	return user
}

// SeedEquipment grava um equipamento disponível direto no banco
func SeedEquipment(t *testing.T, db *database.Database, code string, rate *float64) *model.EquipmentEntity {
	t.Helper()

	equipment := &model.EquipmentEntity{
		ID:            uuid.NewString(),
		Code:          code,
		Name:          "Equipamento " + code,
		Status:        string(model.EquipmentAvailable),
		DailyFineRate: rate,
	}

	require.NoError(t, db.Equipment().Create(context.Background(), equipment))
	return equipment
}

// SetupTestRouter configura um router Gin para testes
func SetupTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	return router
}

// MakeRequest executa uma requisição HTTP de teste
func MakeRequest(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody io.Reader

	if body != nil {
		switch v := body.(type) {
		case string:
			reqBody = strings.NewReader(v)
		case []byte:
			reqBody = strings.NewReader(string(v))
		default:
			jsonData, err := json.Marshal(body)
			require.NoError(t, err, "Failed to marshal request body")
			reqBody = strings.NewReader(string(jsonData))
		}
	}

	req, err := http.NewRequest(method, path, reqBody)
	require.NoError(t, err, "Failed to create HTTP request")

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	return resp
}

// ParseResponse analisa a resposta JSON para uma estrutura
func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, dst interface{}) {
	require.NotNil(t, resp, "Response recorder is nil")

	err := json.Unmarshal(resp.Body.Bytes(), dst)
	require.NoError(t, err, "Failed to parse response: %s", resp.Body.String())
}

// RequireHTTPStatus verifica o status HTTP da resposta
func RequireHTTPStatus(t *testing.T, resp *httptest.ResponseRecorder, status int) {
	require.Equal(t, status, resp.Code, "Expected HTTP status %d but got %d, body: %s",
		status, resp.Code, resp.Body.String())
}

// RequireJSONContentType verifica se o Content-Type da resposta é JSON
func RequireJSONContentType(t *testing.T, resp *httptest.ResponseRecorder) {
	contentType := resp.Header().Get("Content-Type")
	require.Contains(t, contentType, "application/json",
		"Expected Content-Type to contain application/json but got %s", contentType)
}
