package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/bitfantasy/dealflow/internal/config"
	"github.com/bitfantasy/dealflow/internal/crm/entity"
	"github.com/bitfantasy/dealflow/internal/crm/repository"
	"github.com/bitfantasy/dealflow/internal/crm/service"
	"github.com/bitfantasy/dealflow/internal/crm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)

	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret
	cfg.JWT.AccessTokenExpire = 30 * time.Minute
	cfg.JWT.RefreshTokenExpire = 7 * 24 * time.Hour
	cfg.JWT.Issuer = "dealflow"

	authSvc := service.NewAuthService(repos.User, nil, cfg)
	authHandler := NewAuthHandler(authSvc)

	router := testutil.SetupRouter()
	router.POST("/auth/login", authHandler.Login)

	user := testutil.SeedUser(t, db, "associate@test.local", entity.RoleAssociate)

	t.Run("valid credentials", func(t *testing.T) {
		w := testutil.DoRequest(router, http.MethodPost, "/auth/login", map[string]string{
			"email":    user.Email,
			"password": "password12345",
		}, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := testutil.ParseResponse(w)
		data := resp["data"].(map[string]interface{})
		tokens := data["tokens"].(map[string]interface{})
		assert.NotEmpty(t, tokens["access_token"])
		assert.NotEmpty(t, tokens["refresh_token"])

		loggedIn := data["user"].(map[string]interface{})
		assert.Equal(t, user.Email, loggedIn["email"])
		_, hasHash := loggedIn["password_hash"]
		assert.False(t, hasHash, "password hash must never be serialized")
	})

	t.Run("wrong password", func(t *testing.T) {
		w := testutil.DoRequest(router, http.MethodPost, "/auth/login", map[string]string{
			"email":    user.Email,
			"password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		w := testutil.DoRequest(router, http.MethodPost, "/auth/login", map[string]string{
			"email":    "ghost@test.local",
			"password": "password12345",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := testutil.DoRequest(router, http.MethodPost, "/auth/login", map[string]string{
			"email": "not-an-email",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
