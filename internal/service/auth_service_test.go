package service

import (
	"testing"
	"time"

	"owl_eval_backend/internal/config"
	"owl_eval_backend/internal/model"
	"owl_eval_backend/internal/repository"
	"owl_eval_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-for-token-signing"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	svc := newAuthService(t)

	first := &model.User{Name: "Alice", Email: "alice@example.com", Password: "password123"}
	require.NoError(t, svc.Register(first))
	assert.Equal(t, model.Admin, first.Role)

	second := &model.User{Name: "Bob", Email: "bob@example.com", Password: "password123"}
	require.NoError(t, svc.Register(second))
	assert.Equal(t, model.Viewer, second.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthService(t)

	u := &model.User{Name: "Alice", Email: "alice@example.com", Password: "password123"}
	require.NoError(t, svc.Register(u))

	dup := &model.User{Name: "Alice2", Email: "alice@example.com", Password: "password456"}
	assert.ErrorIs(t, svc.Register(dup), util.ErrEmailRegistered)
}

func TestLogin(t *testing.T) {
	svc := newAuthService(t)

	u := &model.User{Name: "Alice", Email: "alice@example.com", Password: "password123"}
	require.NoError(t, svc.Register(u))

	token, err := svc.Login("alice@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := util.ParseJWT(token, svc.Cfg.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, model.Admin, claims.Role)
	assert.Equal(t, "alice@example.com", claims.Email)

	_, err = svc.Login("alice@example.com", "wrong-password")
	assert.Error(t, err)

	_, err = svc.Login("nobody@example.com", "password123")
	assert.Error(t, err)
}
