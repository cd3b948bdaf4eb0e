package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "s3cretpass"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessTokenSecret:  "access-secret-for-tests",
		RefreshTokenSecret: "refresh-secret-for-tests",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    time.Hour,
		BcryptCost:         bcrypt.MinCost,
		CookiePath:         "/",
		CookieSameSite:     "lax",
	}
}

func newTestAuthService(t *testing.T) (*AuthService, *db.Memory) {
	t.Helper()
	repo := db.NewMemory()
	svc, err := NewAuthService(repo, testAuthConfig(), true, discardLogger(), nil)
	require.NoError(t, err)
	return svc, repo
}

func registerUser(t *testing.T, svc *AuthService, username string) *model.PublicUser {
	t.Helper()
	user, err := svc.Register(context.Background(), model.RegisterRequest{
		FullName: "Test " + username,
		Email:    username + "@example.com",
		Username: username,
		Password: testPassword,
	})
	require.NoError(t, err)
	return user
}
