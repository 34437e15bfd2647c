package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"account-backend/config"
	"account-backend/internal/auth"
	"account-backend/internal/models"
	"account-backend/internal/revocation"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *auth.Signer, revocation.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.BlacklistedToken{}))

	signer := auth.NewSigner("test-secret")
	revocations := revocation.NewGormStore(db)

	cfg := &config.AuthConfig{
		PublicPrefixes: []string{"/auth/login", "/health"},
	}

	app := fiber.New()
	app.Use(Authenticate(cfg, signer, revocations))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/protected", func(c *fiber.Ctx) error {
		claims := Principal(c)
		require.NotNil(t, claims)
		return c.SendString(claims.Subject)
	})

	return app, signer, revocations
}

func signToken(t *testing.T, signer *auth.Signer, subject string, kind auth.TokenKind, ttl time.Duration) (string, *auth.Claims) {
	t.Helper()
	now := time.Now()
	claims := &auth.Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        subject + "-" + string(kind),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	return token, claims
}

func TestAuthenticate_PublicPathBypassesGate(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthenticate_MissingHeaderIsRejected(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticate_ValidTokenBindsPrincipal(t *testing.T) {
	t.Parallel()

	app, signer, _ := newTestApp(t)
	token, _ := signToken(t, signer, "alice", auth.KindAccess, time.Minute)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "alice", string(body))
}

func TestAuthenticate_BareTokenWithoutBearerPrefix(t *testing.T) {
	t.Parallel()

	app, signer, _ := newTestApp(t)
	token, _ := signToken(t, signer, "alice", auth.KindAccess, time.Minute)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthenticate_RefreshTokenNeverAuthenticates(t *testing.T) {
	t.Parallel()

	app, signer, _ := newTestApp(t)
	token, _ := signToken(t, signer, "alice", auth.KindRefresh, time.Hour)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticate_ExpiredTokenIsRejected(t *testing.T) {
	t.Parallel()

	app, signer, _ := newTestApp(t)
	token, _ := signToken(t, signer, "alice", auth.KindAccess, -time.Minute)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthenticate_RevokedTokenIsRejected(t *testing.T) {
	t.Parallel()

	app, signer, revocations := newTestApp(t)
	token, claims := signToken(t, signer, "alice", auth.KindAccess, time.Hour)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Revoking the id flips every subsequent request to 401, well before
	// the token's embedded expiry
	require.NoError(t, revocations.Revoke(req.Context(), claims.ID, claims.ExpiresAt.Time, "logout"))

	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

// downStore simulates a revocation backend outage on every call
type downStore struct{}

func (downStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time, reason string) error {
	return errors.New("store unavailable")
}

func (downStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return false, errors.New("store unavailable")
}

func (downStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, errors.New("store unavailable")
}

func TestAuthenticate_StoreOutageFailsClosed(t *testing.T) {
	t.Parallel()

	signer := auth.NewSigner("test-secret")
	cfg := &config.AuthConfig{PublicPrefixes: []string{"/health"}}

	app := fiber.New()
	app.Use(Authenticate(cfg, signer, downStore{}))
	app.Get("/protected", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	// A valid, unrevoked token must still be denied when the revocation
	// check cannot complete
	token, _ := signToken(t, signer, "alice", auth.KindAccess, time.Minute)
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Public routes never consult the store, so the outage does not take
	// them down
	req = httptest.NewRequest("GET", "/health", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAuthenticate_GarbageTokenIsRejected(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
