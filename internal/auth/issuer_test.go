package auth

import (
	"context"
	"testing"
	"time"

	"account-backend/internal/models"
	"account-backend/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory sqlite database with the credential tables
// migrated. A single connection keeps conditional updates serialized the way
// a row-locking store would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.BlacklistedToken{},
		&models.VerificationCode{},
	))
	return db
}

func newTestIssuer(t *testing.T, db *gorm.DB) (*TokenIssuer, *repository.RefreshTokenRepository) {
	t.Helper()
	signer := NewSigner("test-secret")
	refreshRepo := repository.NewRefreshTokenRepository(db)
	return NewTokenIssuer(signer, refreshRepo, 15*time.Minute, 7*24*time.Hour), refreshRepo
}

func TestTokenIssuer_AccessToken(t *testing.T) {
	t.Parallel()

	issuer, _ := newTestIssuer(t, newTestDB(t))

	token, claims, err := issuer.IssueAccessToken("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 2*time.Second)
}

func TestTokenIssuer_FreshTokenIDs(t *testing.T) {
	t.Parallel()

	issuer, _ := newTestIssuer(t, newTestDB(t))

	_, first, err := issuer.IssueAccessToken("alice")
	require.NoError(t, err)
	_, second, err := issuer.IssueAccessToken("alice")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestTokenIssuer_RefreshTokenPersistsRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	issuer, refreshRepo := newTestIssuer(t, db)
	ctx := context.Background()

	token, claims, err := issuer.IssueRefreshToken(ctx, "alice", "device-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, KindRefresh, claims.Kind)

	record, err := refreshRepo.GetByTokenID(ctx, claims.ID)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "alice", record.Subject)
	assert.Equal(t, "device-1", record.DeviceID)
	assert.False(t, record.Revoked)
	assert.WithinDuration(t, claims.ExpiresAt.Time, record.ExpiresAt, time.Second)
}

func TestTokenIssuer_RefreshPersistenceFailureReturnsNoToken(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	issuer, _ := newTestIssuer(t, db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	token, _, err := issuer.IssueRefreshToken(context.Background(), "alice", "")
	assert.Error(t, err)
	assert.Empty(t, token)
}
