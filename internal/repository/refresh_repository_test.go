package repository

import (
	"context"
	"testing"
	"time"

	"account-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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
		&models.VerificationCode{},
	))
	return db
}

func TestRefreshTokenRepository_ConsumeOnce(t *testing.T) {
	t.Parallel()

	repo := NewRefreshTokenRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.RefreshToken{
		TokenID:   "tok-1",
		Subject:   "alice",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	consumed, err := repo.Consume(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, consumed)

	// The transition only fires once
	consumed, err = repo.Consume(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, consumed)

	record, err := repo.GetByTokenID(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Revoked)
}

func TestRefreshTokenRepository_ConsumeUnknownToken(t *testing.T) {
	t.Parallel()

	repo := NewRefreshTokenRepository(newTestDB(t))

	consumed, err := repo.Consume(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.False(t, consumed)
}

func TestRefreshTokenRepository_GetByTokenIDMissing(t *testing.T) {
	t.Parallel()

	repo := NewRefreshTokenRepository(newTestDB(t))

	record, err := repo.GetByTokenID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRefreshTokenRepository_RevokeAllForSubject(t *testing.T) {
	t.Parallel()

	repo := NewRefreshTokenRepository(newTestDB(t))
	ctx := context.Background()

	for _, id := range []string{"a-1", "a-2", "a-3"} {
		require.NoError(t, repo.Create(ctx, &models.RefreshToken{
			TokenID:   id,
			Subject:   "alice",
			ExpiresAt: time.Now().Add(time.Hour),
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{
		TokenID:   "b-1",
		Subject:   "bob",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	// One of alice's tokens is already consumed
	consumed, err := repo.Consume(ctx, "a-1")
	require.NoError(t, err)
	require.True(t, consumed)

	count, err := repo.RevokeAllForSubject(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Bob's token is untouched
	record, err := repo.GetByTokenID(ctx, "b-1")
	require.NoError(t, err)
	assert.False(t, record.Revoked)
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	t.Parallel()

	repo := NewRefreshTokenRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.RefreshToken{
		TokenID:   "expired",
		Subject:   "alice",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{
		TokenID:   "live",
		Subject:   "alice",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	removed, err := repo.DeleteExpired(ctx, time.Now(), 24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	record, err := repo.GetByTokenID(ctx, "expired")
	require.NoError(t, err)
	assert.Nil(t, record)

	record, err = repo.GetByTokenID(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, record)
}

func TestVerificationCodeRepository_MarkUsedOnce(t *testing.T) {
	t.Parallel()

	repo := NewVerificationCodeRepository(newTestDB(t))
	ctx := context.Background()

	code := &models.VerificationCode{
		Email:     "bob@example.com",
		Code:      "123456",
		Purpose:   models.PurposeEmailVerification,
		ExpiresAt: time.Now().Add(time.Minute),
	}
	require.NoError(t, repo.Create(ctx, code))

	used, err := repo.MarkUsed(ctx, code.ID)
	require.NoError(t, err)
	assert.True(t, used)

	used, err = repo.MarkUsed(ctx, code.ID)
	require.NoError(t, err)
	assert.False(t, used)
}

func TestVerificationCodeRepository_FindExactTriple(t *testing.T) {
	t.Parallel()

	repo := NewVerificationCodeRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.VerificationCode{
		Email:     "bob@example.com",
		Code:      "123456",
		Purpose:   models.PurposePasswordReset,
		ExpiresAt: time.Now().Add(time.Minute),
	}))

	found, err := repo.Find(ctx, "bob@example.com", "123456", models.PurposePasswordReset)
	require.NoError(t, err)
	require.NotNil(t, found)

	found, err = repo.Find(ctx, "bob@example.com", "123456", models.PurposeEmailVerification)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.Find(ctx, "eve@example.com", "123456", models.PurposePasswordReset)
	require.NoError(t, err)
	assert.Nil(t, found)
}
