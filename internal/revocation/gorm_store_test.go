package revocation

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

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.BlacklistedToken{}))
	return NewGormStore(db)
}

func TestGormStore_RevokeAndCheck(t *testing.T) {
	t.Parallel()

	store := newTestGormStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "token-1", time.Now().Add(time.Hour), "logout"))

	revoked, err = store.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestGormStore_RevokeIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestGormStore(t)
	ctx := context.Background()

	expiry := time.Now().Add(time.Hour)
	require.NoError(t, store.Revoke(ctx, "token-1", expiry, "logout"))
	require.NoError(t, store.Revoke(ctx, "token-1", expiry, "logout"))

	revoked, err := store.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestGormStore_EntryOutlivesNothing(t *testing.T) {
	t.Parallel()

	store := newTestGormStore(t)
	ctx := context.Background()

	// An entry stays effective until swept, even past its expiry: the
	// blacklist is only consulted, never trusted to self-expire.
	require.NoError(t, store.Revoke(ctx, "token-1", time.Now().Add(-time.Minute), "logout"))

	revoked, err := store.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestGormStore_SweepExpired(t *testing.T) {
	t.Parallel()

	store := newTestGormStore(t)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "stale", time.Now().Add(-time.Minute), "logout"))
	require.NoError(t, store.Revoke(ctx, "live", time.Now().Add(time.Hour), "logout"))

	removed, err := store.SweepExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	revoked, err := store.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = store.IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}
