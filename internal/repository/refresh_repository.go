package repository

import (
	"context"
	"errors"
	"time"

	"account-backend/internal/models"

	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *RefreshTokenRepository) GetByTokenID(ctx context.Context, tokenID string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	result := r.db.WithContext(ctx).Where("token_id = ?", tokenID).First(&token)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &token, nil
}

// Consume flips revoked from false to true for the given token id. The
// conditional update serializes concurrent rotations of the same token: of
// two racing callers exactly one sees rows affected.
func (r *RefreshTokenRepository) Consume(ctx context.Context, tokenID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_id = ? AND revoked = ?", tokenID, false).
		Update("revoked", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RevokeAllForSubject revokes every outstanding refresh token for a subject.
// Used by the admin CLI and the revoke-sessions endpoint.
func (r *RefreshTokenRepository) RevokeAllForSubject(ctx context.Context, subject string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("subject = ? AND revoked = ?", subject, false).
		Update("revoked", true)
	return result.RowsAffected, result.Error
}

// DeleteExpired removes records past their expiry, and revoked records older
// than the retention window.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time, retention time.Duration) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ? OR (revoked = ? AND created_at <= ?)", now, true, now.Add(-retention)).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
