package revocation

import (
	"context"
	"time"

	"account-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps revoked token ids in the blacklisted_tokens table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time, reason string) error {
	entry := &models.BlacklistedToken{
		TokenID:       tokenID,
		ExpiresAt:     expiresAt,
		BlacklistedAt: time.Now(),
		Reason:        reason,
	}

	// ON CONFLICT DO NOTHING keeps Revoke idempotent on the unique token_id
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			DoNothing: true,
		}).
		Create(entry).Error
}

func (s *GormStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	result := s.db.WithContext(ctx).Model(&models.BlacklistedToken{}).
		Where("token_id = ?", tokenID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

func (s *GormStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.BlacklistedToken{})
	return result.RowsAffected, result.Error
}
