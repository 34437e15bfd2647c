package repository

import (
	"context"
	"errors"
	"time"

	"account-backend/internal/models"

	"gorm.io/gorm"
)

type VerificationCodeRepository struct {
	db *gorm.DB
}

func NewVerificationCodeRepository(db *gorm.DB) *VerificationCodeRepository {
	return &VerificationCodeRepository{db: db}
}

func (r *VerificationCodeRepository) Create(ctx context.Context, code *models.VerificationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// Find looks up a code by the exact (email, code, purpose) triple.
func (r *VerificationCodeRepository) Find(ctx context.Context, email, code string, purpose models.CodePurpose) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	result := r.db.WithContext(ctx).
		Where("email = ? AND code = ? AND purpose = ?", email, code, purpose).
		First(&vc)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &vc, nil
}

// MarkUsed flips used from false to true. The conditional update makes
// redemption single-use under concurrent attempts.
func (r *VerificationCodeRepository) MarkUsed(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.VerificationCode{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteExpired removes codes past their expiry and used codes.
func (r *VerificationCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at <= ? OR used = ?", now, true).
		Delete(&models.VerificationCode{})
	return result.RowsAffected, result.Error
}
