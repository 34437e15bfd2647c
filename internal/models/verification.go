package models

import "time"

type CodePurpose string

const (
	PurposeEmailVerification CodePurpose = "email_verification"
	PurposePasswordReset     CodePurpose = "password_reset"
)

// VerificationCode is a single-use, time-bounded code proving control of an
// email address. Used flips false->true exactly once on redemption. Several
// codes may be outstanding for the same email and purpose; validation matches
// the exact code value.
type VerificationCode struct {
	ID        uint        `json:"-" gorm:"primaryKey"`
	Email     string      `json:"email" gorm:"type:varchar(255);not null;index:idx_code_lookup"`
	Code      string      `json:"code" gorm:"type:varchar(10);not null;index:idx_code_lookup"`
	Purpose   CodePurpose `json:"purpose" gorm:"type:varchar(30);not null;index:idx_code_lookup"`
	ExpiresAt time.Time   `json:"expiresAt" gorm:"not null;index"`
	Used      bool        `json:"used" gorm:"not null;default:false"`
	CreatedAt time.Time   `json:"createdAt" gorm:"autoCreateTime;not null"`
}

// TableName specifies the table name for GORM
func (VerificationCode) TableName() string {
	return "verification_codes"
}
