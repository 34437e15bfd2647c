package models

import "time"

// RefreshToken is the persisted record backing an issued refresh token.
// Revoked flips false->true exactly once, either by rotation or by logout;
// a record is never un-revoked.
type RefreshToken struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	TokenID   string    `json:"tokenId" gorm:"column:token_id;type:varchar(36);uniqueIndex;not null"`
	Subject   string    `json:"subject" gorm:"type:varchar(255);not null;index"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	Revoked   bool      `json:"revoked" gorm:"not null;default:false"`
	DeviceID  string    `json:"deviceId" gorm:"column:device_id;type:varchar(255)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime;not null"`
}

// TableName specifies the table name for GORM
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// BlacklistedToken records an access token id revoked before its natural
// expiry. Presence alone makes the token invalid; rows past expires_at are
// swept because the token then fails validation on expiry anyway.
type BlacklistedToken struct {
	ID            uint      `json:"-" gorm:"primaryKey"`
	TokenID       string    `json:"tokenId" gorm:"column:token_id;type:varchar(36);uniqueIndex;not null"`
	ExpiresAt     time.Time `json:"expiresAt" gorm:"not null;index"`
	BlacklistedAt time.Time `json:"blacklistedAt" gorm:"autoCreateTime;not null"`
	Reason        string    `json:"reason" gorm:"type:varchar(100)"`
}

// TableName specifies the table name for GORM
func (BlacklistedToken) TableName() string {
	return "blacklisted_tokens"
}
