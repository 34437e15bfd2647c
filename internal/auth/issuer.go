package auth

import (
	"context"
	"fmt"
	"time"

	"account-backend/internal/models"
	"account-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer builds signed access and refresh tokens. Refresh issuance
// persists the backing record before the token string is handed out, so a
// returned refresh token always has a row to rotate against.
type TokenIssuer struct {
	signer      *Signer
	refreshRepo *repository.RefreshTokenRepository
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

func NewTokenIssuer(signer *Signer, refreshRepo *repository.RefreshTokenRepository, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		signer:      signer,
		refreshRepo: refreshRepo,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

func (i *TokenIssuer) newClaims(subject string, kind TokenKind, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// IssueAccessToken signs a short-lived access token for the subject
func (i *TokenIssuer) IssueAccessToken(subject string) (string, *Claims, error) {
	claims := i.newClaims(subject, KindAccess, i.accessTTL)
	token, err := i.signer.Sign(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// IssueRefreshToken signs a refresh token and persists its record. If the
// insert fails no token string is returned.
func (i *TokenIssuer) IssueRefreshToken(ctx context.Context, subject, deviceID string) (string, *Claims, error) {
	claims := i.newClaims(subject, KindRefresh, i.refreshTTL)
	token, err := i.signer.Sign(claims)
	if err != nil {
		return "", nil, err
	}

	record := &models.RefreshToken{
		TokenID:   claims.ID,
		Subject:   subject,
		ExpiresAt: claims.ExpiresAt.Time,
		DeviceID:  deviceID,
	}
	if err := i.refreshRepo.Create(ctx, record); err != nil {
		return "", nil, fmt.Errorf("persisting refresh token: %w", err)
	}

	return token, claims, nil
}

// IssuePair issues a fresh access/refresh token pair for the subject
func (i *TokenIssuer) IssuePair(ctx context.Context, subject, deviceID string) (string, string, error) {
	accessToken, _, err := i.IssueAccessToken(subject)
	if err != nil {
		return "", "", err
	}
	refreshToken, _, err := i.IssueRefreshToken(ctx, subject, deviceID)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}
