package auth

import (
	"context"
	"fmt"
	"time"

	"account-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// RefreshRotator exchanges a valid refresh token for a new token pair,
// consuming the old token so it can never rotate twice.
type RefreshRotator struct {
	signer      *Signer
	issuer      *TokenIssuer
	refreshRepo *repository.RefreshTokenRepository
	userRepo    *repository.UserRepository
}

func NewRefreshRotator(signer *Signer, issuer *TokenIssuer, refreshRepo *repository.RefreshTokenRepository, userRepo *repository.UserRepository) *RefreshRotator {
	return &RefreshRotator{
		signer:      signer,
		issuer:      issuer,
		refreshRepo: refreshRepo,
		userRepo:    userRepo,
	}
}

// Rotate validates the presented refresh token, consumes its record, and
// issues a new access/refresh pair. A replayed token fails with
// ErrTokenRevoked; only the replayed token is rejected, outstanding tokens
// for the subject stay valid (see the admin revoke-sessions endpoint for
// family-wide revocation).
func (r *RefreshRotator) Rotate(ctx context.Context, presented string) (string, string, error) {
	claims, err := r.signer.Verify(presented)
	if err != nil {
		return "", "", err
	}
	if claims.Kind != KindRefresh {
		return "", "", ErrWrongTokenKind
	}

	record, err := r.refreshRepo.GetByTokenID(ctx, claims.ID)
	if err != nil {
		return "", "", fmt.Errorf("loading refresh record: %w", err)
	}
	if record == nil {
		// Never issued here, or already purged by the sweep
		return "", "", ErrTokenNotFound
	}
	if record.Revoked {
		log.Warn().
			Str("tokenId", record.TokenID).
			Str("subject", record.Subject).
			Msg("Refresh token replay detected")
		return "", "", ErrTokenRevoked
	}
	if !time.Now().Before(record.ExpiresAt) {
		return "", "", ErrTokenExpired
	}

	// The subject comes from the persisted record, not from the client's
	// claims, and must still resolve to a live account.
	user, err := r.userRepo.GetUserByID(ctx, record.Subject)
	if err != nil {
		return "", "", fmt.Errorf("resolving subject: %w", err)
	}
	if user == nil || !user.IsActive {
		return "", "", ErrSubjectNotFound
	}

	// Conditional update closes the double-rotation race: of two
	// concurrent rotations of the same token, one loses here.
	consumed, err := r.refreshRepo.Consume(ctx, record.TokenID)
	if err != nil {
		return "", "", fmt.Errorf("consuming refresh token: %w", err)
	}
	if !consumed {
		return "", "", ErrTokenRevoked
	}

	accessToken, refreshToken, err := r.issuer.IssuePair(ctx, record.Subject, record.DeviceID)
	if err != nil {
		return "", "", err
	}

	log.Debug().
		Str("subject", record.Subject).
		Str("oldTokenId", record.TokenID).
		Msg("Refresh token rotated")

	return accessToken, refreshToken, nil
}
