package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"account-backend/internal/mail"
	"account-backend/internal/models"
	"account-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// VerificationCodeManager issues and redeems the single-use codes backing the
// email verification and password reset flows.
type VerificationCodeManager struct {
	codeRepo *repository.VerificationCodeRepository
	mailer   mail.Mailer
	ttl      time.Duration
	length   int
	alphabet string
}

func NewVerificationCodeManager(codeRepo *repository.VerificationCodeRepository, mailer mail.Mailer, ttl time.Duration, length int, alphabet string) *VerificationCodeManager {
	return &VerificationCodeManager{
		codeRepo: codeRepo,
		mailer:   mailer,
		ttl:      ttl,
		length:   length,
		alphabet: alphabet,
	}
}

// Issue generates a code, persists it, and emails it to the address. A send
// failure does not roll the code back: the user can ask for a resend, and an
// already-delivered code must stay redeemable. The failure is still returned.
func (m *VerificationCodeManager) Issue(ctx context.Context, email string, purpose models.CodePurpose) (string, error) {
	code, err := m.generateCode()
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}

	vc := &models.VerificationCode{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(m.ttl),
	}
	if err := m.codeRepo.Create(ctx, vc); err != nil {
		return "", fmt.Errorf("persisting code: %w", err)
	}

	subject, body := codeEmail(purpose, code)
	if err := m.mailer.Send(email, subject, body); err != nil {
		log.Error().Err(err).
			Str("email", email).
			Str("purpose", string(purpose)).
			Msg("Failed to send verification email")
		return code, fmt.Errorf("sending verification email: %w", err)
	}

	return code, nil
}

// Redeem validates the exact (email, code, purpose) triple and consumes the
// code. Wrong purpose reports not-found, the same as a code that never
// existed.
func (m *VerificationCodeManager) Redeem(ctx context.Context, email, code string, purpose models.CodePurpose) error {
	vc, err := m.codeRepo.Find(ctx, email, code, purpose)
	if err != nil {
		return fmt.Errorf("looking up code: %w", err)
	}
	if vc == nil {
		return ErrCodeNotFound
	}
	if vc.Used {
		return ErrCodeUsed
	}
	if !time.Now().Before(vc.ExpiresAt) {
		return ErrCodeExpired
	}

	used, err := m.codeRepo.MarkUsed(ctx, vc.ID)
	if err != nil {
		return fmt.Errorf("consuming code: %w", err)
	}
	if !used {
		// Lost the race against a concurrent redemption
		return ErrCodeUsed
	}

	return nil
}

// generateCode draws each character from the configured alphabet using
// crypto/rand. Predictable codes would defeat the single-use guarantee.
func (m *VerificationCodeManager) generateCode() (string, error) {
	max := big.NewInt(int64(len(m.alphabet)))
	buf := make([]byte, m.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = m.alphabet[n.Int64()]
	}
	return string(buf), nil
}

func codeEmail(purpose models.CodePurpose, code string) (subject, body string) {
	switch purpose {
	case models.PurposePasswordReset:
		return "Password reset code", "Your password reset code is: " + code
	default:
		return "Verify your email", "Your email verification code is: " + code
	}
}
