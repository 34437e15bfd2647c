package auth

import (
	"context"
	"errors"
	"fmt"

	"account-backend/internal/models"
	"account-backend/internal/repository"
	"account-backend/internal/revocation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account is deactivated")
)

// TokenPair represents the access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResponse represents the structured response for login
type LoginResponse struct {
	User  *models.User `json:"user"`
	Token TokenPair    `json:"tokens"`
}

// AuthService orchestrates registration, login, logout, and the verification
// code flows on top of the token machinery.
type AuthService struct {
	userRepo     *repository.UserRepository
	refreshRepo  *repository.RefreshTokenRepository
	issuer       *TokenIssuer
	rotator      *RefreshRotator
	signer       *Signer
	revocations  revocation.Store
	verification *VerificationCodeManager
}

func NewAuthService(
	userRepo *repository.UserRepository,
	refreshRepo *repository.RefreshTokenRepository,
	issuer *TokenIssuer,
	rotator *RefreshRotator,
	signer *Signer,
	revocations revocation.Store,
	verification *VerificationCodeManager,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		refreshRepo:  refreshRepo,
		issuer:       issuer,
		rotator:      rotator,
		signer:       signer,
		revocations:  revocations,
		verification: verification,
	}
}

func (s *AuthService) Register(ctx context.Context, email, username, password, name string) (*models.User, error) {
	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}
	existing, err = s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Username: username,
		Password: string(hashedPassword),
		Name:     name,
		Accesses: models.StringArray{"user"},
		IsActive: true,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	// Send the verification code; registration stands even if the mail
	// bounces, the user can request a resend.
	if _, err := s.verification.Issue(ctx, user.Email, models.PurposeEmailVerification); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("Verification email not sent at registration")
	}

	log.Info().Str("userId", user.ID).Str("email", user.Email).Msg("User registered")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, identifier, password, deviceID string) (*LoginResponse, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.userRepo.GetUserByUsername(ctx, identifier)
		if err != nil {
			return nil, err
		}
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	accessToken, refreshToken, err := s.issuer.IssuePair(ctx, user.ID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}

	log.Info().Str("userId", user.ID).Msg("User logged in")
	return &LoginResponse{
		User: user,
		Token: TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
	}, nil
}

// Refresh rotates the presented refresh token into a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	accessToken, newRefreshToken, err := s.rotator.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout blacklists the current access token by id and revokes the presented
// refresh token's record.
func (s *AuthService) Logout(ctx context.Context, accessClaims *Claims, refreshToken string) error {
	if err := s.revocations.Revoke(ctx, accessClaims.ID, accessClaims.ExpiresAt.Time, "logout"); err != nil {
		return fmt.Errorf("blacklisting access token: %w", err)
	}

	if refreshToken != "" {
		claims, err := s.signer.Verify(refreshToken)
		if err == nil && claims.Kind == KindRefresh {
			// Consume failure here means the token was already
			// revoked or never persisted; logout still succeeds.
			if _, err := s.refreshRepo.Consume(ctx, claims.ID); err != nil {
				return fmt.Errorf("revoking refresh token: %w", err)
			}
		}
	}

	log.Info().Str("subject", accessClaims.Subject).Msg("User logged out")
	return nil
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		// Report success for unknown addresses so the endpoint cannot
		// be used to probe which emails are registered.
		log.Debug().Str("email", email).Msg("Password reset requested for unknown email")
		return nil
	}

	_, err = s.verification.Issue(ctx, user.Email, models.PurposePasswordReset)
	return err
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := s.verification.Redeem(ctx, email, code, models.PurposePasswordReset); err != nil {
		return err
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrSubjectNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return err
	}

	log.Info().Str("userId", user.ID).Msg("Password reset")
	return nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	if err := s.verification.Redeem(ctx, email, code, models.PurposeEmailVerification); err != nil {
		return err
	}
	if err := s.userRepo.MarkEmailVerified(ctx, email); err != nil {
		return err
	}

	log.Info().Str("email", email).Msg("Email verified")
	return nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil || user.EmailVerified {
		return nil
	}
	_, err = s.verification.Issue(ctx, user.Email, models.PurposeEmailVerification)
	return err
}

// RevokeAllSessions revokes every outstanding refresh token for a subject.
// This is the wider replay response left optional by the rotator.
func (s *AuthService) RevokeAllSessions(ctx context.Context, subject string) (int64, error) {
	count, err := s.refreshRepo.RevokeAllForSubject(ctx, subject)
	if err != nil {
		return 0, err
	}
	log.Info().Str("subject", subject).Int64("count", count).Msg("All sessions revoked")
	return count, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}
