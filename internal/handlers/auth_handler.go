package handlers

import (
	"errors"

	"account-backend/internal/auth"
	"account-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type AuthHandler struct {
	authService *auth.AuthService
}

func NewAuthHandler(authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}
	if input.Email == "" || input.Username == "" || input.Password == "" {
		return badRequest(c, "email, username and password are required")
	}

	user, err := h.authService.Register(c.UserContext(), input.Email, input.Username, input.Password, input.Name)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "user already exists",
			})
		}
		log.Error().Err(err).Msg("Registration failed")
		return internalError(c)
	}

	return c.JSON(user)
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	DeviceID   string `json:"device_id"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}

	loginResponse, err := h.authService.Login(c.UserContext(), input.Identifier, input.Password, input.DeviceID)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountDeactivated):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "account is deactivated",
			})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid credentials",
			})
		default:
			log.Error().Err(err).Msg("Login failed")
			return internalError(c)
		}
	}

	return c.JSON(loginResponse)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input RefreshRequest
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		return badRequest(c, "Invalid input - expected JSON with refresh_token field")
	}

	pair, err := h.authService.Refresh(c.UserContext(), input.RefreshToken)
	if err != nil {
		if isCredentialError(err) {
			// One generic message for malformed, expired, replayed and
			// unknown tokens alike
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired refresh token",
			})
		}
		log.Error().Err(err).Msg("Token rotation failed")
		return internalError(c)
	}

	return c.JSON(TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input LogoutRequest
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}

	claims := middleware.Principal(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication failed",
		})
	}

	if err := h.authService.Logout(c.UserContext(), claims, input.RefreshToken); err != nil {
		log.Error().Err(err).Msg("Logout failed")
		return internalError(c)
	}

	return c.JSON(MessageResponse{Message: "Successfully logged out"})
}

func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	claims := middleware.Principal(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication failed",
		})
	}

	user, err := h.authService.GetUserByID(c.UserContext(), claims.Subject)
	if err != nil || user == nil {
		log.Error().Err(err).Msg("Failed to load current user")
		return internalError(c)
	}

	return c.JSON(user)
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var input ForgotPasswordRequest
	if err := c.BodyParser(&input); err != nil || input.Email == "" {
		return badRequest(c, "Invalid input")
	}

	if err := h.authService.ForgotPassword(c.UserContext(), input.Email); err != nil {
		log.Error().Err(err).Msg("Forgot password failed")
		return internalError(c)
	}

	// Same response whether or not the email exists
	return c.JSON(MessageResponse{Message: "If the email is registered, a reset code has been sent"})
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var input ResetPasswordRequest
	if err := c.BodyParser(&input); err != nil || input.Email == "" || input.Code == "" || input.NewPassword == "" {
		return badRequest(c, "Invalid input")
	}

	if err := h.authService.ResetPassword(c.UserContext(), input.Email, input.Code, input.NewPassword); err != nil {
		if isCredentialError(err) {
			return badRequest(c, "invalid or expired code")
		}
		log.Error().Err(err).Msg("Password reset failed")
		return internalError(c)
	}

	return c.JSON(MessageResponse{Message: "Password reset successfully"})
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var input VerifyEmailRequest
	if err := c.BodyParser(&input); err != nil || input.Email == "" || input.Code == "" {
		return badRequest(c, "Invalid input")
	}

	if err := h.authService.VerifyEmail(c.UserContext(), input.Email, input.Code); err != nil {
		if isCredentialError(err) {
			return badRequest(c, "invalid or expired code")
		}
		log.Error().Err(err).Msg("Email verification failed")
		return internalError(c)
	}

	return c.JSON(MessageResponse{Message: "Email verified successfully"})
}

func (h *AuthHandler) ResendVerification(c *fiber.Ctx) error {
	claims := middleware.Principal(c)
	if claims == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication failed",
		})
	}

	user, err := h.authService.GetUserByID(c.UserContext(), claims.Subject)
	if err != nil || user == nil {
		return internalError(c)
	}

	if err := h.authService.ResendVerification(c.UserContext(), user.Email); err != nil {
		log.Error().Err(err).Msg("Resend verification failed")
		return internalError(c)
	}

	return c.JSON(MessageResponse{Message: "Verification code sent"})
}

// isCredentialError reports whether the error belongs to the credential
// taxonomy, i.e. the client presented something invalid rather than the
// server failing.
func isCredentialError(err error) bool {
	return errors.Is(err, auth.ErrMalformedToken) ||
		errors.Is(err, auth.ErrInvalidSignature) ||
		errors.Is(err, auth.ErrTokenExpired) ||
		errors.Is(err, auth.ErrWrongTokenKind) ||
		errors.Is(err, auth.ErrTokenRevoked) ||
		errors.Is(err, auth.ErrTokenNotFound) ||
		errors.Is(err, auth.ErrSubjectNotFound) ||
		errors.Is(err, auth.ErrCodeNotFound) ||
		errors.Is(err, auth.ErrCodeExpired) ||
		errors.Is(err, auth.ErrCodeUsed)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "internal server error",
	})
}
