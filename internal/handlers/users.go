package handlers

import (
	"account-backend/internal/auth"
	"account-backend/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type UsersHandler struct {
	userRepo    *repository.UserRepository
	authService *auth.AuthService
}

func NewUsersHandler(userRepo *repository.UserRepository, authService *auth.AuthService) *UsersHandler {
	return &UsersHandler{
		userRepo:    userRepo,
		authService: authService,
	}
}

// UserListResponse represents the response for listing users
type UserListResponse struct {
	Users []UserDetails `json:"users"`
}

// UserDetails represents detailed user information
type UserDetails struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Username      string   `json:"username"`
	Name          string   `json:"name"`
	EmailVerified bool     `json:"emailVerified"`
	IsActive      bool     `json:"isActive"`
	Accesses      []string `json:"accesses"`
	CreatedAt     string   `json:"createdAt"`
}

// ListUsers returns all users; admin access required
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userRepo.GetAllUsers(c.UserContext())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch users")
		return internalError(c)
	}

	var response []UserDetails
	for _, user := range users {
		response = append(response, UserDetails{
			ID:            user.ID,
			Email:         user.Email,
			Username:      user.Username,
			Name:          user.Name,
			EmailVerified: user.EmailVerified,
			IsActive:      user.IsActive,
			Accesses:      user.Accesses,
			CreatedAt:     user.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return c.JSON(UserListResponse{Users: response})
}

// UserStatusUpdateRequest represents the request to update user status
type UserStatusUpdateRequest struct {
	Active bool `json:"active"`
}

// UpdateUserStatus activates or deactivates a user; admin access required
func (h *UsersHandler) UpdateUserStatus(c *fiber.Ctx) error {
	userID := c.Params("id")
	var input UserStatusUpdateRequest

	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}

	user, err := h.userRepo.GetUserByID(c.UserContext(), userID)
	if err != nil || user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	user.IsActive = input.Active
	if err := h.userRepo.UpdateUser(c.UserContext(), user); err != nil {
		log.Error().Err(err).Msg("Failed to update user status")
		return internalError(c)
	}

	// A deactivated account should not keep refreshing sessions
	if !input.Active {
		if _, err := h.authService.RevokeAllSessions(c.UserContext(), userID); err != nil {
			log.Error().Err(err).Str("userId", userID).Msg("Failed to revoke sessions on deactivation")
		}
	}

	return c.JSON(MessageResponse{Message: "User status updated successfully"})
}

// RevokeSessions revokes every outstanding refresh token for a user; admin
// access required. This is the family-wide response to suspected token theft.
func (h *UsersHandler) RevokeSessions(c *fiber.Ctx) error {
	userID := c.Params("id")

	user, err := h.userRepo.GetUserByID(c.UserContext(), userID)
	if err != nil || user == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	count, err := h.authService.RevokeAllSessions(c.UserContext(), userID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to revoke sessions")
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"message": "Sessions revoked",
		"revoked": count,
	})
}
