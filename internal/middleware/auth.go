package middleware

import (
	"strings"

	"account-backend/config"
	"account-backend/internal/auth"
	"account-backend/internal/models"
	"account-backend/internal/repository"
	"account-backend/internal/revocation"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// PrincipalKey is the c.Locals key holding the authenticated token claims
const PrincipalKey = "principal"

// Authenticate gates every route that is not under a configured public
// prefix. On success the verified claims are bound to the request via
// c.Locals; nothing survives the request.
//
// Failures are collapsed to a single 401 body. The real cause (malformed,
// expired, revoked) is only logged, so the endpoint cannot be used as an
// oracle for token guessing.
func Authenticate(cfg *config.AuthConfig, signer *auth.Signer, revocations revocation.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.IsPublicPath(c.Path()) {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthenticated(c)
		}

		token := authHeader
		if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			token = authHeader[7:]
		}

		claims, err := signer.Verify(token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("Token verification failed")
			return unauthenticated(c)
		}

		// A refresh token must never authenticate a request
		if claims.Kind != auth.KindAccess {
			log.Debug().Str("path", c.Path()).Msg("Non-access token presented")
			return unauthenticated(c)
		}

		revoked, err := revocations.IsRevoked(c.UserContext(), claims.ID)
		if err != nil {
			// Fail closed: a store outage must not admit revoked tokens
			log.Error().Err(err).Msg("Revocation check failed")
			return unauthenticated(c)
		}
		if revoked {
			log.Debug().Str("tokenId", claims.ID).Msg("Revoked token presented")
			return unauthenticated(c)
		}

		c.Locals(PrincipalKey, claims)
		return c.Next()
	}
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "authentication failed",
	})
}

// Principal returns the claims bound by Authenticate, or nil on public routes
func Principal(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(PrincipalKey).(*auth.Claims)
	return claims
}

// RequireAccess checks for a specific access level on the authenticated user
func RequireAccess(users *repository.UserRepository, required models.AccessLevel) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Principal(c)
		if claims == nil {
			return unauthenticated(c)
		}

		user, err := users.GetUserByID(c.UserContext(), claims.Subject)
		if err != nil || user == nil {
			return unauthenticated(c)
		}
		if !user.HasAccess(required) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient access rights",
			})
		}
		return c.Next()
	}
}
