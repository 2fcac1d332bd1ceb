package middleware

import (
	"strings"

	"smarterd/internal/apperrors"
	"smarterd/internal/identity"
	"smarterd/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token. The
// caller it identifies is stored in the user context handed to the services.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		caller, err := authService.ValidateToken(c.UserContext(), parts[1])
		if err != nil {
			if apperrors.KindOf(err) == "" {
				log.Errorf("Failed to load token user: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"message": "Could not authenticate request",
					"error":   "Internal server error",
				})
			}
			log.Debugf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.SetUserContext(identity.WithCaller(c.UserContext(), caller))

		return c.Next()
	}
}
