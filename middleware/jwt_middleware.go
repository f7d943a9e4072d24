package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"qmessages/config"
	"qmessages/models"
	"qmessages/utils"
)

// Protected resolves the acting user from a bearer token (or the
// access_token cookie) and stores it in request locals. Handlers only ever
// use the resolved user for identity comparison against stored owner
// references.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return utils.Fail(c, fiber.StatusUnauthorized, "Invalid authorization format")
			}
			token = tokenParts[1]
		} else {
			token = c.Cookies("access_token")
			if token == "" {
				return utils.Fail(c, fiber.StatusUnauthorized, "Authorization required")
			}
		}

		claims, err := utils.ParseJWTToken(token)
		if err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		var user models.User
		if err := config.DB.First(&user, claims.UserID).Error; err != nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "User not found")
		}
		if !user.IsActive {
			return utils.Fail(c, fiber.StatusForbidden, "Account is not active")
		}
		if claims.TokenVersion != user.TokenVersion {
			return utils.Fail(c, fiber.StatusUnauthorized, "Invalid token version")
		}

		c.Locals("user", &user)
		c.Locals("userID", user.ID)
		return c.Next()
	}
}
