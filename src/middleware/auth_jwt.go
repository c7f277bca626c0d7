package middleware

import (
	"strings"

	"formulate-backend/src/utils"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthJWT.
const (
	LocalUserID = "userId"
	LocalEmail  = "email"
	LocalRole   = "role"
)

func AuthJWT(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.HandleError(c, fiber.StatusUnauthorized, "Missing or invalid Authorization header")
	}

	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := utils.ParseJWT(tokenStr)
	if err != nil {
		return utils.HandleError(c, fiber.StatusUnauthorized, "Invalid or expired token")
	}

	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalEmail, claims.Email)
	c.Locals(LocalRole, claims.Role)

	return c.Next()
}
