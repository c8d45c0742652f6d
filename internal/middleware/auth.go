package middleware

import (
	"strings"

	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/gofiber/fiber/v2"
)

const WalletKey = "wallet"

type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// RequireJWT guards routes that spend gas or gateway credit. A nil verifier
// disables the check.
func RequireJWT(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if v == nil {
			return c.Next()
		}
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if header == "" || !ok || token == "" {
			return utils.JSONError(c, fiber.StatusUnauthorized, "missing authorization")
		}
		wallet, err := v.VerifyToken(token)
		if err != nil {
			return utils.JSONError(c, fiber.StatusUnauthorized, "invalid token")
		}
		c.Locals(WalletKey, wallet)
		return c.Next()
	}
}
