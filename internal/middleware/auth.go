package middleware

import (
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/access"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/services"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JWTProtected verifies the session token from the Authorization header or
// the session cookie and stores it under the "user" local.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		TokenLookup: "header:Authorization,cookie:" + cfg.SessionCookie,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperr.Wrap(err, apperr.KindUnauthenticated, "invalid or expired session")
		},
	})
}

// RequireRoles admits only verified identities holding one of roles and
// makes the identity available through access.GetIdentity.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok || token == nil {
			return apperr.ErrUnauthenticated
		}

		id, err := services.IdentityFromToken(token)
		if err != nil {
			return err
		}
		if err := services.RequireRole(id, roles...); err != nil {
			return err
		}

		access.SetIdentity(c, id)
		return c.Next()
	}
}

// Authenticated admits any verified identity.
func Authenticated() fiber.Handler {
	return RequireRoles(models.RoleApplicant, models.RoleDonor, models.RoleAdmin)
}
