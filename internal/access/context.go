package access

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

var ErrNoIdentity = errors.New("no identity in context")

// SetIdentity stores the authorized identity for downstream handlers.
func SetIdentity(c *fiber.Ctx, id *Identity) {
	c.Locals(identityKey, id)
}

// GetIdentity returns the identity placed by the role gate.
func GetIdentity(c *fiber.Ctx) (*Identity, error) {
	id, ok := c.Locals(identityKey).(*Identity)
	if !ok || id == nil {
		return nil, ErrNoIdentity
	}
	return id, nil
}
