package access

import (
	"slices"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/google/uuid"
)

// Identity is what a verified session token asserts about its holder.
type Identity struct {
	UserID uuid.UUID   `json:"user_id"`
	CNIC   string      `json:"cnic"`
	Role   models.Role `json:"role"`
}

func (i *Identity) HasRole(roles ...models.Role) bool {
	return i != nil && slices.Contains(roles, i.Role)
}

// CanReadCNIC reports whether the holder may read data filed under cnic.
// Admins and donors have broad read scope; applicants only their own.
func (i *Identity) CanReadCNIC(cnic string) bool {
	if i == nil {
		return false
	}
	if i.Role == models.RoleAdmin || i.Role == models.RoleDonor {
		return true
	}
	return i.CNIC != "" && i.CNIC == cnic
}
