package access

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHasRole(t *testing.T) {
	id := &Identity{UserID: uuid.New(), Role: models.RoleDonor}
	assert.True(t, id.HasRole(models.RoleDonor, models.RoleAdmin))
	assert.False(t, id.HasRole(models.RoleAdmin))

	var missing *Identity
	assert.False(t, missing.HasRole(models.RoleAdmin))
}

func TestCanReadCNIC(t *testing.T) {
	applicant := &Identity{Role: models.RoleApplicant, CNIC: "3520212345671"}
	assert.True(t, applicant.CanReadCNIC("3520212345671"))
	assert.False(t, applicant.CanReadCNIC("3520299999999"))

	noCNIC := &Identity{Role: models.RoleApplicant}
	assert.False(t, noCNIC.CanReadCNIC(""))

	for _, role := range []models.Role{models.RoleAdmin, models.RoleDonor} {
		id := &Identity{Role: role, CNIC: "1111111111111"}
		assert.True(t, id.CanReadCNIC("3520299999999"), role)
	}
}
