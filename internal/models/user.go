package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleApplicant Role = "applicant"
	RoleDonor     Role = "donor"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleApplicant, RoleDonor, RoleAdmin:
		return true
	}
	return false
}

// User is an applicant, donor or admin account. CNIC is the national identity
// number and doubles as a login identifier.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName  string         `gorm:"size:150;not null" json:"full_name"`
	CNIC      string         `gorm:"column:cnic;size:13;not null;uniqueIndex" json:"cnic"`
	Email     string         `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone     string         `gorm:"size:20" json:"phone"`
	Address   string         `gorm:"size:500" json:"address"`
	Password  string         `gorm:"not null" json:"-"`
	Role      Role           `gorm:"size:20;not null;default:'applicant';index" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
