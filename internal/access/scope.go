package access

import (
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OwnedBy filters welfare requests to those filed by userID.
func OwnedBy(userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("welfare_requests.user_id = ?", userID)
	}
}

// FiledUnderCNIC filters welfare requests by the applicant's identity number.
func FiledUnderCNIC(cnic string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN users ON users.id = welfare_requests.user_id").
			Where("users.cnic = ?", cnic)
	}
}

func WithStatus(status models.RequestStatus) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("welfare_requests.status = ?", status)
	}
}
