package models

import (
	"time"

	"github.com/google/uuid"
)

// Donation is an append-only pledge against an approved request.
type Donation struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DonorID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"donor_id"`
	RequestID uuid.UUID       `gorm:"type:uuid;not null;index" json:"request_id"`
	Amount    float64         `gorm:"type:decimal(14,2);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
	Donor     *User           `gorm:"foreignKey:DonorID" json:"-"`
	Request   *WelfareRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`
}
