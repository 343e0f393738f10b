package dto

import (
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/google/uuid"
)

type PledgeRequest struct {
	RequestID uuid.UUID `json:"request_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"gt=0,lte=999999999999.99"`
}

type PledgeResponse struct {
	ID uuid.UUID `json:"id"`
}

type RequestDonationsResponse struct {
	Donations    []models.Donation `json:"donations"`
	TotalPledged float64           `json:"total_pledged"`
}
