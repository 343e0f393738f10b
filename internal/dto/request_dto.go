package dto

import (
	"encoding/json"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/google/uuid"
)

// SubmitRequest is the JSON form of a submission; multipart submissions carry
// the same fields as form values with details as a JSON string.
type SubmitRequest struct {
	Type    string          `json:"type"`
	Reason  string          `json:"reason"`
	Amount  *float64        `json:"amount,omitempty"`
	Address string          `json:"address"`
	Details json.RawMessage `json:"details,omitempty"`
}

type SubmitResponse struct {
	ID     uuid.UUID            `json:"id"`
	Status models.RequestStatus `json:"status"`
}

type TransitionRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
}

type RequestListResponse struct {
	Requests []models.WelfareRequest `json:"requests"`
	Total    int64                   `json:"total"`
	Limit    int                     `json:"limit,omitempty"`
	Offset   int                     `json:"offset,omitempty"`
}
