package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/access"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/stores"
	"github.com/google/uuid"
)

var ErrNotApproved = apperr.NotEligible("donations are accepted only for approved requests")

// DonationService records pledges. It never changes the request pledged to.
type DonationService struct {
	donations stores.DonationStore
	requests  stores.RequestStore
	metrics   *metrics.Metrics
}

func NewDonationService(donations stores.DonationStore, requests stores.RequestStore, m *metrics.Metrics) *DonationService {
	return &DonationService{donations: donations, requests: requests, metrics: m}
}

func (s *DonationService) Pledge(ctx context.Context, id *access.Identity, req *dto.PledgeRequest) (*models.Donation, error) {
	if err := RequireRole(id, models.RoleDonor); err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := checkAmount("amount", req.Amount); err != nil {
		return nil, err
	}

	target, err := s.requests.GetByID(ctx, req.RequestID)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return nil, ErrNotApproved
		}
		return nil, apperr.Internal("load request", err)
	}
	if target.Status != models.StatusApproved {
		return nil, ErrNotApproved
	}

	donation := &models.Donation{
		ID:        uuid.New(),
		DonorID:   id.UserID,
		RequestID: req.RequestID,
		Amount:    req.Amount,
	}
	if err := s.donations.Create(ctx, donation); err != nil {
		return nil, apperr.Internal("record donation", err)
	}

	s.metrics.DonationPledged(donation.Amount)
	slog.Info("donation pledged",
		"action", "donation.pledge",
		"user_id", id.UserID.String(),
		"role", string(id.Role),
		"request", req.RequestID.String(),
		"amount", donation.Amount,
	)
	return donation, nil
}

// ListMine returns the caller's pledges, newest first.
func (s *DonationService) ListMine(ctx context.Context, id *access.Identity) ([]models.Donation, error) {
	if err := RequireRole(id, models.RoleDonor); err != nil {
		return nil, err
	}
	out, err := s.donations.ListByDonor(ctx, id.UserID)
	if err != nil {
		return nil, apperr.Internal("list donations", err)
	}
	if out == nil {
		out = []models.Donation{}
	}
	return out, nil
}

func (s *DonationService) ListForRequest(ctx context.Context, id *access.Identity, requestID uuid.UUID) (*dto.RequestDonationsResponse, error) {
	if err := RequireRole(id, models.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return nil, apperr.NotFound("request")
		}
		return nil, apperr.Internal("load request", err)
	}

	out, err := s.donations.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, apperr.Internal("list donations", err)
	}
	resp := &dto.RequestDonationsResponse{Donations: out}
	if resp.Donations == nil {
		resp.Donations = []models.Donation{}
	}
	for _, d := range out {
		resp.TotalPledged += d.Amount
	}
	return resp, nil
}
