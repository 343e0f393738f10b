package services

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/access"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/stores"
)

// AnalyticsService computes dashboard rollups from current table state on
// every call.
type AnalyticsService struct {
	requests  stores.RequestStore
	donations stores.DonationStore
}

func NewAnalyticsService(requests stores.RequestStore, donations stores.DonationStore) *AnalyticsService {
	return &AnalyticsService{requests: requests, donations: donations}
}

func (s *AnalyticsService) AdminSummary(ctx context.Context, id *access.Identity) (*dto.AdminSummary, error) {
	if err := RequireRole(id, models.RoleAdmin); err != nil {
		return nil, err
	}

	totals, err := s.requests.StatusTotals(ctx)
	if err != nil {
		return nil, apperr.Internal("aggregate requests by status", err)
	}
	types, err := s.requests.TypeCounts(ctx)
	if err != nil {
		return nil, apperr.Internal("aggregate requests by type", err)
	}

	summary := &dto.AdminSummary{CountsByType: make(map[string]int64, len(types))}
	for _, t := range totals {
		switch t.Status {
		case models.StatusPending:
			summary.Pending = t.Count
		case models.StatusApproved:
			summary.Approved = t.Count
		case models.StatusRejected:
			summary.Rejected = t.Count
		default:
			continue
		}
		summary.TotalAmount += t.Amount
	}
	summary.Total = summary.Pending + summary.Approved + summary.Rejected
	for _, t := range types {
		summary.CountsByType[t.Type] = t.Count
	}
	return summary, nil
}

func (s *AnalyticsService) DonorSummary(ctx context.Context, id *access.Identity) (*dto.DonorSummary, error) {
	if err := RequireRole(id, models.RoleDonor); err != nil {
		return nil, err
	}

	totals, err := s.requests.StatusTotals(ctx)
	if err != nil {
		return nil, apperr.Internal("aggregate requests by status", err)
	}
	mine, err := s.donations.TotalsByDonor(ctx, id.UserID)
	if err != nil {
		return nil, apperr.Internal("aggregate donations", err)
	}

	summary := &dto.DonorSummary{
		MyDonationCount:  mine.Count,
		MyDonationAmount: mine.Amount,
	}
	for _, t := range totals {
		if t.Status == models.StatusApproved {
			summary.AvailableRequestsCount = t.Count
			summary.TotalNeededAmount = t.Amount
		}
	}
	return summary, nil
}
