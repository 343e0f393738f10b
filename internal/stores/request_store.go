package stores

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/access"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormRequestStore struct{ DB *gorm.DB }

func NewRequestStore(db *gorm.DB) *GormRequestStore {
	return &GormRequestStore{DB: db}
}

func (s *GormRequestStore) Create(ctx context.Context, r *models.WelfareRequest) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return s.DB.WithContext(ctx).Create(r).Error
}

func (s *GormRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*models.WelfareRequest, error) {
	var r models.WelfareRequest
	if err := s.DB.WithContext(ctx).Preload("User").First(&r, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *GormRequestStore) filtered(ctx context.Context, f RequestFilter) *gorm.DB {
	q := s.DB.WithContext(ctx).Model(&models.WelfareRequest{})
	if f.UserID != nil {
		q = q.Scopes(access.OwnedBy(*f.UserID))
	}
	if f.ApplicantCNIC != "" {
		q = q.Scopes(access.FiledUnderCNIC(f.ApplicantCNIC))
	}
	if f.Status != "" {
		q = q.Scopes(access.WithStatus(f.Status))
	}
	if f.Type != "" {
		q = q.Where("welfare_requests.type = ?", f.Type)
	}
	return q
}

func (s *GormRequestStore) List(ctx context.Context, f RequestFilter) ([]models.WelfareRequest, error) {
	q := s.filtered(ctx, f).Order("welfare_requests.created_at DESC")
	if f.WithApplicant {
		q = q.Preload("User")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []models.WelfareRequest
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormRequestStore) Count(ctx context.Context, f RequestFilter) (int64, error) {
	var n int64
	err := s.filtered(ctx, f).Count(&n).Error
	return n, err
}

func (s *GormRequestStore) Resolve(ctx context.Context, id uuid.UUID, res Resolution) (bool, error) {
	result := s.DB.WithContext(ctx).Model(&models.WelfareRequest{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":           res.Status,
			"rejection_reason": res.RejectionReason,
			"reviewed_by":      res.ReviewedBy,
			"updated_at":       res.At,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormRequestStore) StatusTotals(ctx context.Context) ([]StatusTotal, error) {
	var out []StatusTotal
	err := s.DB.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount
		 FROM welfare_requests GROUP BY status`,
	).Scan(&out).Error
	return out, err
}

func (s *GormRequestStore) TypeCounts(ctx context.Context) ([]TypeCount, error) {
	var out []TypeCount
	err := s.DB.WithContext(ctx).Raw(
		`SELECT type, COUNT(*) AS count FROM welfare_requests GROUP BY type ORDER BY type`,
	).Scan(&out).Error
	return out, err
}
