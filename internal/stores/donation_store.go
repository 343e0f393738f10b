package stores

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormDonationStore struct{ DB *gorm.DB }

func NewDonationStore(db *gorm.DB) *GormDonationStore {
	return &GormDonationStore{DB: db}
}

func (s *GormDonationStore) Create(ctx context.Context, d *models.Donation) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return s.DB.WithContext(ctx).Create(d).Error
}

func (s *GormDonationStore) ListByDonor(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error) {
	var out []models.Donation
	err := s.DB.WithContext(ctx).Preload("Request").
		Where("donor_id = ?", donorID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *GormDonationStore) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Donation, error) {
	var out []models.Donation
	err := s.DB.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *GormDonationStore) TotalsByDonor(ctx context.Context, donorID uuid.UUID) (DonationTotals, error) {
	var out DonationTotals
	err := s.DB.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount FROM donations WHERE donor_id = ?`,
		donorID,
	).Scan(&out).Error
	return out, err
}
