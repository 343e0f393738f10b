package stores

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = gorm.ErrRecordNotFound
	ErrDuplicate = errors.New("duplicate record")
)

// UserStore abstracts account persistence.
type UserStore interface {
	// Create persists u, returning ErrDuplicate when the CNIC or email is taken.
	Create(ctx context.Context, u *models.User) error
	// FindByIdentifier looks a user up by CNIC or email, or returns ErrNotFound.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int64, error)
}

type RequestFilter struct {
	UserID        *uuid.UUID
	ApplicantCNIC string
	Status        models.RequestStatus
	Type          string
	WithApplicant bool
	Limit         int
	Offset        int
}

// Resolution is the single transition a pending request may undergo.
type Resolution struct {
	Status          models.RequestStatus
	RejectionReason *string
	ReviewedBy      uuid.UUID
	At              time.Time
}

type StatusTotal struct {
	Status models.RequestStatus
	Count  int64
	Amount float64
}

type TypeCount struct {
	Type  string
	Count int64
}

// RequestStore abstracts welfare request persistence.
type RequestStore interface {
	Create(ctx context.Context, r *models.WelfareRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.WelfareRequest, error)
	// List returns matching requests newest first.
	List(ctx context.Context, f RequestFilter) ([]models.WelfareRequest, error)
	Count(ctx context.Context, f RequestFilter) (int64, error)
	// Resolve applies res only while the request is still pending and reports
	// whether a row changed.
	Resolve(ctx context.Context, id uuid.UUID, res Resolution) (bool, error)
	StatusTotals(ctx context.Context) ([]StatusTotal, error)
	TypeCounts(ctx context.Context) ([]TypeCount, error)
}

type DonationTotals struct {
	Count  int64
	Amount float64
}

// DonationStore is append-only: donations are never updated or deleted.
type DonationStore interface {
	Create(ctx context.Context, d *models.Donation) error
	ListByDonor(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Donation, error)
	TotalsByDonor(ctx context.Context, donorID uuid.UUID) (DonationTotals, error)
}
