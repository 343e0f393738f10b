// Package storetest provides in-memory stores for service and handler tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/stores"
	"github.com/google/uuid"
)

// Memory holds all three tables so that request listings can resolve the
// owning user the way a join would.
type Memory struct {
	mu        sync.Mutex
	users     map[uuid.UUID]models.User
	requests  map[uuid.UUID]models.WelfareRequest
	donations []models.Donation
	clock     time.Time

	// FailRequestCreate, when set, is returned by RequestStore.Create.
	FailRequestCreate error
}

func New() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]models.User),
		requests: make(map[uuid.UUID]models.WelfareRequest),
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so newest-first ordering is
// deterministic. Callers hold m.mu.
func (m *Memory) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *Memory) Users() stores.UserStore         { return (*userStore)(m) }
func (m *Memory) Requests() stores.RequestStore   { return (*requestStore)(m) }
func (m *Memory) Donations() stores.DonationStore { return (*donationStore)(m) }

// RequestCount returns the number of stored requests.
func (m *Memory) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// DonationCount returns the number of stored donations.
func (m *Memory) DonationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.donations)
}

type userStore Memory

func (s *userStore) Create(_ context.Context, u *models.User) error {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.CNIC == u.CNIC || existing.Email == u.Email {
			return stores.ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := m.tick()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (s *userStore) FindByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.CNIC == identifier || u.Email == identifier {
			out := u
			return &out, nil
		}
	}
	return nil, stores.ErrNotFound
}

func (s *userStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, stores.ErrNotFound
	}
	return &u, nil
}

func (s *userStore) CountByRole(_ context.Context, role models.Role) (int64, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type requestStore Memory

func (s *requestStore) Create(_ context.Context, r *models.WelfareRequest) error {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRequestCreate != nil {
		return m.FailRequestCreate
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := m.tick()
	r.CreatedAt, r.UpdatedAt = now, now
	stored := *r
	stored.User = nil
	m.requests[r.ID] = stored
	return nil
}

func (s *requestStore) GetByID(_ context.Context, id uuid.UUID) (*models.WelfareRequest, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, stores.ErrNotFound
	}
	if u, ok := m.users[r.UserID]; ok {
		r.User = &u
	}
	return &r, nil
}

func (s *requestStore) matching(f stores.RequestFilter) []models.WelfareRequest {
	m := (*Memory)(s)
	var out []models.WelfareRequest
	for _, r := range m.requests {
		if f.UserID != nil && r.UserID != *f.UserID {
			continue
		}
		if f.ApplicantCNIC != "" {
			u, ok := m.users[r.UserID]
			if !ok || u.CNIC != f.ApplicantCNIC {
				continue
			}
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.WithApplicant {
			if u, ok := m.users[r.UserID]; ok {
				r.User = &u
			}
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *requestStore) List(_ context.Context, f stores.RequestFilter) ([]models.WelfareRequest, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := s.matching(f)
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *requestStore) Count(_ context.Context, f stores.RequestFilter) (int64, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(s.matching(f))), nil
}

func (s *requestStore) Resolve(_ context.Context, id uuid.UUID, res stores.Resolution) (bool, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok || r.Status != models.StatusPending {
		return false, nil
	}
	reviewer := res.ReviewedBy
	r.Status = res.Status
	r.RejectionReason = res.RejectionReason
	r.ReviewedBy = &reviewer
	r.UpdatedAt = res.At
	m.requests[id] = r
	return true, nil
}

func (s *requestStore) StatusTotals(_ context.Context) ([]stores.StatusTotal, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	byStatus := map[models.RequestStatus]*stores.StatusTotal{}
	for _, r := range m.requests {
		t, ok := byStatus[r.Status]
		if !ok {
			t = &stores.StatusTotal{Status: r.Status}
			byStatus[r.Status] = t
		}
		t.Count++
		if r.Amount != nil {
			t.Amount += *r.Amount
		}
	}
	out := make([]stores.StatusTotal, 0, len(byStatus))
	for _, t := range byStatus {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (s *requestStore) TypeCounts(_ context.Context) ([]stores.TypeCount, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	byType := map[string]int64{}
	for _, r := range m.requests {
		byType[r.Type]++
	}
	out := make([]stores.TypeCount, 0, len(byType))
	for typ, n := range byType {
		out = append(out, stores.TypeCount{Type: typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

type donationStore Memory

func (s *donationStore) Create(_ context.Context, d *models.Donation) error {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = m.tick()
	m.donations = append(m.donations, *d)
	return nil
}

func (s *donationStore) list(keep func(models.Donation) bool) []models.Donation {
	m := (*Memory)(s)
	var out []models.Donation
	for i := len(m.donations) - 1; i >= 0; i-- {
		if keep(m.donations[i]) {
			out = append(out, m.donations[i])
		}
	}
	return out
}

func (s *donationStore) ListByDonor(_ context.Context, donorID uuid.UUID) ([]models.Donation, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.list(func(d models.Donation) bool { return d.DonorID == donorID }), nil
}

func (s *donationStore) ListByRequest(_ context.Context, requestID uuid.UUID) ([]models.Donation, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	return s.list(func(d models.Donation) bool { return d.RequestID == requestID }), nil
}

func (s *donationStore) TotalsByDonor(_ context.Context, donorID uuid.UUID) (stores.DonationTotals, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	var t stores.DonationTotals
	for _, d := range m.donations {
		if d.DonorID == donorID {
			t.Count++
			t.Amount += d.Amount
		}
	}
	return t, nil
}
