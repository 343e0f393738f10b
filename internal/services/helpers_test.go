package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/access"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/policy"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/stores/storetest"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

type env struct {
	mem       *storetest.Memory
	docs      *memDocs
	auth      *AuthService
	requests  *RequestService
	donations *DonationService
	analytics *AnalyticsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := storetest.New()
	docs := newMemDocs()
	cfg := &config.Config{JWTSecret: testSecret, SessionTTL: 168 * time.Hour}
	return &env{
		mem:       mem,
		docs:      docs,
		auth:      NewAuthService(mem.Users(), cfg, nil),
		requests:  NewRequestService(mem.Requests(), policy.NewRegistry(), docs, nil),
		donations: NewDonationService(mem.Donations(), mem.Requests(), nil),
		analytics: NewAnalyticsService(mem.Requests(), mem.Donations()),
	}
}

// signup registers a user and returns the identity its session token decodes to.
func (e *env) signup(t *testing.T, role models.Role, cnic string) *access.Identity {
	t.Helper()
	ctx := context.Background()
	email := string(role) + cnic + "@example.com"
	_, err := e.auth.Signup(ctx, &dto.SignupRequest{
		FullName: "Test " + string(role),
		CNIC:     cnic,
		Email:    email,
		Address:  "House 1, Street 2, Lahore",
		Password: "correct-horse",
		Role:     string(role),
	})
	require.NoError(t, err)

	resp, err := e.auth.Authenticate(ctx, &dto.LoginRequest{Identifier: email, Password: "correct-horse"})
	require.NoError(t, err)
	id, err := e.auth.ParseToken(resp.Token)
	require.NoError(t, err)
	return id
}

func admin(t *testing.T, e *env) *access.Identity {
	t.Helper()
	cfg := &config.Config{
		AdminCNIC:     "1111111111111",
		AdminEmail:    "admin@example.com",
		AdminPassword: "admin-password",
		AdminName:     "Admin",
	}
	require.NoError(t, e.auth.EnsureAdmin(context.Background(), cfg))
	resp, err := e.auth.Authenticate(context.Background(), &dto.LoginRequest{Identifier: cfg.AdminCNIC, Password: cfg.AdminPassword})
	require.NoError(t, err)
	id, err := e.auth.ParseToken(resp.Token)
	require.NoError(t, err)
	return id
}

func amount(v float64) *float64 { return &v }

// memDocs is a storage.Store kept in memory that can fail writes of one kind.
type memDocs struct {
	mu     sync.Mutex
	files  map[string][]byte
	failOn string
}

func newMemDocs() *memDocs {
	return &memDocs{files: make(map[string][]byte)}
}

func (d *memDocs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if d.failOn != "" && strings.Contains(key, "_"+d.failOn) {
		return errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[key] = data
	return nil
}

func (d *memDocs) Open(_ context.Context, key string) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.files[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (d *memDocs) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.files[key]; !ok {
		return storage.ErrNotFound
	}
	delete(d.files, key)
	return nil
}

func (d *memDocs) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.files)
}
