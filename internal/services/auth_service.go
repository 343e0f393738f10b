package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/access"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/stores"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the identifier matches no user, so both
// failure paths spend one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("welfare-portal-dummy-password"), bcrypt.DefaultCost)

// AuthService issues session tokens and verifies them on every call.
type AuthService struct {
	users   stores.UserStore
	secret  []byte
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAuthService(users stores.UserStore, cfg *config.Config, m *metrics.Metrics) *AuthService {
	return &AuthService{
		users:   users,
		secret:  []byte(cfg.JWTSecret),
		ttl:     cfg.SessionTTL,
		metrics: m,
		now:     time.Now,
	}
}

func (s *AuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.UserResponse, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.CNIC = NormalizeCNIC(req.CNIC)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	user := models.User{
		ID:       uuid.New(),
		FullName: req.FullName,
		CNIC:     req.CNIC,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: string(hash),
		Role:     models.Role(req.Role),
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			return nil, apperr.Conflict("an account with this CNIC or email already exists")
		}
		return nil, apperr.Internal("create user", err)
	}

	slog.Info("user signed up", "action", "auth.signup", "user_id", user.ID.String(), "role", string(user.Role))
	resp := toUserResponse(&user)
	return &resp, nil
}

// Authenticate checks identifier (CNIC or email) and password. Unknown
// identifiers and wrong passwords fail with the same error.
func (s *AuthService) Authenticate(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if ValidCNIC(identifier) {
		identifier = NormalizeCNIC(identifier)
	} else {
		identifier = strings.ToLower(identifier)
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, stores.ErrNotFound) {
		return nil, apperr.Internal("find user", err)
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		s.metrics.LoginFailed()
		return nil, apperr.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.metrics.LoginFailed()
		return nil, apperr.ErrInvalidCredentials
	}

	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return nil, apperr.Internal("sign session token", err)
	}

	slog.Info("user logged in", "action", "auth.login", "user_id", user.ID.String(), "role", string(user.Role))
	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserResponse(user),
	}, nil
}

// IssueToken signs a session token carrying the user's id, CNIC and role.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"cnic": user.CNIC,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken verifies signature and expiry and decodes the identity.
func (s *AuthService) ParseToken(raw string) (*access.Identity, error) {
	if raw == "" {
		return nil, apperr.ErrUnauthenticated
	}
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid or expired session")
	}
	return IdentityFromToken(token)
}

// Authorize is the single gate in front of sensitive operations: it rejects a
// missing or invalid token as unauthenticated and a role outside roles as
// forbidden.
func (s *AuthService) Authorize(raw string, roles ...models.Role) (*access.Identity, error) {
	id, err := s.ParseToken(raw)
	if err != nil {
		return nil, err
	}
	if err := RequireRole(id, roles...); err != nil {
		return nil, err
	}
	return id, nil
}

// RequireRole checks an already verified identity against roles.
func RequireRole(id *access.Identity, roles ...models.Role) error {
	if id == nil {
		return apperr.ErrUnauthenticated
	}
	if !id.HasRole(roles...) {
		return apperr.Forbidden("role " + string(id.Role) + " may not perform this operation")
	}
	return nil
}

// IdentityFromToken decodes the claims of a verified token.
func IdentityFromToken(token *jwt.Token) (*access.Identity, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid claims")
	}
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "session has no expiry")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid subject claim")
	}
	role := models.Role(fmt.Sprint(claims["role"]))
	if !role.Valid() {
		return nil, apperr.New(apperr.KindUnauthenticated, "invalid role claim")
	}
	cnic, _ := claims["cnic"].(string)

	return &access.Identity{UserID: userID, CNIC: cnic, Role: role}, nil
}

func (s *AuthService) Profile(ctx context.Context, id *access.Identity) (*dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, apperr.Internal("load user", err)
	}
	resp := toUserResponse(user)
	// The token's role is authoritative until the holder signs in again.
	resp.Role = string(id.Role)
	return &resp, nil
}

// EnsureAdmin creates the configured bootstrap admin when no admin exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg *config.Config) error {
	if cfg.AdminCNIC == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	n, err := s.users.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if n > 0 {
		return nil
	}
	if !ValidCNIC(cfg.AdminCNIC) {
		return fmt.Errorf("ADMIN_CNIC must be a 13-digit CNIC")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := models.User{
		ID:       uuid.New(),
		FullName: cfg.AdminName,
		CNIC:     NormalizeCNIC(cfg.AdminCNIC),
		Email:    strings.ToLower(cfg.AdminEmail),
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
	if err := s.users.Create(ctx, &admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	slog.Info("bootstrap admin created", "action", "auth.bootstrap_admin", "user_id", admin.ID.String())
	return nil
}

func toUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID,
		FullName: u.FullName,
		CNIC:     u.CNIC,
		Email:    u.Email,
		Phone:    u.Phone,
		Address:  u.Address,
		Role:     string(u.Role),
	}
}
