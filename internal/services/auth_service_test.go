package services

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupThenAuthenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, role := range []models.Role{models.RoleApplicant, models.RoleDonor} {
		cnic := "3520212345671"
		if role == models.RoleDonor {
			cnic = "3520212345672"
		}
		user, err := e.auth.Signup(ctx, &dto.SignupRequest{
			FullName: "Ayesha Khan",
			CNIC:     cnic[:5] + "-" + cnic[5:12] + "-" + cnic[12:],
			Email:    "  Ayesha." + string(role) + "@Example.com ",
			Address:  "House 1, Street 2, Lahore",
			Password: "correct-horse",
			Role:     string(role),
		})
		require.NoError(t, err)
		assert.Equal(t, cnic, user.CNIC)
		assert.Equal(t, "ayesha."+string(role)+"@example.com", user.Email)

		for _, identifier := range []string{cnic, user.Email, "AYESHA." + string(role) + "@EXAMPLE.COM"} {
			resp, err := e.auth.Authenticate(ctx, &dto.LoginRequest{Identifier: identifier, Password: "correct-horse"})
			require.NoError(t, err, identifier)
			assert.Equal(t, string(role), resp.User.Role)

			id, err := e.auth.ParseToken(resp.Token)
			require.NoError(t, err)
			assert.Equal(t, role, id.Role)
			assert.Equal(t, cnic, id.CNIC)
			assert.Equal(t, user.ID, id.UserID)
			assert.WithinDuration(t, time.Now().Add(168*time.Hour), resp.ExpiresAt, time.Minute)
		}
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	e := newEnv(t)
	e.signup(t, models.RoleApplicant, "3520212345671")
	ctx := context.Background()

	_, wrongPassword := e.auth.Authenticate(ctx, &dto.LoginRequest{Identifier: "3520212345671", Password: "wrong-password"})
	_, unknownUser := e.auth.Authenticate(ctx, &dto.LoginRequest{Identifier: "9999999999999", Password: "correct-horse"})
	_, unknownEmail := e.auth.Authenticate(ctx, &dto.LoginRequest{Identifier: "nobody@example.com", Password: "correct-horse"})

	require.Error(t, wrongPassword)
	assert.Equal(t, wrongPassword, unknownUser)
	assert.Equal(t, wrongPassword, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	assert.ErrorIs(t, wrongPassword, apperr.ErrInvalidCredentials)
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(unknownUser))
}

func TestSignupValidation(t *testing.T) {
	e := newEnv(t)
	valid := func() *dto.SignupRequest {
		return &dto.SignupRequest{
			FullName: "Ayesha Khan",
			CNIC:     "3520212345671",
			Email:    "ayesha@example.com",
			Address:  "Lahore",
			Password: "correct-horse",
			Role:     "applicant",
		}
	}

	tests := []struct {
		name   string
		mutate func(r *dto.SignupRequest)
		field  string
	}{
		{"short cnic", func(r *dto.SignupRequest) { r.CNIC = "12345" }, "cnic"},
		{"letters in cnic", func(r *dto.SignupRequest) { r.CNIC = "35202ABCDEFG1" }, "cnic"},
		{"bad email", func(r *dto.SignupRequest) { r.Email = "not-an-email" }, "email"},
		{"short password", func(r *dto.SignupRequest) { r.Password = "short" }, "password"},
		{"missing address", func(r *dto.SignupRequest) { r.Address = "" }, "address"},
		{"admin role", func(r *dto.SignupRequest) { r.Role = "admin" }, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			_, err := e.auth.Signup(context.Background(), req)
			require.Error(t, err)
			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestSignupDuplicate(t *testing.T) {
	e := newEnv(t)
	e.signup(t, models.RoleApplicant, "3520212345671")

	_, err := e.auth.Signup(context.Background(), &dto.SignupRequest{
		FullName: "Someone Else",
		CNIC:     "35202-1234567-1",
		Email:    "other@example.com",
		Address:  "Karachi",
		Password: "another-password",
		Role:     "donor",
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAuthorize(t *testing.T) {
	e := newEnv(t)
	donor := e.signup(t, models.RoleDonor, "3520212345672")
	user := &models.User{ID: donor.UserID, CNIC: donor.CNIC, Role: donor.Role}
	token, _, err := e.auth.IssueToken(user)
	require.NoError(t, err)

	id, err := e.auth.Authorize(token, models.RoleDonor, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, donor.UserID, id.UserID)

	_, err = e.auth.Authorize(token, models.RoleAdmin)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = e.auth.Authorize("", models.RoleDonor)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = e.auth.Authorize("not.a.token", models.RoleDonor)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestAuthorizeRejectsForgedAndExpiredTokens(t *testing.T) {
	e := newEnv(t)
	donor := e.signup(t, models.RoleDonor, "3520212345672")
	claims := jwt.MapClaims{
		"sub":  donor.UserID.String(),
		"cnic": donor.CNIC,
		"role": "admin",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret-of-enough-length!!"))
	require.NoError(t, err)
	_, err = e.auth.Authorize(forged, models.RoleAdmin)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = e.auth.Authorize(unsigned, models.RoleAdmin)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	past := NewAuthService(e.mem.Users(), &config.Config{JWTSecret: testSecret, SessionTTL: time.Hour}, nil)
	past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := past.IssueToken(&models.User{ID: donor.UserID, CNIC: donor.CNIC, Role: donor.Role})
	require.NoError(t, err)
	_, err = e.auth.Authorize(expired, models.RoleDonor)
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestTokenKeepsRoleAtIssuance(t *testing.T) {
	e := newEnv(t)
	id := e.signup(t, models.RoleApplicant, "3520212345671")
	token, _, err := e.auth.IssueToken(&models.User{ID: id.UserID, CNIC: id.CNIC, Role: models.RoleApplicant})
	require.NoError(t, err)

	profile, err := e.auth.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "applicant", profile.Role)

	decoded, err := e.auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleApplicant, decoded.Role)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cfg := &config.Config{AdminCNIC: "1111111111111", AdminEmail: "Admin@Example.com", AdminPassword: "admin-password", AdminName: "Admin"}

	require.NoError(t, e.auth.EnsureAdmin(ctx, cfg))
	require.NoError(t, e.auth.EnsureAdmin(ctx, cfg))

	n, err := e.mem.Users().CountByRole(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	resp, err := e.auth.Authenticate(ctx, &dto.LoginRequest{Identifier: "admin@example.com", Password: "admin-password"})
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.User.Role)
}

func TestEnsureAdminSkipsWithoutConfig(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.auth.EnsureAdmin(context.Background(), &config.Config{}))
	n, err := e.mem.Users().CountByRole(context.Background(), models.RoleAdmin)
	require.NoError(t, err)
	assert.Zero(t, n)
}
