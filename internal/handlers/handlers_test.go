package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestErrorHandlerMapping(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		kind    string
		message string
	}{
		{apperr.ErrUnauthenticated, 401, "UNAUTHENTICATED", ""},
		{apperr.ErrInvalidCredentials, 401, "INVALID_CREDENTIALS", "invalid credentials"},
		{apperr.Forbidden("no"), 403, "FORBIDDEN", "no"},
		{apperr.Validation("amount", "must be a positive number"), 400, "VALIDATION_ERROR", "must be a positive number"},
		{apperr.NotFound("request"), 404, "NOT_FOUND", "request not found"},
		{apperr.NotEligible("request already resolved"), 409, "NOT_ELIGIBLE", "request already resolved"},
		{apperr.Conflict("taken"), 409, "CONFLICT", "taken"},
		{apperr.Storage("store cnic_front", errors.New("disk full")), 500, "STORAGE_ERROR", "Internal server error"},
		{apperr.Internal("load request", errors.New("pq: connection refused")), 500, "INTERNAL_ERROR", "Internal server error"},
		{errors.New("raw failure"), 500, "INTERNAL_ERROR", "Internal server error"},
		{fiber.NewError(fiber.StatusTooManyRequests, "Too many requests"), 429, "", "Too many requests"},
	}

	for _, tt := range tests {
		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
		app.Get("/", func(c *fiber.Ctx) error { return tt.err })

		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, tt.code, resp.StatusCode, tt.err.Error())

		var body dto.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.Error)
		assert.Equal(t, tt.kind, body.Code)
		if tt.message != "" {
			assert.Equal(t, tt.message, body.Message)
		}
		assert.NotContains(t, body.Message, "pq:")
	}
}

func TestHealthCheck(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Discard,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/health", NewHealthHandler(db).Check)

	mock.ExpectPing()
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	resp, err = app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	var body dto.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
