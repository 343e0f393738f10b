package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/access"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindUnauthenticated:    fiber.StatusUnauthorized,
	apperr.KindInvalidCredentials: fiber.StatusUnauthorized,
	apperr.KindForbidden:          fiber.StatusForbidden,
	apperr.KindValidation:         fiber.StatusBadRequest,
	apperr.KindNotFound:           fiber.StatusNotFound,
	apperr.KindNotEligible:        fiber.StatusConflict,
	apperr.KindConflict:           fiber.StatusConflict,
	apperr.KindStorage:            fiber.StatusInternalServerError,
	apperr.KindInternal:           fiber.StatusInternalServerError,
}

// ErrorHandler is the app-wide fiber error handler. Service errors keep their
// kind and message; 5xx details are logged and reported, never returned.
func ErrorHandler(c *fiber.Ctx, err error) error {
	resp := dto.ErrorResponse{Error: true}
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if appErr, ok := apperr.As(err); ok {
		code = kindStatus[appErr.Kind]
		if code == 0 {
			code = fiber.StatusInternalServerError
		}
		resp.Code = string(appErr.Kind)
		resp.Message = appErr.Message
		resp.Field = appErr.Field
	} else if errors.As(err, &fe) {
		code = fe.Code
		resp.Message = fe.Message
	} else {
		resp.Code = string(apperr.KindInternal)
	}

	if code >= fiber.StatusInternalServerError {
		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error(),
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			attrs = append(attrs, "request_id", rid)
		}
		if id, idErr := access.GetIdentity(c); idErr == nil {
			attrs = append(attrs, "user_id", id.UserID.String(), "role", string(id.Role))
		}
		slog.Error("request failed", attrs...)

		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		resp.Message = "Internal server error"
	}

	return c.Status(code).JSON(resp)
}

func badBody() error {
	return apperr.Validation("", "Invalid request body")
}

// identity returns the caller verified by the role gate.
func identity(c *fiber.Ctx) (*access.Identity, error) {
	id, err := access.GetIdentity(c)
	if err != nil {
		return nil, apperr.ErrUnauthenticated
	}
	return id, nil
}

// requestID parses the :id route param. Malformed ids cannot name a stored
// request, so they are reported as not found.
func requestID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.NotFound("request")
	}
	return id, nil
}
