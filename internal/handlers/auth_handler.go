package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	user, err := h.authService.Signup(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// Login returns the session token in the body and also sets it as an
// HTTP-only cookie for browser clients.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	resp, err := h.authService.Authenticate(c.UserContext(), &req)
	if err != nil {
		return err
	}

	c.Cookie(h.sessionCookie(resp.Token, resp.ExpiresAt))
	return c.JSON(resp)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(h.sessionCookie("", time.Unix(0, 0)))
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	profile, err := h.authService.Profile(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}
