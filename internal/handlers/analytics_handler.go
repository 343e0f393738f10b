package handlers

import (
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) AdminSummary(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	summary, err := h.analyticsService.AdminSummary(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (h *AnalyticsHandler) DonorSummary(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	summary, err := h.analyticsService.DonorSummary(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
