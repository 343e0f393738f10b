package handlers

import (
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/welfare-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type DonationHandler struct {
	donationService *services.DonationService
}

func NewDonationHandler(donationService *services.DonationService) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

func (h *DonationHandler) Pledge(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req dto.PledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody()
	}

	donation, err := h.donationService.Pledge(c.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.PledgeResponse{ID: donation.ID})
}

func (h *DonationHandler) Mine(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	out, err := h.donationService.ListMine(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"donations": out})
}

func (h *DonationHandler) ForRequest(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	reqID, err := requestID(c)
	if err != nil {
		return err
	}
	resp, err := h.donationService.ListForRequest(c.UserContext(), id, reqID)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
