package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parity-hq/parity-backend/internal/middleware"
	"github.com/parity-hq/parity-backend/internal/models"
	"github.com/parity-hq/parity-backend/internal/services"
)

// GuestHandler handles the invitee side of a joint unpack session. The
// access endpoint authenticates by the invitation token in the body; the
// rest go through the guest middleware.
type GuestHandler struct {
	coordinator *services.SessionCoordinator
}

// NewGuestHandler creates a new guest handler
func NewGuestHandler(coordinator *services.SessionCoordinator) *GuestHandler {
	return &GuestHandler{coordinator: coordinator}
}

// Access redeems an invitation token. The first successful call claims the
// guest seat for the presented name.
func (h *GuestHandler) Access(c *fiber.Ctx) error {
	var req struct {
		InvitationToken string `json:"invitation_token"`
		GuestName       string `json:"guest_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.InvitationToken == "" || req.GuestName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invitation token and guest name are required",
		})
	}

	view, err := h.coordinator.AccessAsGuest(req.InvitationToken, req.GuestName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Welcome to the session",
		"session": view,
	})
}

// Prompts returns the guest's prompts and prior responses
func (h *GuestHandler) Prompts(c *fiber.Ctx) error {
	view, err := h.coordinator.GuestView(c.Params("id"), middleware.GuestName(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// SaveResponse upserts one of the guest's answers
func (h *GuestHandler) SaveResponse(c *fiber.Ctx) error {
	var req struct {
		PromptID string `json:"prompt_id"`
		Response string `json:"response"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.coordinator.SaveResponse(c.Params("id"), models.PartyInvitee, req.PromptID, req.Response)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Response saved",
		"response": resp,
	})
}
