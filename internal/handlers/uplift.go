package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parity-hq/parity-backend/internal/middleware"
	"github.com/parity-hq/parity-backend/internal/services"
)

// UpliftHandler handles encouragement messages between partners
type UpliftHandler struct {
	uplift *services.UpliftService
}

// NewUpliftHandler creates a new uplift handler
func NewUpliftHandler(uplift *services.UpliftService) *UpliftHandler {
	return &UpliftHandler{uplift: uplift}
}

// Send stores and delivers an uplift message
func (h *UpliftHandler) Send(c *fiber.Ctx) error {
	var req struct {
		RecipientName  string `json:"recipient_name"`
		RecipientPhone string `json:"recipient_phone"`
		Body           string `json:"body"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	msg, err := h.uplift.Send(middleware.UserID(c), req.RecipientName, req.RecipientPhone, req.Body)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Uplift message sent",
		"uplift":  msg,
	})
}

// List returns the caller's sent messages
func (h *UpliftHandler) List(c *fiber.Ctx) error {
	messages, err := h.uplift.List(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"messages": messages,
		"count":    len(messages),
	})
}
