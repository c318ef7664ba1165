package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/parity-hq/parity-backend/internal/apperrors"
)

// respondError maps service errors to HTTP responses. Every sentinel gets a
// stable status so clients can branch without parsing messages.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	case errors.Is(err, apperrors.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You are not allowed to perform this action",
		})
	case errors.Is(err, apperrors.ErrInvalidOrExpiredToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired invitation token",
		})
	case errors.Is(err, apperrors.ErrTokenAlreadyClaimed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "This invitation has already been claimed",
		})
	case errors.Is(err, apperrors.ErrIncompleteResponses):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "All prompts must be answered first",
		})
	case errors.Is(err, apperrors.ErrNotReady):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Both of you need to be ready before responses are revealed",
		})
	case errors.Is(err, apperrors.ErrAgendaAlreadyGenerated):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Agenda already generated - pass regenerate with confirm to rebuild it",
		})
	case errors.Is(err, apperrors.ErrPaywallBlocked):
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error": "No free sessions remaining - upgrade to premium to continue",
		})
	case errors.Is(err, apperrors.ErrSessionNotActive):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Session is not in a state that allows this action",
		})
	case errors.Is(err, apperrors.ErrEmptyContent):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Content must not be empty",
		})
	case errors.Is(err, apperrors.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Something went wrong",
	})
}
