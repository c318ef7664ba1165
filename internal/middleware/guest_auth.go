package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/services"
)

// InvitationTokenHeader carries the guest's invitation token on guest-role
// requests after the initial access call
const InvitationTokenHeader = "X-Invitation-Token"

// RequireGuest authenticates guest-role routes via the invitation token. The
// token must already be claimed (the guest went through the access endpoint)
// and must belong to the session named in the path.
func RequireGuest(invitations *services.InvitationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(InvitationTokenHeader)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing invitation token",
			})
		}

		inv, err := invitations.Validate(token)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidOrExpiredToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired invitation token",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to validate invitation token",
			})
		}
		if inv.ClaimedBy == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invitation not yet claimed",
			})
		}
		if id := c.Params("id"); id != "" && id != inv.SessionID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Invitation does not grant access to this session",
			})
		}

		c.Locals("guestSessionID", inv.SessionID)
		c.Locals("guestName", inv.ClaimedBy)
		return c.Next()
	}
}

// GuestName returns the guest identity set by RequireGuest
func GuestName(c *fiber.Ctx) string {
	if name, ok := c.Locals("guestName").(string); ok {
		return name
	}
	return ""
}
