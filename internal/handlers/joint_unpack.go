package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parity-hq/parity-backend/internal/apperrors"
	"github.com/parity-hq/parity-backend/internal/middleware"
	"github.com/parity-hq/parity-backend/internal/models"
	"github.com/parity-hq/parity-backend/internal/services"
)

// JointUnpackHandler handles initiator-side joint unpack requests. The
// ready-to-reveal and mutual-responses endpoints accept either role and infer
// it from the credential presented.
type JointUnpackHandler struct {
	coordinator *services.SessionCoordinator
	invitations *services.InvitationService
}

// NewJointUnpackHandler creates a new joint unpack handler
func NewJointUnpackHandler(coordinator *services.SessionCoordinator, invitations *services.InvitationService) *JointUnpackHandler {
	return &JointUnpackHandler{coordinator: coordinator, invitations: invitations}
}

// CreateFromSoloPrep converts a completed solo prep into a joint session
func (h *JointUnpackHandler) CreateFromSoloPrep(c *fiber.Ctx) error {
	sess, err := h.coordinator.CreateFromSoloPrep(middleware.UserID(c), c.Params("soloPrepID"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Joint unpack session created",
		"session": sess,
	})
}

// List returns the caller's sessions
func (h *JointUnpackHandler) List(c *fiber.Ctx) error {
	sessions, err := h.coordinator.ListSessions(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// Get retrieves one session
func (h *JointUnpackHandler) Get(c *fiber.Ctx) error {
	sess, err := h.coordinator.GetSession(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess)
}

// Invite issues or reissues the session's invitation and returns the
// shareable link
func (h *JointUnpackHandler) Invite(c *fiber.Ctx) error {
	inv, link, err := h.coordinator.GenerateInvitation(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":         "Invitation ready to share",
		"invitation_link": link,
		"expires_at":      inv.ExpiresAt,
	})
}

// InviteeStatus is the initiator's readiness poll
func (h *JointUnpackHandler) InviteeStatus(c *fiber.Ctx) error {
	status, err := h.coordinator.GetInviteeStatus(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// SaveResponse upserts one of the initiator's answers
func (h *JointUnpackHandler) SaveResponse(c *fiber.Ctx) error {
	var req struct {
		PromptID string `json:"prompt_id"`
		Response string `json:"response"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	sessionID := c.Params("id")
	if _, err := h.coordinator.GetSession(middleware.UserID(c), sessionID); err != nil {
		return respondError(c, err)
	}

	resp, err := h.coordinator.SaveResponse(sessionID, models.PartyInitiator, req.PromptID, req.Response)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Response saved",
		"response": resp,
	})
}

// resolveParty infers the caller's role from the credential presented:
// bearer token means initiator, invitation token means invitee.
func (h *JointUnpackHandler) resolveParty(c *fiber.Ctx, sessionID string) (string, error) {
	if userID := middleware.ParseBearer(c.Get("Authorization")); userID != "" {
		if _, err := h.coordinator.GetSession(userID, sessionID); err != nil {
			return "", err
		}
		return models.PartyInitiator, nil
	}

	if token := c.Get(middleware.InvitationTokenHeader); token != "" {
		inv, err := h.invitations.Validate(token)
		if err != nil {
			return "", err
		}
		if inv.SessionID != sessionID || inv.ClaimedBy == "" {
			return "", apperrors.ErrUnauthorized
		}
		return models.PartyInvitee, nil
	}
	return "", apperrors.ErrInvalidOrExpiredToken
}

// ConfirmReady handles POST /sessions/{id}/ready-to-reveal for either party
func (h *JointUnpackHandler) ConfirmReady(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	party, err := h.resolveParty(c, sessionID)
	if err != nil {
		return respondError(c, err)
	}

	sess, err := h.coordinator.ConfirmReadyToReveal(sessionID, party)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Readiness confirmed",
		"status":     sess.Status,
		"both_ready": sess.InitiatorReady && sess.InviteeReady,
	})
}

// MutualResponses reveals both parties' answers once both are ready
func (h *JointUnpackHandler) MutualResponses(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if _, err := h.resolveParty(c, sessionID); err != nil {
		return respondError(c, err)
	}

	items, err := h.coordinator.GetMutualResponses(sessionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"responses": items,
	})
}

// Agenda generates or fetches the discussion agenda. A rebuild requires both
// the regenerate flag and an explicit confirmation.
func (h *JointUnpackHandler) Agenda(c *fiber.Ctx) error {
	var req struct {
		Regenerate bool `json:"regenerate"`
		Confirm    bool `json:"confirm"`
	}
	// Empty body means the plain idempotent fetch/generate
	_ = c.BodyParser(&req)

	if req.Regenerate && !req.Confirm {
		return respondError(c, apperrors.ErrAgendaAlreadyGenerated)
	}

	agenda, err := h.coordinator.GenerateAgenda(middleware.UserID(c), c.Params("id"), req.Regenerate && req.Confirm)
	if err != nil {
		return respondError(c, err)
	}

	items, err := agenda.Items()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"agenda": fiber.Map{
			"id":           agenda.ID,
			"session_id":   agenda.SessionID,
			"version":      agenda.Version,
			"generated_at": agenda.GeneratedAt,
			"items":        items,
		},
	})
}

// Delete tears down a session
func (h *JointUnpackHandler) Delete(c *fiber.Ctx) error {
	if err := h.coordinator.DeleteSession(middleware.UserID(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Session deleted",
	})
}
