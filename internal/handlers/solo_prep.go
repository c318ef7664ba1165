package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parity-hq/parity-backend/internal/middleware"
	"github.com/parity-hq/parity-backend/internal/services"
)

// SoloPrepHandler handles the single-party journaling flow
type SoloPrepHandler struct {
	soloPrep *services.SoloPrepService
}

// NewSoloPrepHandler creates a new solo prep handler
func NewSoloPrepHandler(soloPrep *services.SoloPrepService) *SoloPrepHandler {
	return &SoloPrepHandler{soloPrep: soloPrep}
}

// Start begins a journaling session
func (h *SoloPrepHandler) Start(c *fiber.Ctx) error {
	var req struct {
		RelationshipType  string `json:"relationship_type"`
		ConversationTopic string `json:"conversation_topic"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.RelationshipType == "" || req.ConversationTopic == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Relationship type and conversation topic are required",
		})
	}

	sess, err := h.soloPrep.Start(middleware.UserID(c), req.RelationshipType, req.ConversationTopic)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Solo prep session started",
		"session": sess,
	})
}

// List returns the caller's journaling sessions
func (h *SoloPrepHandler) List(c *fiber.Ctx) error {
	sessions, err := h.soloPrep.List(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// Get retrieves one journaling session
func (h *SoloPrepHandler) Get(c *fiber.Ctx) error {
	sess, err := h.soloPrep.Get(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess)
}

// GetResponses returns the caller's answers for a session
func (h *SoloPrepHandler) GetResponses(c *fiber.Ctx) error {
	responses, err := h.soloPrep.GetResponses(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"responses": responses,
		"count":     len(responses),
	})
}

// SaveResponse upserts one journaling answer
func (h *SoloPrepHandler) SaveResponse(c *fiber.Ctx) error {
	var req struct {
		PromptID string `json:"prompt_id"`
		Response string `json:"response"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.PromptID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Prompt ID is required",
		})
	}

	resp, err := h.soloPrep.SaveResponse(middleware.UserID(c), c.Params("id"), req.PromptID, req.Response)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "Response saved",
		"response": resp,
	})
}

// Complete finishes the journaling flow
func (h *SoloPrepHandler) Complete(c *fiber.Ctx) error {
	sess, err := h.soloPrep.Complete(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Solo prep completed",
		"session": sess,
	})
}
