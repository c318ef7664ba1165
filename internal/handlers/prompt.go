package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parity-hq/parity-backend/internal/models"
)

// ListPrompts returns the prompt catalog for a relationship type
func ListPrompts(c *fiber.Ctx) error {
	relationshipType := c.Query("relationshipType")
	if !models.ValidRelationshipType(relationshipType) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown relationship type",
		})
	}
	prompts := models.PromptsFor(relationshipType)
	return c.JSON(fiber.Map{
		"prompts": prompts,
		"count":   len(prompts),
	})
}
