package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/parity-hq/parity-backend/internal/middleware"
	"github.com/parity-hq/parity-backend/internal/models"
	"github.com/parity-hq/parity-backend/internal/storage"
)

// AccountHandler handles account and subscription-state requests
type AccountHandler struct {
	store storage.Store
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(store storage.Store) *AccountHandler {
	return &AccountHandler{store: store}
}

// Register creates an account with the default trial allowance
func (h *AccountHandler) Register(c *fiber.Ctx) error {
	var reg models.UserRegistration
	if err := c.BodyParser(&reg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if reg.Name == "" || reg.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name and email are required",
		})
	}

	user, err := h.store.CreateUser(&reg)
	if err != nil {
		return respondError(c, err)
	}

	token, err := middleware.IssueToken(user.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created successfully",
		"user":    user,
		"token":   token,
	})
}

// Login issues a bearer token for an existing account. Identity verification
// happens upstream; this endpoint exchanges a verified email for our token.
func (h *AccountHandler) Login(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email is required",
		})
	}

	user, err := h.store.GetUserByEmail(req.Email)
	if err != nil {
		return respondError(c, err)
	}

	token, err := middleware.IssueToken(user.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user":  user,
		"token": token,
	})
}

// Me returns the authenticated account
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	user, err := h.store.GetUser(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// SetPremium flips the premium flag. Stand-in for the payment provider
// webhook; payment processing itself is external.
func (h *AccountHandler) SetPremium(c *fiber.Ctx) error {
	var req struct {
		Premium bool `json:"premium"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	userID := middleware.UserID(c)
	if err := h.store.SetPremium(userID, req.Premium); err != nil {
		return respondError(c, err)
	}

	user, err := h.store.GetUser(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Subscription updated",
		"user":    user,
	})
}
