package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rezervo-app/rezervo-backend/internal/models"
	"github.com/rezervo-app/rezervo-backend/internal/storage"
)

// PushHandler handles Web Push subscription registration
type PushHandler struct {
	store storage.Store
}

// NewPushHandler creates a new push handler
func NewPushHandler(store storage.Store) *PushHandler {
	return &PushHandler{store: store}
}

type subscriptionPayload struct {
	Subscription struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	} `json:"subscription"`
	BusinessID string `json:"businessId"`
	UserID     string `json:"userId"`
}

func (p *subscriptionPayload) valid() bool {
	return p.Subscription.Endpoint != "" &&
		p.Subscription.Keys.P256dh != "" &&
		p.Subscription.Keys.Auth != ""
}

// RegisterBusiness stores a browser registration for a business dashboard.
func (h *PushHandler) RegisterBusiness(c *fiber.Ctx) error {
	var req subscriptionPayload
	if err := c.BodyParser(&req); err != nil || !req.valid() || req.BusinessID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "businessId and a complete subscription are required",
		})
	}

	sub := &models.PushSubscription{
		BusinessID: req.BusinessID,
		Endpoint:   req.Subscription.Endpoint,
		P256dh:     req.Subscription.Keys.P256dh,
		Auth:       req.Subscription.Keys.Auth,
	}
	if err := h.store.SaveBusinessSubscription(sub); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store subscription",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

// RegisterUser stores a browser registration for a customer.
func (h *PushHandler) RegisterUser(c *fiber.Ctx) error {
	var req subscriptionPayload
	if err := c.BodyParser(&req); err != nil || !req.valid() || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "userId and a complete subscription are required",
		})
	}

	sub := &models.UserPushSubscription{
		UserID:   req.UserID,
		Endpoint: req.Subscription.Endpoint,
		P256dh:   req.Subscription.Keys.P256dh,
		Auth:     req.Subscription.Keys.Auth,
	}
	if err := h.store.SaveUserSubscription(sub); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store subscription",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}
